// Package protocol owns the decode error contract shared by the field and
// message decoders.
//
// Ownership boundary:
// - error taxonomy (typed errors + sentinels)
// - error kind classification
//
// Subpackages:
// - hexutil: hex digit validation primitives
// - field: single field rendering
// - message: descriptor walk over one data blob
package protocol
