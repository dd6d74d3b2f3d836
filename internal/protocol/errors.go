package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrOddLength = errors.New("protocol: odd hex length")
)

// MissingFieldError indicates a required attribute was absent from a record.
// Record is the 1-based position of the record in its document.
type MissingFieldError struct {
	Record int
	Attr   string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("protocol: record %d: missing attribute %q", e.Record, e.Attr)
}

// EmptyFieldError indicates an attribute was present but empty. Record is -1
// when the failure is not tied to a document record.
type EmptyFieldError struct {
	Record int
	Name   string
}

func (e EmptyFieldError) Error() string {
	if e.Record < 0 {
		return fmt.Sprintf("protocol: empty attribute %q", e.Name)
	}
	return fmt.Sprintf("protocol: record %d: empty attribute %q", e.Record, e.Name)
}

// InvalidHexDigitError reports the first non-hex character and its position.
type InvalidHexDigitError struct {
	Char     byte
	Position int
}

func (e InvalidHexDigitError) Error() string {
	return fmt.Sprintf("protocol: invalid hex digit %q at position %d", e.Char, e.Position)
}

type InvalidLengthError struct {
	Name   string
	Length int
}

func (e InvalidLengthError) Error() string {
	return fmt.Sprintf("protocol: field %q: invalid length %d", e.Name, e.Length)
}

// InsufficientDataError is returned for the first descriptor that overruns the blob.
// Offset, Needed and Available are counted in hex characters.
type InsufficientDataError struct {
	Name      string
	Offset    int
	Needed    int
	Available int
}

func (e InsufficientDataError) Error() string {
	return fmt.Sprintf(
		"protocol: field %q: insufficient data at offset %d: need %d hex chars, have %d",
		e.Name,
		e.Offset,
		e.Needed,
		e.Available,
	)
}

type UnknownEncodingError struct {
	Tag string
}

func (e UnknownEncodingError) Error() string {
	return fmt.Sprintf("protocol: unknown encoding %q", e.Tag)
}

type NumericOverflowError struct {
	Value string
}

func (e NumericOverflowError) Error() string {
	return fmt.Sprintf("protocol: numeric overflow for %q", e.Value)
}

// TrailingDataError is only produced by strict decoding.
type TrailingDataError struct {
	Offset    int
	Remaining int
}

func (e TrailingDataError) Error() string {
	return fmt.Sprintf("protocol: %d trailing hex chars at offset %d", e.Remaining, e.Offset)
}

// FieldError annotates a decode failure with the field it occurred in.
// Offset is -1 for failures detected before the blob is read.
type FieldError struct {
	Name   string
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("field %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("field %q at offset %d: %v", e.Name, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
