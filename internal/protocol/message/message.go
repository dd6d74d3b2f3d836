// Package message walks a data blob left to right against an ordered list of
// field descriptors.
package message

import (
	"errors"
	"math"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/field"
	"github.com/danmuck/tcontctl/internal/protocol/hexutil"
	"github.com/rs/zerolog/log"
)

// Descriptor declares one fixed-width field. Length is in bytes.
type Descriptor struct {
	Name   string
	Tag    string
	Length int
}

// Record is one data blob plus the descriptors that slice it.
type Record struct {
	Data   string
	Fields []Descriptor
}

// DecodedField is one rendered field. Offset is in hex characters and Raw is
// the hex slice the value was rendered from.
type DecodedField struct {
	Name   string
	Offset int
	Raw    string
	Value  field.Value
}

type Decoded struct {
	Data   string
	Fields []DecodedField
}

// Options tunes blob validation.
type Options struct {
	// Strict rejects malformed blobs up front and fails when the descriptors
	// do not consume the whole blob.
	Strict bool
}

// Decode renders every descriptor of rec in declaration order. It returns no
// partial result on error.
func Decode(rec Record, opts Options) (*Decoded, error) {
	log.Debug().
		Int("data_len", len(rec.Data)).
		Int("fields", len(rec.Fields)).
		Bool("strict", opts.Strict).
		Msg("message.Decode")

	encodings, err := checkDescriptors(rec.Fields)
	if err != nil {
		log.Debug().Err(err).Msg("message.Decode descriptor rejected")
		return nil, err
	}
	if opts.Strict {
		if err := hexutil.Validate(rec.Data); err != nil {
			log.Debug().Err(err).Msg("message.Decode blob rejected")
			return nil, err
		}
	}

	out := &Decoded{
		Data:   rec.Data,
		Fields: make([]DecodedField, 0, len(rec.Fields)),
	}
	cursor := 0
	for i, desc := range rec.Fields {
		available := len(rec.Data) - cursor
		// Compare in bytes so large declared lengths cannot wrap.
		if desc.Length > available/2 {
			err := protocol.InsufficientDataError{
				Name:      desc.Name,
				Offset:    cursor,
				Needed:    hexChars(desc.Length),
				Available: available,
			}
			log.Debug().Err(err).Msg("message.Decode truncated")
			return nil, err
		}
		needed := desc.Length * 2
		slice := rec.Data[cursor : cursor+needed]
		value, err := field.DecodeField(slice, encodings[i])
		if err != nil {
			err = annotate(desc.Name, cursor, err)
			log.Debug().Err(err).Msg("message.Decode field failed")
			return nil, err
		}
		out.Fields = append(out.Fields, DecodedField{Name: desc.Name, Offset: cursor, Raw: slice, Value: value})
		cursor += needed
	}

	if opts.Strict && cursor != len(rec.Data) {
		err := protocol.TrailingDataError{Offset: cursor, Remaining: len(rec.Data) - cursor}
		log.Debug().Err(err).Msg("message.Decode trailing data")
		return nil, err
	}
	return out, nil
}

// checkDescriptors validates every descriptor before any data is consumed.
func checkDescriptors(descs []Descriptor) ([]field.Encoding, error) {
	encodings := make([]field.Encoding, len(descs))
	for i, desc := range descs {
		if desc.Name == "" {
			return nil, protocol.EmptyFieldError{Record: -1, Name: "Name"}
		}
		if desc.Length <= 0 {
			return nil, protocol.InvalidLengthError{Name: desc.Name, Length: desc.Length}
		}
		enc, err := field.ParseEncoding(desc.Tag)
		if err != nil {
			return nil, &protocol.FieldError{Name: desc.Name, Offset: -1, Err: err}
		}
		encodings[i] = enc
	}
	return encodings, nil
}

// hexChars converts a byte length to hex characters, saturating at MaxInt.
func hexChars(length int) int {
	if length > math.MaxInt/2 {
		return math.MaxInt
	}
	return length * 2
}

// annotate wraps err with the field identity and rebases digit positions onto the blob.
func annotate(name string, offset int, err error) error {
	var digit protocol.InvalidHexDigitError
	if errors.As(err, &digit) {
		digit.Position += offset
		err = digit
	}
	return &protocol.FieldError{Name: name, Offset: offset, Err: err}
}
