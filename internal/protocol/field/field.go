// Package field renders one fixed-width hex slice according to its encoding.
package field

import (
	"strconv"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/hexutil"
)

// Encoding is the rendering rule applied to a field's bytes.
type Encoding uint8

const (
	Ascii Encoding = iota + 1
	Hex
	Number
)

// Encoding tags as they appear in documents.
const (
	TagAscii  = "A"
	TagHex    = "H"
	TagBinary = "B"
	TagNumber = "N"
)

func (e Encoding) String() string {
	switch e {
	case Ascii:
		return "ascii"
	case Hex:
		return "hex"
	case Number:
		return "number"
	default:
		return "encoding(" + strconv.Itoa(int(e)) + ")"
	}
}

// Tag returns the canonical document tag for e.
func (e Encoding) Tag() string {
	switch e {
	case Ascii:
		return TagAscii
	case Hex:
		return TagHex
	case Number:
		return TagNumber
	default:
		return e.String()
	}
}

// ParseEncoding maps a document tag to an Encoding. "H" and "B" both select Hex.
func ParseEncoding(tag string) (Encoding, error) {
	switch tag {
	case TagAscii:
		return Ascii, nil
	case TagHex, TagBinary:
		return Hex, nil
	case TagNumber:
		return Number, nil
	default:
		return 0, protocol.UnknownEncodingError{Tag: tag}
	}
}

// Value is a rendered field. Text is set for Ascii and Hex, Number for Number.
type Value struct {
	Encoding Encoding
	Text     string
	Number   uint64
}

// String returns the display form; numbers render in decimal.
func (v Value) String() string {
	if v.Encoding == Number {
		return strconv.FormatUint(v.Number, 10)
	}
	return v.Text
}

// Any returns the value as a string or uint64, depending on the encoding.
func (v Value) Any() any {
	if v.Encoding == Number {
		return v.Number
	}
	return v.Text
}

// DecodeField renders slice with enc. The slice must be an even number of hex digits.
func DecodeField(slice string, enc Encoding) (Value, error) {
	switch enc {
	case Ascii, Hex, Number:
	default:
		return Value{}, protocol.UnknownEncodingError{Tag: enc.String()}
	}
	if err := hexutil.Validate(slice); err != nil {
		return Value{}, err
	}

	value := Value{Encoding: enc}
	switch enc {
	case Ascii:
		text, err := hexutil.ToASCII(slice)
		if err != nil {
			return Value{}, err
		}
		value.Text = text
	case Hex:
		value.Text = slice
	case Number:
		n, err := hexutil.ToUint(slice)
		if err != nil {
			return Value{}, err
		}
		value.Number = n
	}
	return value, nil
}

// Decode parses tag and renders slice with the resulting encoding.
func Decode(slice, tag string) (Value, error) {
	enc, err := ParseEncoding(tag)
	if err != nil {
		return Value{}, err
	}
	return DecodeField(slice, enc)
}
