// Package hexutil validates and converts hex digit strings.
package hexutil

import (
	"encoding/hex"

	"github.com/danmuck/tcontctl/internal/protocol"
)

// MaxUintDigits is the number of significant hex digits that fit in a uint64.
const MaxUintDigits = 16

// DigitValue returns the value of a single hex digit.
func DigitValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ValidateDigits reports the first character of s that is not a hex digit.
func ValidateDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if _, ok := DigitValue(s[i]); !ok {
			return protocol.InvalidHexDigitError{Char: s[i], Position: i}
		}
	}
	return nil
}

// Validate checks s is a well-formed blob: even length, hex digits only.
func Validate(s string) error {
	if err := ValidateDigits(s); err != nil {
		return err
	}
	if len(s)%2 != 0 {
		return protocol.ErrOddLength
	}
	return nil
}

// ToBytes decodes s two characters per byte.
func ToBytes(s string) ([]byte, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	return hex.DecodeString(s)
}

// ToASCII maps each hex pair of s to one output byte, without UTF-8 checks.
func ToASCII(s string) (string, error) {
	b, err := ToBytes(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToUint parses s as a big-endian unsigned integer. Odd lengths are accepted
// here; leading zeros do not count towards the width limit.
func ToUint(s string) (uint64, error) {
	if err := ValidateDigits(s); err != nil {
		return 0, err
	}
	significant := s
	for len(significant) > 0 && significant[0] == '0' {
		significant = significant[1:]
	}
	if len(significant) > MaxUintDigits {
		return 0, protocol.NumericOverflowError{Value: s}
	}
	var v uint64
	for i := 0; i < len(significant); i++ {
		d, _ := DigitValue(significant[i])
		v = v<<4 | uint64(d)
	}
	return v, nil
}
