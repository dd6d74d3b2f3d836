package protocol

import "errors"

// Kind names an error category independent of its concrete type.
type Kind int

const (
	KindNone Kind = iota
	KindMissingField
	KindEmptyField
	KindInvalidHexDigit
	KindInvalidLength
	KindInsufficientData
	KindUnknownEncoding
	KindNumericOverflow
	KindTrailingData
	KindOddLength
	KindOther
)

var kindNames = map[Kind]string{
	KindNone:             "None",
	KindMissingField:     "MissingField",
	KindEmptyField:       "EmptyField",
	KindInvalidHexDigit:  "InvalidHexDigit",
	KindInvalidLength:    "InvalidLength",
	KindInsufficientData: "InsufficientData",
	KindUnknownEncoding:  "UnknownEncoding",
	KindNumericOverflow:  "NumericOverflow",
	KindTrailingData:     "TrailingData",
	KindOddLength:        "OddLength",
	KindOther:            "Other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Other"
}

// KindOf classifies err by walking its wrap chain. A nil error is KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		missing  MissingFieldError
		empty    EmptyFieldError
		digit    InvalidHexDigitError
		length   InvalidLengthError
		short    InsufficientDataError
		unknown  UnknownEncodingError
		overflow NumericOverflowError
		trailing TrailingDataError
	)
	switch {
	case errors.As(err, &missing):
		return KindMissingField
	case errors.As(err, &empty):
		return KindEmptyField
	case errors.As(err, &digit):
		return KindInvalidHexDigit
	case errors.As(err, &length):
		return KindInvalidLength
	case errors.As(err, &short):
		return KindInsufficientData
	case errors.As(err, &unknown):
		return KindUnknownEncoding
	case errors.As(err, &overflow):
		return KindNumericOverflow
	case errors.As(err, &trailing):
		return KindTrailingData
	case errors.Is(err, ErrOddLength):
		return KindOddLength
	default:
		return KindOther
	}
}
