package peer

import (
	"errors"
	"fmt"
)

var (
	ErrTooShort      = errors.New("message too short")
	ErrUnknownID     = errors.New("unknown message id")
	ErrMalformed     = errors.New("malformed message")
	ErrFrameTooLarge = errors.New("frame exceeds maximum length")
)

type FormatErrorKind int

const (
	TooShort FormatErrorKind = iota
	UnknownID
	Malformed
)

func (k FormatErrorKind) String() string {
	switch k {
	case TooShort:
		return "too short"
	case UnknownID:
		return "unknown id"
	case Malformed:
		return "malformed"
	}
	return fmt.Sprintf("FormatErrorKind(%d)", int(k))
}

// FormatError is returned when bytes do not form a valid wire message.
// Want and Got are byte counts and are only set for length mismatches.
type FormatError struct {
	Kind FormatErrorKind
	Tag  MessageTag
	Want int
	Got  int
	Msg  string
}

func (e *FormatError) Error() string {
	var msg string
	switch e.Kind {
	case TooShort:
		msg = ErrTooShort.Error()
	case UnknownID:
		msg = ErrUnknownID.Error()
	default:
		msg = fmt.Sprintf("malformed %s", e.Tag)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Want != 0 || e.Got != 0 {
		msg = fmt.Sprintf("%s - expected length %d got %d", msg, e.Want, e.Got)
	}
	return msg
}

func (e *FormatError) Is(target error) bool {
	switch target {
	case ErrTooShort:
		return e.Kind == TooShort
	case ErrUnknownID:
		return e.Kind == UnknownID
	case ErrMalformed:
		return e.Kind == Malformed
	}
	return false
}

func lengthError(tag MessageTag, want, got int) *FormatError {
	return &FormatError{Kind: Malformed, Tag: tag, Want: want, Got: got, Msg: "wrong message length"}
}
