package bencode

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrSyntax matches every *SyntaxError through errors.Is.
var ErrSyntax = errors.New("bencode syntax error")

// ErrorKind classifies a SyntaxError.
type ErrorKind int

const (
	UnexpectedEOF ErrorKind = iota
	InvalidPrefix
	InvalidLength
	MissingColon
	ShortString
	MissingTerminator
	InvalidInteger
	LeadingZero
	NegativeZero
	TrailingData
	DuplicateKey
	TooDeep
	NonStringKey
)

var kindNames = map[ErrorKind]string{
	UnexpectedEOF:     "unexpected end of input",
	InvalidPrefix:     "invalid value prefix",
	InvalidLength:     "invalid string length",
	MissingColon:      "missing length separator",
	ShortString:       "string shorter than declared length",
	MissingTerminator: "missing terminator",
	InvalidInteger:    "invalid integer",
	LeadingZero:       "integer has leading zero",
	NegativeZero:      "negative zero",
	TrailingData:      "trailing data after value",
	DuplicateKey:      "duplicate dictionary key",
	TooDeep:           "nesting too deep",
	NonStringKey:      "dictionary key is not a string",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// SyntaxError reports a grammar violation at a byte offset of the input.
type SyntaxError struct {
	Kind ErrorKind
	Pos  int
	Msg  string
}

func newSyntaxError(kind ErrorKind, pos int, format string, vars ...any) *SyntaxError {
	return &SyntaxError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, vars...)}
}

func (e *SyntaxError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("bencode: %s at pos %d", e.Kind, e.Pos)
	}
	return fmt.Sprintf("bencode: %s at pos %d: %s", e.Kind, e.Pos, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// UnsupportedTypeError is returned by Encode for values that have no bencode
// representation.
type UnsupportedTypeError struct {
	Type reflect.Type
	Msg  string
}

func (e *UnsupportedTypeError) Error() string {
	name := "nil"
	if e.Type != nil {
		name = e.Type.String()
	}
	if e.Msg == "" {
		return fmt.Sprintf("bencode: unsupported type %s", name)
	}
	return fmt.Sprintf("bencode: unsupported type %s: %s", name, e.Msg)
}
