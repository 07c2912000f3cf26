package bencode

import (
	"bytes"
	"strconv"
)

// reader is a forward-only cursor over a fully buffered input.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) isAtEnd() bool {
	return r.pos >= len(r.buf)
}

// peek returns the byte under the cursor without consuming it.
func (r *reader) peek() (byte, error) {
	if r.isAtEnd() {
		return 0, newSyntaxError(UnexpectedEOF, r.pos, "")
	}
	return r.buf[r.pos], nil
}

func (r *reader) expectByte(b byte) error {
	c, err := r.peek()
	if err != nil {
		return err
	}
	if c != b {
		return newSyntaxError(InvalidPrefix, r.pos, "expected %q got %q", b, c)
	}
	r.pos++
	return nil
}

// ReadInt reads i<digits>e.
func (r *reader) ReadInt() (int64, error) {
	start := r.pos
	if err := r.expectByte(intStart); err != nil {
		return 0, err
	}

	end := bytes.IndexByte(r.buf[r.pos:], bencodeEnd)
	if end < 0 {
		return 0, newSyntaxError(MissingTerminator, start, "integer is not terminated by 'e'")
	}
	span := r.buf[r.pos : r.pos+end]
	if err := checkIntSpan(span, r.pos); err != nil {
		return 0, err
	}

	num, err := strconv.ParseInt(string(span), 10, 64)
	if err != nil {
		return 0, newSyntaxError(InvalidInteger, r.pos, "%q does not fit in 64 bits", span)
	}
	r.pos += end + 1 // skip past 'e'

	return num, nil
}

func checkIntSpan(span []byte, pos int) error {
	if len(span) == 0 {
		return newSyntaxError(InvalidInteger, pos, "empty integer")
	}
	digits := span
	if span[0] == '-' {
		digits = span[1:]
		if len(digits) == 0 {
			return newSyntaxError(InvalidInteger, pos, "sign without digits")
		}
		if digits[0] == '0' {
			if len(digits) == 1 {
				return newSyntaxError(NegativeZero, pos, "")
			}
			return newSyntaxError(LeadingZero, pos, "%q", span)
		}
	} else if span[0] == '0' && len(span) > 1 {
		return newSyntaxError(LeadingZero, pos, "%q", span)
	}
	for i, c := range digits {
		if !isDigit(c) {
			return newSyntaxError(InvalidInteger, pos+len(span)-len(digits)+i, "unexpected %q", c)
		}
	}
	return nil
}

// ReadString reads <length>:<bytes>. The returned String owns its bytes.
func (r *reader) ReadString() (String, error) {
	start := r.pos
	colon := bytes.IndexByte(r.buf[r.pos:], bytesLengthSep)
	if colon < 0 {
		return "", newSyntaxError(MissingColon, start, "")
	}

	num := r.buf[r.pos : r.pos+colon]
	if len(num) == 0 {
		return "", newSyntaxError(InvalidLength, start, "empty length")
	}
	for _, c := range num {
		if !isDigit(c) {
			return "", newSyntaxError(InvalidLength, start, "%q is not a length", num)
		}
	}
	length, err := strconv.ParseInt(string(num), 10, 64)
	if err != nil {
		return "", newSyntaxError(InvalidLength, start, "%q is out of range", num)
	}

	dataStart := r.pos + colon + 1
	if length > int64(len(r.buf)-dataStart) {
		return "", newSyntaxError(ShortString, start, "declared %d bytes but only %d remain", length, len(r.buf)-dataStart)
	}
	dataEnd := dataStart + int(length)

	// converting to String copies, so the caller may reuse buf
	s := String(r.buf[dataStart:dataEnd])
	r.pos = dataEnd
	return s, nil
}
