package peer

import (
	"fmt"

	"github.com/burmudar/btcodec/pkg/bt"
)

// NewBitFieldFromPieces packs pieces into a bitfield, piece 0 in the high bit
// of the first byte. Spare bits in the last byte are zero.
func NewBitFieldFromPieces(pieces []bool) *BitField {
	field := make([]byte, bt.Ceil(len(pieces), 8))
	for i, has := range pieces {
		if has {
			field[i/8] |= 0x80 >> (i % 8)
		}
	}
	return &BitField{Field: field}
}

// Pieces expands every bit of the field, including spare bits.
func (b *BitField) Pieces() []bool {
	pieces := make([]bool, len(b.Field)*8)
	for i := range pieces {
		pieces[i] = b.Has(i)
	}
	return pieces
}

// Has reports whether piece i is set. Out of range pieces are never set.
func (b *BitField) Has(i int) bool {
	if i < 0 || i/8 >= len(b.Field) {
		return false
	}
	return b.Field[i/8]&(0x80>>(i%8)) != 0
}

// Validate checks the field against a torrent with pieceCount pieces: the
// length must be exactly ceil(pieceCount/8) and no spare bit may be set.
func (b *BitField) Validate(pieceCount int) error {
	want := bt.Ceil(pieceCount, 8)
	if len(b.Field) != want {
		return &FormatError{Kind: Malformed, Tag: BitFieldType, Want: want, Got: len(b.Field), Msg: "bitfield size does not match piece count"}
	}
	for i := pieceCount; i < want*8; i++ {
		if b.Has(i) {
			return &FormatError{Kind: Malformed, Tag: BitFieldType, Msg: fmt.Sprintf("spare bit %d is set", i)}
		}
	}
	return nil
}
