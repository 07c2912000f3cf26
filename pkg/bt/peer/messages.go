package peer

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	ChokeType         MessageTag = 0
	UnchokeType       MessageTag = 1
	InterestedType    MessageTag = 2
	NotInterestedType MessageTag = 3
	HaveType          MessageTag = 4
	BitFieldType      MessageTag = 5
	RequestType       MessageTag = 6
	PieceType         MessageTag = 7
	CancelType        MessageTag = 8
	PortType          MessageTag = 9

	// pseudo tags, never sent on the wire
	HandshakeType MessageTag = 98
	KeepAliveType MessageTag = 99
)

// lengthPrefix is the size of the big-endian length field that starts every
// message except the handshake.
const lengthPrefix = 4

type MessageTag uint8

var tagNames = map[MessageTag]string{
	ChokeType:         "Choke",
	UnchokeType:       "Unchoke",
	InterestedType:    "Interested",
	NotInterestedType: "NotInterested",
	HaveType:          "Have",
	BitFieldType:      "BitField",
	RequestType:       "PieceRequest",
	PieceType:         "PieceBlock",
	CancelType:        "Cancel",
	PortType:          "Port",
	HandshakeType:     "Handshake",
	KeepAliveType:     "KeepAlive",
}

func (t MessageTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("MessageTag(%d)", uint8(t))
}

// Message is implemented by the handshake, the keep-alive and the nine
// ID-tagged peer wire messages. The set is closed.
type Message interface {
	Tag() MessageTag
	// Len is the value of the message's length field. For a handshake it is
	// the full 68 bytes.
	Len() uint32
	// Payload is everything after the ID byte. A handshake has no ID byte, so
	// its Payload is the whole record, same as Bytes.
	Payload() []byte
	// Bytes is the complete frame as sent on the wire.
	Bytes() []byte
	Equal(m Message) bool
	String() string

	message()
}

type KeepAlive struct{}
type Choke struct{}
type Unchoke struct{}
type Interested struct{}
type NotInterested struct{}

type Have struct {
	// Index is the zero based index of the piece
	Index uint32
}

// BitField lists the pieces a peer has. The high bit of the first byte is
// piece 0.
type BitField struct {
	Field []byte
}

type PieceRequest struct {
	// Index is the zero index of the piece
	Index uint32
	// Begin is the zero based offset of with in the piece
	Begin uint32
	// Length is the length of the block in bytes
	Length uint32
}

type PieceBlock struct {
	// Index is the zero index of the piece
	Index uint32
	// Begin is the zero based offset of with in the piece
	Begin uint32
	// Data is the block itself
	Data []byte
}

// Cancel withdraws a previously sent PieceRequest.
type Cancel struct {
	Index  uint32
	Begin  uint32
	Length uint32
}

// Port announces the port a peer's DHT node listens on.
type Port struct {
	Port uint16
}

// frame lays out <length><id><payload>.
func frame(tag MessageTag, payload []byte) []byte {
	data := make([]byte, lengthPrefix+1+len(payload))
	binary.BigEndian.PutUint32(data, uint32(1+len(payload)))
	data[lengthPrefix] = byte(tag)
	copy(data[lengthPrefix+1:], payload)
	return data
}

func describe(m Message, fields string) string {
	return fmt.Sprintf("%s <len=%04d><id=%d>%s", m.Tag(), m.Len(), uint8(m.Tag()), fields)
}

func (*KeepAlive) message()     {}
func (*Choke) message()         {}
func (*Unchoke) message()       {}
func (*Interested) message()    {}
func (*NotInterested) message() {}
func (*Have) message()          {}
func (*BitField) message()      {}
func (*PieceRequest) message()  {}
func (*PieceBlock) message()    {}
func (*Cancel) message()        {}
func (*Port) message()          {}

func (k *KeepAlive) Equal(m Message) bool {
	_, ok := m.(*KeepAlive)
	return ok
}
func (k *KeepAlive) Tag() MessageTag { return KeepAliveType }
func (k *KeepAlive) Len() uint32     { return 0 }
func (k *KeepAlive) Payload() []byte { return nil }
func (k *KeepAlive) Bytes() []byte   { return make([]byte, lengthPrefix) }
func (k *KeepAlive) String() string  { return "KeepAlive <len=0000>" }

func (c *Choke) Equal(m Message) bool {
	_, ok := m.(*Choke)
	return ok
}
func (c *Choke) Tag() MessageTag { return ChokeType }
func (c *Choke) Len() uint32     { return 1 }
func (c *Choke) Payload() []byte { return nil }
func (c *Choke) Bytes() []byte   { return frame(c.Tag(), nil) }
func (c *Choke) String() string  { return describe(c, "") }

func (u *Unchoke) Equal(m Message) bool {
	_, ok := m.(*Unchoke)
	return ok
}
func (u *Unchoke) Tag() MessageTag { return UnchokeType }
func (u *Unchoke) Len() uint32     { return 1 }
func (u *Unchoke) Payload() []byte { return nil }
func (u *Unchoke) Bytes() []byte   { return frame(u.Tag(), nil) }
func (u *Unchoke) String() string  { return describe(u, "") }

func (i *Interested) Equal(m Message) bool {
	_, ok := m.(*Interested)
	return ok
}
func (i *Interested) Tag() MessageTag { return InterestedType }
func (i *Interested) Len() uint32     { return 1 }
func (i *Interested) Payload() []byte { return nil }
func (i *Interested) Bytes() []byte   { return frame(i.Tag(), nil) }
func (i *Interested) String() string  { return describe(i, "") }

func (n *NotInterested) Equal(m Message) bool {
	_, ok := m.(*NotInterested)
	return ok
}
func (n *NotInterested) Tag() MessageTag { return NotInterestedType }
func (n *NotInterested) Len() uint32     { return 1 }
func (n *NotInterested) Payload() []byte { return nil }
func (n *NotInterested) Bytes() []byte   { return frame(n.Tag(), nil) }
func (n *NotInterested) String() string  { return describe(n, "") }

func (h *Have) Equal(m Message) bool {
	v, ok := m.(*Have)
	return ok && v != nil && v.Index == h.Index
}
func (h *Have) Tag() MessageTag { return HaveType }
func (h *Have) Len() uint32     { return 5 }
func (h *Have) Bytes() []byte   { return frame(h.Tag(), h.Payload()) }
func (h *Have) String() string  { return describe(h, fmt.Sprintf("<index=%d>", h.Index)) }
func (h *Have) Payload() []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data[0:4], h.Index)
	return data
}

func (b *BitField) Equal(m Message) bool {
	v, ok := m.(*BitField)
	return ok && v != nil && bytes.Equal(b.Field, v.Field)
}
func (b *BitField) Tag() MessageTag { return BitFieldType }
func (b *BitField) Len() uint32     { return uint32(1 + len(b.Field)) }
func (b *BitField) Payload() []byte { return bytes.Clone(b.Field) }
func (b *BitField) Bytes() []byte   { return frame(b.Tag(), b.Field) }
func (b *BitField) String() string  { return describe(b, fmt.Sprintf("<bitfield=%x>", b.Field)) }

func (r *PieceRequest) Equal(m Message) bool {
	v, ok := m.(*PieceRequest)
	if !ok || v == nil {
		return false
	}

	return v.Index == r.Index && v.Begin == r.Begin && v.Length == r.Length
}
func (r *PieceRequest) Tag() MessageTag { return RequestType }
func (r *PieceRequest) Len() uint32     { return 13 }
func (r *PieceRequest) Bytes() []byte   { return frame(r.Tag(), r.Payload()) }
func (r *PieceRequest) String() string {
	return describe(r, fmt.Sprintf("<index=%d><begin=%d><length=%d>", r.Index, r.Begin, r.Length))
}
func (r *PieceRequest) Payload() []byte {
	return putBlockRef(r.Index, r.Begin, r.Length)
}

func (p *PieceBlock) Equal(m Message) bool {
	v, ok := m.(*PieceBlock)
	if !ok || v == nil {
		return false
	}

	return v.Index == p.Index && v.Begin == p.Begin && bytes.Equal(v.Data, p.Data)
}
func (p *PieceBlock) Tag() MessageTag { return PieceType }
func (p *PieceBlock) Len() uint32     { return uint32(9 + len(p.Data)) }
func (p *PieceBlock) Bytes() []byte   { return frame(p.Tag(), p.Payload()) }
func (p *PieceBlock) String() string {
	return describe(p, fmt.Sprintf("<index=%d><begin=%d><block=%d bytes>", p.Index, p.Begin, len(p.Data)))
}
func (p *PieceBlock) Payload() []byte {
	data := make([]byte, 8+len(p.Data))
	binary.BigEndian.PutUint32(data[0:4], p.Index)
	binary.BigEndian.PutUint32(data[4:8], p.Begin)
	copy(data[8:], p.Data)
	return data
}

func (c *Cancel) Equal(m Message) bool {
	v, ok := m.(*Cancel)
	if !ok || v == nil {
		return false
	}

	return v.Index == c.Index && v.Begin == c.Begin && v.Length == c.Length
}
func (c *Cancel) Tag() MessageTag { return CancelType }
func (c *Cancel) Len() uint32     { return 13 }
func (c *Cancel) Bytes() []byte   { return frame(c.Tag(), c.Payload()) }
func (c *Cancel) String() string {
	return describe(c, fmt.Sprintf("<index=%d><begin=%d><length=%d>", c.Index, c.Begin, c.Length))
}
func (c *Cancel) Payload() []byte {
	return putBlockRef(c.Index, c.Begin, c.Length)
}

func (p *Port) Equal(m Message) bool {
	v, ok := m.(*Port)
	return ok && v != nil && v.Port == p.Port
}
func (p *Port) Tag() MessageTag { return PortType }
func (p *Port) Len() uint32     { return 3 }
func (p *Port) Bytes() []byte   { return frame(p.Tag(), p.Payload()) }
func (p *Port) String() string  { return describe(p, fmt.Sprintf("<listen-port=%d>", p.Port)) }
func (p *Port) Payload() []byte {
	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, p.Port)
	return data
}

func putBlockRef(index, begin, length uint32) []byte {
	data := make([]byte, 12)
	binary.BigEndian.PutUint32(data[0:4], index)
	binary.BigEndian.PutUint32(data[4:8], begin)
	binary.BigEndian.PutUint32(data[8:12], length)
	return data
}
