package peer

import (
	"bytes"
	"fmt"
	"io"
)

const (
	BitTorrentProtocol = "BitTorrent protocol"
	HandshakeLength    = 1 + 19 + 8 + 20 + 20 // length + protocol string + reserved + hash + peerid
)

// Handshake is the first message on a connection. It has no length prefix.
type Handshake struct {
	Reserved [8]byte
	InfoHash [20]byte
	PeerID   [20]byte
}

// NewHandshake builds a handshake with all reserved bits cleared. Both
// arguments must be exactly 20 bytes.
func NewHandshake(infoHash, peerID []byte) (*Handshake, error) {
	if len(infoHash) != 20 {
		return nil, &FormatError{Kind: Malformed, Tag: HandshakeType, Msg: fmt.Sprintf("info hash must be 20 bytes, got %d", len(infoHash))}
	}
	if len(peerID) != 20 {
		return nil, &FormatError{Kind: Malformed, Tag: HandshakeType, Msg: fmt.Sprintf("peer id must be 20 bytes, got %d", len(peerID))}
	}

	var h Handshake
	copy(h.InfoHash[:], infoHash)
	copy(h.PeerID[:], peerID)
	return &h, nil
}

func (h *Handshake) message() {}

func (h *Handshake) Equal(m Message) bool {
	other, ok := m.(*Handshake)
	if !ok || other == nil {
		return false
	}

	return *h == *other
}

// SameTorrent reports whether other was sent for the same info hash.
func (h *Handshake) SameTorrent(other *Handshake) bool {
	return other != nil && h.InfoHash == other.InfoHash
}

func (h *Handshake) Tag() MessageTag { return HandshakeType }
func (h *Handshake) Len() uint32     { return HandshakeLength }
func (h *Handshake) Payload() []byte { return h.Bytes() }
func (h *Handshake) String() string {
	return fmt.Sprintf("Handshake <len=%04d><pstr=%s><reserved=%x><info-hash=%x><peer-id=%x>",
		HandshakeLength, BitTorrentProtocol, h.Reserved, h.InfoHash, h.PeerID)
}

func (h *Handshake) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(HandshakeLength)

	buf.WriteByte(byte(len(BitTorrentProtocol)))
	buf.WriteString(BitTorrentProtocol)
	buf.Write(h.Reserved[:])
	buf.Write(h.InfoHash[:])
	buf.Write(h.PeerID[:])

	return buf.Bytes()
}

// DecodeHandshake parses exactly HandshakeLength bytes.
func DecodeHandshake(data []byte) (*Handshake, error) {
	if len(data) != HandshakeLength {
		return nil, lengthError(HandshakeType, HandshakeLength, len(data))
	}
	buf := bytes.NewBuffer(data)

	b, _ := buf.ReadByte()
	length := int(b)
	if length != len(BitTorrentProtocol) {
		return nil, &FormatError{Kind: Malformed, Tag: HandshakeType, Msg: fmt.Sprintf("incorrect protocol length %d", length)}
	}

	proto := string(buf.Next(length))
	if proto != BitTorrentProtocol {
		return nil, &FormatError{Kind: Malformed, Tag: HandshakeType, Msg: fmt.Sprintf("incorrect protocol - expected %q got %q", BitTorrentProtocol, proto)}
	}

	var h Handshake
	copy(h.Reserved[:], buf.Next(8))
	copy(h.InfoHash[:], buf.Next(20))
	copy(h.PeerID[:], buf.Next(20))

	return &h, nil
}

// ReadHandshake reads a complete handshake from r.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	resp := [HandshakeLength]byte{}
	if _, err := io.ReadFull(r, resp[:]); err != nil {
		return nil, fmt.Errorf("handshake read failure: %w", err)
	}

	return DecodeHandshake(resp[:])
}
