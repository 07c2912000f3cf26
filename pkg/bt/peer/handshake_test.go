package peer

import (
	"bytes"
	"errors"
	"testing"
)

func testHandshake(t *testing.T) *Handshake {
	t.Helper()
	h, err := NewHandshake(bytes.Repeat([]byte{0xab}, 20), []byte("-BT0001-123456789012"))
	if err != nil {
		t.Fatalf("failed to create handshake: %v", err)
	}
	return h
}

func TestHandshakeBytes(t *testing.T) {
	h := testHandshake(t)
	data := h.Bytes()

	if len(data) != HandshakeLength {
		t.Fatalf("wrong handshake length - expected %d got %d", HandshakeLength, len(data))
	}
	if data[0] != 19 || string(data[1:20]) != BitTorrentProtocol {
		t.Errorf("wrong protocol header: %q", data[:20])
	}
	if !bytes.Equal(make([]byte, 8), data[20:28]) {
		t.Errorf("reserved bytes should be zero: %x", data[20:28])
	}
	if !bytes.Equal(h.InfoHash[:], data[28:48]) || !bytes.Equal(h.PeerID[:], data[48:68]) {
		t.Errorf("info hash or peer id in the wrong place: %x", data)
	}
	if !bytes.Equal(data, h.Payload()) {
		t.Errorf("handshake payload should be the whole record")
	}
}

func TestHandshakeRoundTrip(t *testing.T) {
	h := testHandshake(t)
	h.Reserved[5] = 0x10

	msg, err := DecodeMessage(h.Bytes())
	if err != nil {
		t.Fatalf("failed to decode handshake: %v", err)
	}
	if msg.Tag() != HandshakeType {
		t.Fatalf("expected handshake, got %s", msg.Tag())
	}
	if !msg.Equal(h) {
		t.Errorf("handshake not equal after round trip: %v != %v", msg, h)
	}

	other, err := ReadHandshake(bytes.NewReader(h.Bytes()))
	if err != nil {
		t.Fatalf("failed to read handshake: %v", err)
	}
	if !other.SameTorrent(h) {
		t.Errorf("expected same torrent")
	}
}

func TestHandshakeErrors(t *testing.T) {
	if _, err := NewHandshake(make([]byte, 19), make([]byte, 20)); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected malformed error for short info hash, got %v", err)
	}
	if _, err := NewHandshake(make([]byte, 20), make([]byte, 21)); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected malformed error for long peer id, got %v", err)
	}

	data := testHandshake(t).Bytes()
	data[1] = 'b'
	if _, err := DecodeHandshake(data); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected malformed error for wrong protocol, got %v", err)
	}

	if _, err := ReadHandshake(bytes.NewReader(data[:40])); err == nil {
		t.Errorf("expected error for truncated handshake")
	}
}
