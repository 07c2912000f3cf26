package peer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameLength bounds the length field accepted by ReadFrame: a 1 MiB
// block plus the piece message header.
const MaxFrameLength = 1<<20 + 9

type decodeFunc func(data []byte) (Message, error)

func as[M Message](fn func([]byte) (M, error)) decodeFunc {
	return func(data []byte) (Message, error) {
		m, err := fn(data)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// decoders maps every wire ID to its decoder. Index is the ID.
var decoders = [...]decodeFunc{
	ChokeType:         as(DecodeChoke),
	UnchokeType:       as(DecodeUnchoke),
	InterestedType:    as(DecodeInterested),
	NotInterestedType: as(DecodeNotInterested),
	HaveType:          as(DecodeHave),
	BitFieldType:      as(DecodeBitField),
	RequestType:       as(DecodePieceRequest),
	PieceType:         as(DecodePiece),
	CancelType:        as(DecodeCancel),
	PortType:          as(DecodePort),
}

// DecodeMessage classifies a complete frame and decodes it.
//
// A frame of exactly four bytes is a keep-alive. A frame whose first byte is
// 19 is treated as a handshake; that only holds for the first message of a
// connection, since a length prefix can also start with 19.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) < lengthPrefix {
		return nil, &FormatError{Kind: TooShort, Msg: fmt.Sprintf("need at least %d bytes, got %d", lengthPrefix, len(data))}
	}
	if len(data) == lengthPrefix {
		return &KeepAlive{}, nil
	}
	if data[0] == byte(len(BitTorrentProtocol)) {
		return as(DecodeHandshake)(data)
	}
	return decodeFrame(data)
}

// decodeFrame dispatches on the ID byte of a frame longer than four bytes.
func decodeFrame(data []byte) (Message, error) {
	tag := MessageTag(data[lengthPrefix])
	if int(tag) >= len(decoders) {
		return nil, &FormatError{Kind: UnknownID, Tag: tag, Msg: fmt.Sprintf("id %d", uint8(tag))}
	}
	return decoders[tag](data)
}

// checkFixed validates a frame whose size is known ahead of time.
func checkFixed(tag MessageTag, data []byte, length uint32) error {
	want := lengthPrefix + int(length)
	if len(data) != want {
		return lengthError(tag, want, len(data))
	}
	if err := checkID(tag, data); err != nil {
		return err
	}
	if got := binary.BigEndian.Uint32(data[0:4]); got != length {
		return &FormatError{Kind: Malformed, Tag: tag, Msg: fmt.Sprintf("length field is %d, expected %d", got, length)}
	}
	return nil
}

// checkVariable validates the ID and the minimum size of a frame with a
// trailing payload. The payload runs to the end of data.
func checkVariable(tag MessageTag, data []byte, header int) error {
	if len(data) < lengthPrefix+header {
		return lengthError(tag, lengthPrefix+header, len(data))
	}
	return checkID(tag, data)
}

func checkID(tag MessageTag, data []byte) error {
	if id := MessageTag(data[lengthPrefix]); id != tag {
		return &FormatError{Kind: Malformed, Tag: tag, Msg: fmt.Sprintf("unexpected id %d", uint8(id))}
	}
	return nil
}

// DecodeKeepAlive accepts any four byte frame.
func DecodeKeepAlive(data []byte) (*KeepAlive, error) {
	if len(data) != lengthPrefix {
		return nil, lengthError(KeepAliveType, lengthPrefix, len(data))
	}
	return &KeepAlive{}, nil
}

func DecodeChoke(data []byte) (*Choke, error) {
	if err := checkFixed(ChokeType, data, 1); err != nil {
		return nil, err
	}
	return &Choke{}, nil
}

func DecodeUnchoke(data []byte) (*Unchoke, error) {
	if err := checkFixed(UnchokeType, data, 1); err != nil {
		return nil, err
	}
	return &Unchoke{}, nil
}

func DecodeInterested(data []byte) (*Interested, error) {
	if err := checkFixed(InterestedType, data, 1); err != nil {
		return nil, err
	}
	return &Interested{}, nil
}

func DecodeNotInterested(data []byte) (*NotInterested, error) {
	if err := checkFixed(NotInterestedType, data, 1); err != nil {
		return nil, err
	}
	return &NotInterested{}, nil
}

func DecodeHave(data []byte) (*Have, error) {
	if err := checkFixed(HaveType, data, 5); err != nil {
		return nil, err
	}
	return &Have{Index: binary.BigEndian.Uint32(data[5:9])}, nil
}

func DecodeBitField(data []byte) (*BitField, error) {
	if err := checkVariable(BitFieldType, data, 1); err != nil {
		return nil, err
	}
	return &BitField{Field: bytes.Clone(data[5:])}, nil
}

func DecodePieceRequest(data []byte) (*PieceRequest, error) {
	if err := checkFixed(RequestType, data, 13); err != nil {
		return nil, err
	}
	var req PieceRequest
	req.Index = binary.BigEndian.Uint32(data[5:9])   // 4 bytes
	req.Begin = binary.BigEndian.Uint32(data[9:13])  // 4 bytes
	req.Length = binary.BigEndian.Uint32(data[13:17]) // 4 bytes

	return &req, nil
}

func DecodePiece(data []byte) (*PieceBlock, error) {
	if err := checkVariable(PieceType, data, 9); err != nil {
		return nil, err
	}
	var block PieceBlock
	block.Index = binary.BigEndian.Uint32(data[5:9])  // 4 bytes
	block.Begin = binary.BigEndian.Uint32(data[9:13]) // 4 bytes

	block.Data = bytes.Clone(data[13:])
	if block.Data == nil {
		block.Data = []byte{}
	}
	return &block, nil
}

func DecodeCancel(data []byte) (*Cancel, error) {
	if err := checkFixed(CancelType, data, 13); err != nil {
		return nil, err
	}
	return &Cancel{
		Index:  binary.BigEndian.Uint32(data[5:9]),
		Begin:  binary.BigEndian.Uint32(data[9:13]),
		Length: binary.BigEndian.Uint32(data[13:17]),
	}, nil
}

func DecodePort(data []byte) (*Port, error) {
	if err := checkFixed(PortType, data, 3); err != nil {
		return nil, err
	}
	return &Port{Port: binary.BigEndian.Uint16(data[5:7])}, nil
}

// ReadFrame reads one length prefixed frame from r. The returned slice
// includes the prefix and is ready for DecodeMessage.
func ReadFrame(r io.Reader) ([]byte, error) {
	prefix := make([]byte, lengthPrefix)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(prefix)
	if length > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, MaxFrameLength)
	}

	data := make([]byte, lengthPrefix+int(length))
	copy(data, prefix)
	if _, err := io.ReadFull(r, data[lengthPrefix:]); err != nil {
		return nil, fmt.Errorf("frame payload read failure: %w", err)
	}
	return data, nil
}

// ReadMessage reads and decodes the next message after the handshake. Unlike
// DecodeMessage it never treats a frame as a handshake.
func ReadMessage(r io.Reader) (Message, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	if len(data) == lengthPrefix {
		return &KeepAlive{}, nil
	}
	return decodeFrame(data)
}
