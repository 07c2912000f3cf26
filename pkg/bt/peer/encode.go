package peer

import (
	"fmt"
	"io"
)

// EncodeMessage returns the wire form of m. For a handshake that is the 68
// byte record, for everything else a length prefixed frame.
func EncodeMessage(m Message) []byte {
	return m.Bytes()
}

func WriteMessage(w io.Writer, msg Message) error {
	data := EncodeMessage(msg)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", msg.Tag(), err)
	}

	return nil
}
