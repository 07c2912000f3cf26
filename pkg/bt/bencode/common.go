// Package bencode implements the bencoding format used by torrent metainfo
// files and tracker responses.
//
// Decoding produces an ordered Value tree: dictionaries keep the order their
// keys appeared in, and encoding a *Dict writes its keys back in that same
// order. Keys are never sorted on the way out, which keeps the info hash of a
// decoded torrent stable against the bytes it was read from.
//
// Integers are limited to the int64 range.
package bencode

const (
	intStart       = 'i'
	dictStart      = 'd'
	listStart      = 'l'
	bencodeEnd     = 'e'
	bytesLengthSep = ':'
)

// DefaultMaxDepth is the nesting limit used by Decode.
const DefaultMaxDepth = 1024

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
