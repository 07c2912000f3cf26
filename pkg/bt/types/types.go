package types

import (
	"fmt"
	"net"
	"strconv"

	"github.com/burmudar/btcodec/pkg/bt"
	"github.com/burmudar/btcodec/pkg/bt/bencode"
	"github.com/burmudar/btcodec/pkg/bt/peer"
)

// DefaultBlockSize is the block size nearly every client requests: 16 KiB.
const DefaultBlockSize = 16 * 1024

// HashLength is the size of a SHA-1 piece hash.
const HashLength = 20

type FileInfo struct {
	Length int
	Paths  []string
}

type BlockPlan struct {
	PieceIndex     int
	PieceLength    int
	NumBlocks      int
	BlockSize      int
	LastBlockIndex int
	LastBlockSize  int
}

type Torrent struct {
	Announce     string
	AnnounceList []string
	CreatedBy    string
	Name         string
	PieceLength  int
	PieceHashes  [][HashLength]byte
	// Length is the total size of the content. For multi file torrents it is
	// the sum of all file lengths.
	Length int
	Files  []*FileInfo
	// Raw is the decoded metainfo dictionary, in its original key order.
	Raw *bencode.Dict

	hash [20]byte
}

type Peer struct {
	IP   net.IP
	Port int
	ID   string
}

// ParsePeer parses a "host:port" pair. IPv6 hosts must be bracketed.
func ParsePeer(v string) (*Peer, error) {
	host, rawPort, err := net.SplitHostPort(v)
	if err != nil {
		return nil, fmt.Errorf("malformed peer value - expected IP:PORT format, got %q: %w", v, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("malformed peer value - cannot parse ip %q", host)
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("malformed peer value - cannot convert port value %q", rawPort)
	}

	return &Peer{
		IP:   ip,
		Port: port,
	}, nil
}

func (p *Peer) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(p.Port))
}

// InfoHash is the SHA-1 of the bencoded info dictionary.
func (m *Torrent) InfoHash() [20]byte {
	return m.hash
}

func (m *Torrent) PieceCount() int {
	return len(m.PieceHashes)
}

// FileCount is 1 for single file torrents.
func (m *Torrent) FileCount() int {
	if len(m.Files) == 0 {
		return 1
	}
	return len(m.Files)
}

// LengthOf returns the size of piece p. Only the last piece can be shorter
// than PieceLength.
func (m *Torrent) LengthOf(p int) int {
	if p < 0 || p >= len(m.PieceHashes) {
		return 0
	}
	if p == len(m.PieceHashes)-1 {
		if rem := m.Length % m.PieceLength; rem != 0 {
			return rem
		}
	}
	return m.PieceLength
}

func (m *Torrent) HashFor(p int) []byte {
	if p < 0 || p >= len(m.PieceHashes) {
		return nil
	}

	return m.PieceHashes[p][:]
}

// BlockPlan splits piece pIndex into blocks of blockSize bytes. A blockSize
// that is not positive means DefaultBlockSize.
func (m *Torrent) BlockPlan(pIndex, blockSize int) *BlockPlan {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	pieceLength := m.LengthOf(pIndex)

	numBlocks := bt.Ceil(pieceLength, blockSize)
	lastBlockSize := blockSize
	if rem := pieceLength % blockSize; rem != 0 {
		lastBlockSize = rem
	}

	return &BlockPlan{
		PieceIndex:     pIndex,
		PieceLength:    pieceLength,
		NumBlocks:      numBlocks,
		BlockSize:      blockSize,
		LastBlockIndex: numBlocks - 1,
		LastBlockSize:  lastBlockSize,
	}
}

func (p *BlockPlan) BlockLengthFor(blockIndex int) int {
	if blockIndex == p.LastBlockIndex {
		return p.LastBlockSize
	}

	return p.BlockSize
}

// Requests returns one request message per block of the piece.
func (p *BlockPlan) Requests() []*peer.PieceRequest {
	reqs := make([]*peer.PieceRequest, 0, p.NumBlocks)
	for i := 0; i < p.NumBlocks; i++ {
		reqs = append(reqs, &peer.PieceRequest{
			Index:  uint32(p.PieceIndex),
			Begin:  uint32(i * p.BlockSize),
			Length: uint32(p.BlockLengthFor(i)),
		})
	}
	return reqs
}
