package types_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
	"github.com/burmudar/btcodec/pkg/bt/types"
)

type Block struct {
	Idx    int
	Length int
}

func TorrentBlocksFor(m *types.Torrent, piece, blockSize int) []Block {
	var (
		blocks []Block
		length = m.LengthOf(piece)
	)

	for i := 0; i < length; i += blockSize {
		b := Block{i, blockSize}

		// if the next block will push us over the length it means we're at the last block
		// so subtract i, which is the last block from length to get the last block size
		if i+blockSize >= length {
			b.Length = length - i
		}

		blocks = append(blocks, b)
	}

	return blocks
}

// sampleTorrent encodes a single file torrent of length bytes.
func sampleTorrent(t *testing.T, length, pieceLength int) []byte {
	t.Helper()

	pieces := (length + pieceLength - 1) / pieceLength
	data, err := bencode.Encode(bencode.NewDict(
		bencode.Entry{Key: "announce", Value: bencode.String("http://bittorrent-test-tracker.codecrafters.io/announce")},
		bencode.Entry{Key: "created by", Value: bencode.String("mktorrent 1.1")},
		bencode.Entry{Key: "info", Value: bencode.NewDict(
			bencode.Entry{Key: "length", Value: bencode.Integer(length)},
			bencode.Entry{Key: "name", Value: bencode.String("sample.txt")},
			bencode.Entry{Key: "piece length", Value: bencode.Integer(pieceLength)},
			bencode.Entry{Key: "pieces", Value: bencode.String(bytes.Repeat([]byte{'h'}, 20*pieces))},
		)},
	))
	require.NoError(t, err)
	return data
}

func TestNewTorrent(t *testing.T) {
	require := require.New(t)

	data := sampleTorrent(t, 92063, 32768)
	torrent, err := types.NewTorrent(data)
	require.NoError(err)

	require.Equal("http://bittorrent-test-tracker.codecrafters.io/announce", torrent.Announce)
	require.Equal("mktorrent 1.1", torrent.CreatedBy)
	require.Equal("sample.txt", torrent.Name)
	require.Equal(92063, torrent.Length)
	require.Equal(32768, torrent.PieceLength)
	require.Equal(3, torrent.PieceCount())
	require.Equal(1, torrent.FileCount())
	require.Equal(bytes.Repeat([]byte{'h'}, 20), torrent.HashFor(2))
	require.Nil(torrent.HashFor(3))

	// the info dict must hash exactly as it appears in the file
	start := bytes.Index(data, []byte("4:infod")) + len("4:info")
	require.Equal(sha1.Sum(data[start:len(data)-1]), torrent.InfoHash())

	raw, err := bencode.Encode(torrent.Raw)
	require.NoError(err)
	require.Equal(data, raw)
}

func TestNewTorrentMultiFile(t *testing.T) {
	require := require.New(t)

	data := []byte("d8:announce3:url13:announce-listll1:ael1:b1:cee4:infod5:filesld6:lengthi3e4:pathl1:xeed6:lengthi5e4:pathl1:y1:zeee4:name3:dir12:piece lengthi4e6:pieces40:" +
		string(bytes.Repeat([]byte{'p'}, 40)) + "ee")
	torrent, err := types.NewTorrent(data)
	require.NoError(err)

	require.Equal([]string{"a", "b", "c"}, torrent.AnnounceList)
	require.Equal(8, torrent.Length)
	require.Equal(2, torrent.FileCount())
	require.Equal([]string{"y", "z"}, torrent.Files[1].Paths)
	require.Equal(4, torrent.LengthOf(0))
	require.Equal(4, torrent.LengthOf(1))
}

func TestNewTorrentValidation(t *testing.T) {
	require := require.New(t)

	data := []byte("d4:infod5:filesld4:pathl1:aeee12:piece lengthi0e6:pieces3:abcee")
	_, err := types.NewTorrent(data)
	require.ErrorIs(err, types.ErrInvalidTorrent)

	// announce, piece length, pieces and the file length are all reported
	errs := multierr.Errors(err)
	require.Len(errs, 4)

	var fieldErr *types.FieldError
	require.ErrorAs(errs[3], &fieldErr)
	require.Equal("info.files.0.length", fieldErr.Field)

	_, err = types.NewTorrent([]byte("d8:announce3:urle"))
	require.ErrorIs(err, types.ErrInvalidTorrent)

	_, err = types.NewTorrent([]byte("li1ee"))
	require.ErrorIs(err, types.ErrInvalidTorrent)

	_, err = types.NewTorrent([]byte("d8:announce"))
	require.ErrorIs(err, bencode.ErrSyntax)
}

func TestBlocks(t *testing.T) {
	tt := []struct {
		name        string
		length      int
		pieceLength int
	}{
		{"uneven last piece", 92063, 32768},
		{"even last piece", 65536, 32768},
		{"single short piece", 100, 262144},
		{"last block exact", 49152 + 16384, 49152},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			torrent, err := types.NewTorrent(sampleTorrent(t, tc.length, tc.pieceLength))
			if err != nil {
				t.Fatalf("failed to read torrent: %v", err)
			}

			lastPiece := len(torrent.PieceHashes) - 1

			blocks := TorrentBlocksFor(torrent, lastPiece, types.DefaultBlockSize)
			plan := torrent.BlockPlan(lastPiece, types.DefaultBlockSize)

			if len(blocks) != plan.NumBlocks {
				t.Fatalf("incorrect total blocks - wanted %d got %d", len(blocks), plan.NumBlocks)
			}

			lastBlock := blocks[len(blocks)-1]

			if lastBlock.Length != plan.LastBlockSize {
				t.Fatalf("incorrect last block size - wanted %d got %d", lastBlock.Length, plan.LastBlockSize)
			}

			if len(blocks)-1 != plan.LastBlockIndex {
				t.Fatalf("incorrect last block index - wanted %d got %d", len(blocks)-1, plan.LastBlockIndex)
			}

			lastPieceLength := torrent.LengthOf(lastPiece)
			if lastPieceLength != plan.PieceLength {
				t.Fatalf("incorrect last piece length - wanted %d got %d", lastPieceLength, plan.PieceLength)
			}

			reqs := plan.Requests()
			if len(reqs) != len(blocks) {
				t.Fatalf("incorrect request count - wanted %d got %d", len(blocks), len(reqs))
			}
			for i, req := range reqs {
				if int(req.Index) != lastPiece || int(req.Begin) != blocks[i].Idx || int(req.Length) != blocks[i].Length {
					t.Errorf("request %d does not match block %v: %v", i, blocks[i], req)
				}
			}
		})
	}
}

func TestBlockPlanDefaultsBlockSize(t *testing.T) {
	require := require.New(t)

	torrent, err := types.NewTorrent(sampleTorrent(t, 92063, 32768))
	require.NoError(err)

	for _, size := range []int{0, -1} {
		plan := torrent.BlockPlan(0, size)
		require.Equal(types.DefaultBlockSize, plan.BlockSize)
		require.Equal(2, plan.NumBlocks)
		require.Len(plan.Requests(), 2)
	}
}

func TestParsePeer(t *testing.T) {
	require := require.New(t)

	p, err := types.ParsePeer("178.62.82.89:51470")
	require.NoError(err)
	require.Equal(51470, p.Port)
	require.Equal("178.62.82.89:51470", p.String())

	p, err = types.ParsePeer("[::1]:6881")
	require.NoError(err)
	require.Equal("[::1]:6881", p.String())

	for _, bad := range []string{"178.62.82.89", "nope:1", "1.2.3.4:port", "1.2.3.4:70000"} {
		_, err := types.ParsePeer(bad)
		require.Error(err, bad)
	}
}

func TestSet(t *testing.T) {
	require := require.New(t)

	s := types.NewSet("a", "b")
	require.True(s.Put("c"))
	require.False(s.Put("a"))
	require.Equal(3, s.Len())
	require.ElementsMatch([]string{"a", "b", "c"}, s.All())

	s.Del("b")
	require.False(s.Has("b"))
	require.Equal(2, s.Len())
}

func TestLoader(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(os.WriteFile(path, data, 0o644))
		return path
	}

	paths := []string{
		write("one.torrent", sampleTorrent(t, 100, 64)),
		write("bad.torrent", []byte("d8:announce")),
		write("notes.txt", sampleTorrent(t, 100, 64)),
		write("two.torrent", sampleTorrent(t, 300, 64)),
		filepath.Join(dir, "missing.torrent"),
	}

	loader := types.NewLoader(2)
	defer loader.Close()

	torrents, err := loader.LoadAll(context.Background(), paths)
	require.Len(torrents, 2)
	require.Equal(100, torrents[0].Length)
	require.Equal(300, torrents[1].Length)

	var merr *multierror.Error
	require.True(errors.As(err, &merr))
	require.Len(merr.Errors, 3)
	require.ErrorIs(merr.Errors[0], bencode.ErrSyntax)
	require.ErrorIs(merr.Errors[2], os.ErrNotExist)

	_, err = types.LoadTorrent(paths[2])
	require.Error(err)

	single, err := types.LoadTorrent(paths[0])
	require.NoError(err)
	require.Equal(torrents[0].InfoHash(), single.InfoHash())
}

func TestLoaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := types.NewLoader(1)
	defer loader.Close()

	_, err := loader.LoadAll(ctx, []string{"a.torrent"})
	require.ErrorIs(t, err, context.Canceled)
}
