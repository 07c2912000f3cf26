package types

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/puddle"
	"golang.org/x/sync/errgroup"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
)

const TorrentExt = ".torrent"

// LoadTorrent reads and decodes a single .torrent file.
func LoadTorrent(path string) (*Torrent, error) {
	if err := checkExt(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := NewTorrent(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func checkExt(path string) error {
	if ext := filepath.Ext(path); ext != TorrentExt {
		return fmt.Errorf("%s: unsupported file extension %q - expected %q", path, ext, TorrentExt)
	}
	return nil
}

// Loader decodes many torrent files concurrently. At most size files are read
// at a time, each through a read buffer borrowed from a pool.
type Loader struct {
	size    int
	decoder *bencode.Decoder
	buffers *puddle.Pool
}

func NewLoader(size int, opts ...bencode.DecoderOption) *Loader {
	if size < 1 {
		size = 1
	}

	constructor := func(context.Context) (interface{}, error) {
		return new(bytes.Buffer), nil
	}
	destructor := func(interface{}) {}

	return &Loader{
		size:    size,
		decoder: bencode.NewDecoder(opts...),
		buffers: puddle.NewPool(constructor, destructor, int32(size)),
	}
}

// LoadAll loads every path. Torrents that loaded are returned in the order of
// paths. Each failed path contributes one error to the returned
// *multierror.Error. A cancelled ctx stops the remaining loads.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]*Torrent, error) {
	results := make([]*Torrent, len(paths))
	failures := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.size)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := l.buffers.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("failed to acquire read buffer for %s: %w", path, err)
			}
			defer res.Release()

			results[i], failures[i] = l.load(res.Value().(*bytes.Buffer), path)
			return nil
		})
	}

	var allErrs *multierror.Error
	if err := g.Wait(); err != nil {
		allErrs = multierror.Append(allErrs, err)
	}

	loaded := make([]*Torrent, 0, len(paths))
	for i := range paths {
		if failures[i] != nil {
			allErrs = multierror.Append(allErrs, failures[i])
			continue
		}
		if results[i] != nil {
			loaded = append(loaded, results[i])
		}
	}

	return loaded, allErrs.ErrorOrNil()
}

func (l *Loader) load(buf *bytes.Buffer, path string) (*Torrent, error) {
	if err := checkExt(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf.Reset()
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: read failure: %w", path, err)
	}

	// the decoder copies every string so the buffer can be reused afterwards
	t, err := decodeTorrent(l.decoder, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Close releases the pooled buffers. The Loader must not be used afterwards.
func (l *Loader) Close() {
	l.buffers.Close()
}
