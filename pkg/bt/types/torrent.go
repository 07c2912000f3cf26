package types

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
)

var ErrInvalidTorrent = errors.New("invalid torrent")

// FieldError describes one problem with a metainfo field. Field is the dotted
// path to the value, e.g. "info.files.2.length".
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %q %s", ErrInvalidTorrent, e.Field, e.Msg)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidTorrent
}

type metaInfo struct {
	Announce     string     `bencode:"announce"`
	AnnounceList [][]string `bencode:"announce-list"`
	CreatedBy    string     `bencode:"created by"`
	Info         infoDict   `bencode:"info"`
}

type infoDict struct {
	Name        string     `bencode:"name"`
	PieceLength int        `bencode:"piece length"`
	Pieces      []byte     `bencode:"pieces"`
	Length      int        `bencode:"length"`
	Files       []fileDict `bencode:"files"`
}

type fileDict struct {
	Length int      `bencode:"length"`
	Path   []string `bencode:"path"`
}

// NewTorrent decodes and validates a metainfo file.
func NewTorrent(data []byte) (*Torrent, error) {
	return decodeTorrent(bencode.NewDecoder(), data)
}

func decodeTorrent(dec *bencode.Decoder, data []byte) (*Torrent, error) {
	v, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode torrent: %w", err)
	}
	return TorrentFromValue(v)
}

// TorrentFromValue builds a Torrent from an already decoded metainfo value.
// Every validation problem is reported, combined with multierr.
func TorrentFromValue(v bencode.Value) (*Torrent, error) {
	if err := validate(v); err != nil {
		return nil, err
	}
	raw := v.(*bencode.Dict)

	var meta metaInfo
	if err := bencode.UnmarshalValue(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTorrent, err)
	}

	var m Torrent
	m.Raw = raw
	m.Announce = meta.Announce
	m.CreatedBy = meta.CreatedBy
	for _, tier := range meta.AnnounceList {
		m.AnnounceList = append(m.AnnounceList, tier...)
	}

	m.Name = meta.Info.Name
	m.PieceLength = meta.Info.PieceLength
	m.PieceHashes = make([][HashLength]byte, len(meta.Info.Pieces)/HashLength)
	for i := range m.PieceHashes {
		copy(m.PieceHashes[i][:], meta.Info.Pieces[i*HashLength:])
	}

	if len(meta.Info.Files) == 0 {
		m.Length = meta.Info.Length
	} else {
		m.Files = make([]*FileInfo, 0, len(meta.Info.Files))
		for _, f := range meta.Info.Files {
			m.Files = append(m.Files, &FileInfo{Length: f.Length, Paths: f.Path})
			m.Length += f.Length
		}
	}

	info, _ := raw.GetDict("info")
	h, err := hash(info)
	if err != nil {
		return nil, err
	}
	m.hash = h

	return &m, nil
}

func hash(info *bencode.Dict) ([20]byte, error) {
	data, err := bencode.Encode(info)
	if err != nil {
		return [20]byte{}, fmt.Errorf("failed to encode info dict: %w", err)
	}
	return sha1.Sum(data), nil
}

func validate(v bencode.Value) error {
	dict, ok := v.(*bencode.Dict)
	if !ok {
		return &FieldError{Field: "", Msg: "must be a dictionary"}
	}

	var errs error
	if _, ok := dict.GetString("announce"); !ok {
		errs = multierr.Append(errs, &FieldError{Field: "announce", Msg: "must be a string"})
	}
	if dict.Has("announce-list") {
		errs = multierr.Append(errs, validateAnnounceList(dict))
	}

	info, ok := dict.GetDict("info")
	if !ok {
		return multierr.Append(errs, &FieldError{Field: "info", Msg: "must be a dictionary"})
	}

	if n, ok := info.GetInteger("piece length"); !ok || n <= 0 {
		errs = multierr.Append(errs, &FieldError{Field: "info.piece length", Msg: "must be a positive integer"})
	}
	if pieces, ok := info.GetString("pieces"); !ok || len(pieces)%HashLength != 0 {
		errs = multierr.Append(errs, &FieldError{Field: "info.pieces", Msg: fmt.Sprintf("must be a string of %d byte hashes", HashLength)})
	}
	if info.Has("name") {
		if _, ok := info.GetString("name"); !ok {
			errs = multierr.Append(errs, &FieldError{Field: "info.name", Msg: "must be a string"})
		}
	}

	switch {
	case info.Has("length"):
		if n, ok := info.GetInteger("length"); !ok || n < 0 {
			errs = multierr.Append(errs, &FieldError{Field: "info.length", Msg: "must be a non-negative integer"})
		}
	case info.Has("files"):
		errs = multierr.Append(errs, validateFiles(info))
	default:
		errs = multierr.Append(errs, &FieldError{Field: "info", Msg: "must contain either length or files"})
	}

	return errs
}

func validateAnnounceList(dict *bencode.Dict) error {
	tiers, ok := dict.GetList("announce-list")
	if !ok {
		return &FieldError{Field: "announce-list", Msg: "must be a list"}
	}

	var errs error
	for i, t := range tiers.Values() {
		field := fmt.Sprintf("announce-list.%d", i)
		tier, ok := t.(*bencode.List)
		if !ok {
			errs = multierr.Append(errs, &FieldError{Field: field, Msg: "must be a list"})
			continue
		}
		for _, url := range tier.Values() {
			if _, ok := url.(bencode.String); !ok {
				errs = multierr.Append(errs, &FieldError{Field: field, Msg: "must only contain strings"})
				break
			}
		}
	}
	return errs
}

func validateFiles(info *bencode.Dict) error {
	files, ok := info.GetList("files")
	if !ok {
		return &FieldError{Field: "info.files", Msg: "must be a list"}
	}
	if files.Len() == 0 {
		return &FieldError{Field: "info.files", Msg: "must not be empty"}
	}

	var errs error
	for i, f := range files.Values() {
		field := fmt.Sprintf("info.files.%d", i)
		file, ok := f.(*bencode.Dict)
		if !ok {
			errs = multierr.Append(errs, &FieldError{Field: field, Msg: "must be a dictionary"})
			continue
		}

		if n, ok := file.GetInteger("length"); !ok || n < 0 {
			errs = multierr.Append(errs, &FieldError{Field: field + ".length", Msg: "must be a non-negative integer"})
		}

		path, ok := file.GetList("path")
		if !ok || path.Len() == 0 {
			errs = multierr.Append(errs, &FieldError{Field: field + ".path", Msg: "must be a non-empty list"})
			continue
		}
		for _, p := range path.Values() {
			if _, ok := p.(bencode.String); !ok {
				errs = multierr.Append(errs, &FieldError{Field: field + ".path", Msg: "must only contain strings"})
				break
			}
		}
	}
	return errs
}
