// Package tracker builds HTTP tracker announce requests and decodes their
// responses. It never performs the request itself.
package tracker

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
	"github.com/burmudar/btcodec/pkg/bt/types"
)

var (
	ErrMalformedResponse = errors.New("malformed tracker response")
	ErrScrapeUnsupported = errors.New("tracker does not support scrape")
)

// FailureError carries the tracker's "failure reason".
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("tracker failure: %s", e.Reason)
}

type Event string

const (
	EventNone      Event = ""
	EventStarted   Event = "started"
	EventCompleted Event = "completed"
	EventStopped   Event = "stopped"
)

const (
	compactPeerLength  = 6
	compactPeer6Length = 18
)

type PeersRequest struct {
	Announce string
	// InfoHash is the SHA-1 of the info dict, sent as raw bytes
	InfoHash [20]byte
	// PeerID must be 20 bytes
	PeerID     string
	Port       int
	Uploaded   int64
	Downloaded int64
	Left       int64
	// Compact asks for the 6 byte per peer representation
	Compact bool
	Event   Event
}

// NewPeersRequest announces t with nothing downloaded yet.
func NewPeersRequest(peerID string, port int, t *types.Torrent) *PeersRequest {
	return &PeersRequest{
		Announce: t.Announce,
		InfoHash: t.InfoHash(),
		PeerID:   peerID,
		Port:     port,
		Left:     int64(t.Length),
		Compact:  true,
		Event:    EventStarted,
	}
}

// percentEncode escapes everything outside the unreserved set. url.QueryEscape
// would turn spaces into '+', which trackers do not expect for binary values.
func percentEncode(data []byte) string {
	var builder strings.Builder

	for _, b := range data {
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') ||
			b == '-' || b == '_' || b == '.' || b == '~' {
			builder.WriteByte(b)
		} else {
			fmt.Fprintf(&builder, "%%%02X", b)
		}
	}

	return builder.String()
}

func boolParam(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// URL returns the announce URL with every request parameter in a fixed order.
func (p *PeersRequest) URL() (string, error) {
	trackerURL, err := url.Parse(p.Announce)
	if err != nil {
		return "", fmt.Errorf("invalid announce url %q: %w", p.Announce, err)
	}
	if trackerURL.Scheme != "http" && trackerURL.Scheme != "https" {
		return "", fmt.Errorf("unsupported announce scheme %q", trackerURL.Scheme)
	}

	params := []string{
		"info_hash=" + percentEncode(p.InfoHash[:]),
		"peer_id=" + percentEncode([]byte(p.PeerID)),
		"port=" + strconv.Itoa(p.Port),
		"uploaded=" + strconv.FormatInt(p.Uploaded, 10),
		"downloaded=" + strconv.FormatInt(p.Downloaded, 10),
		"left=" + strconv.FormatInt(p.Left, 10),
		"compact=" + boolParam(p.Compact),
	}
	if p.Event != EventNone {
		params = append(params, "event="+url.QueryEscape(string(p.Event)))
	}

	query := strings.Join(params, "&")
	if trackerURL.RawQuery != "" {
		query = trackerURL.RawQuery + "&" + query
	}
	trackerURL.RawQuery = query

	return trackerURL.String(), nil
}

// HTTPRequest builds the GET request for the announce. Sending it is up to
// the caller.
func (p *PeersRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	u, err := p.URL()
	if err != nil {
		return nil, err
	}

	return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
}

// ScrapeURL derives the scrape URL from an announce URL. The last path
// segment has to start with "announce", which is replaced by "scrape".
func ScrapeURL(announce string) (string, error) {
	u, err := url.Parse(announce)
	if err != nil {
		return "", fmt.Errorf("invalid announce url %q: %w", announce, err)
	}

	idx := strings.LastIndex(u.Path, "/")
	if idx == -1 {
		return "", fmt.Errorf("%w: %q has no path", ErrScrapeUnsupported, announce)
	}

	last := u.Path[idx+1:]
	if !strings.HasPrefix(last, "announce") {
		return "", fmt.Errorf("%w: %q", ErrScrapeUnsupported, announce)
	}
	u.Path = u.Path[:idx+1] + strings.Replace(last, "announce", "scrape", 1)
	u.RawPath = ""

	return u.String(), nil
}

type PeersResponse struct {
	WarningMessage string
	// Interval and the other counters are -1 when the tracker omits them
	Interval    int
	MinInterval int
	TrackerID   string
	Complete    int
	Incomplete  int
	Peers       []*types.Peer
}

func DecodePeersResponse(data []byte) (*PeersResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: cannot decode peers response with empty data", ErrMalformedResponse)
	}

	v, err := bencode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	dict, ok := v.(*bencode.Dict)
	if !ok {
		return nil, fmt.Errorf("%w: expected dictionary, got %T", ErrMalformedResponse, v)
	}

	if reason, ok := dict.GetString("failure reason"); ok {
		return nil, &FailureError{Reason: string(reason)}
	}

	resp := &PeersResponse{
		Interval:    optionalInt(dict, "interval"),
		MinInterval: optionalInt(dict, "min interval"),
		Complete:    optionalInt(dict, "complete"),
		Incomplete:  optionalInt(dict, "incomplete"),
	}
	if msg, ok := dict.GetString("warning message"); ok {
		resp.WarningMessage = string(msg)
	}
	if id, ok := dict.GetString("tracker id"); ok {
		resp.TrackerID = string(id)
	}

	rawPeers, ok := dict.Get("peers")
	if !ok {
		return nil, fmt.Errorf("%w: missing 'peers' key", ErrMalformedResponse)
	}

	var peers []*types.Peer
	switch p := rawPeers.(type) {
	case bencode.String:
		peers, err = compactPeers(p, compactPeerLength)
	case *bencode.List:
		peers, err = dictPeers(p)
	default:
		err = fmt.Errorf("%w: unexpected 'peers' value %T", ErrMalformedResponse, rawPeers)
	}
	if err != nil {
		return nil, err
	}

	if p6, ok := dict.GetString("peers6"); ok {
		more, err := compactPeers(p6, compactPeer6Length)
		if err != nil {
			return nil, err
		}
		peers = append(peers, more...)
	}

	seen := types.NewSet[string]()
	resp.Peers = make([]*types.Peer, 0, len(peers))
	for _, peer := range peers {
		if seen.Put(peer.String()) {
			resp.Peers = append(resp.Peers, peer)
		}
	}

	return resp, nil
}

func optionalInt(dict *bencode.Dict, key string) int {
	if v, ok := dict.GetInteger(key); ok {
		return int(v)
	}
	return -1
}

// compactPeers splits data into entries of size bytes: an address followed by
// a big endian port.
func compactPeers(data bencode.String, size int) ([]*types.Peer, error) {
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: compact peers length %d is not a multiple of %d", ErrMalformedResponse, len(data), size)
	}

	raw := data.Bytes()
	peers := make([]*types.Peer, 0, len(raw)/size)
	for i := 0; i < len(raw); i += size {
		entry := raw[i : i+size]
		ip := make(net.IP, size-2)
		copy(ip, entry[:size-2])

		peers = append(peers, &types.Peer{
			IP:   ip,
			Port: int(binary.BigEndian.Uint16(entry[size-2:])),
		})
	}
	return peers, nil
}

func dictPeers(list *bencode.List) ([]*types.Peer, error) {
	peers := make([]*types.Peer, 0, list.Len())
	for i, item := range list.Values() {
		d, ok := item.(*bencode.Dict)
		if !ok {
			return nil, fmt.Errorf("%w: peer %d is not a dictionary", ErrMalformedResponse, i)
		}

		host, ok := d.GetString("ip")
		if !ok {
			return nil, fmt.Errorf("%w: peer %d has no ip", ErrMalformedResponse, i)
		}
		ip := net.ParseIP(string(host))
		if ip == nil {
			return nil, fmt.Errorf("%w: peer %d has invalid ip %q", ErrMalformedResponse, i, string(host))
		}

		port, ok := d.GetInteger("port")
		if !ok || port < 0 || port > 65535 {
			return nil, fmt.Errorf("%w: peer %d has invalid port", ErrMalformedResponse, i)
		}

		peer := &types.Peer{IP: ip, Port: int(port)}
		if id, ok := d.GetString("peer id"); ok {
			peer.ID = string(id)
		}
		peers = append(peers, peer)
	}
	return peers, nil
}
