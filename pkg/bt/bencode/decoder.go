package bencode

// Decoder holds decoding options. The zero value is not usable, use
// NewDecoder.
type Decoder struct {
	strict   bool
	maxDepth int
}

type DecoderOption func(*Decoder)

// WithStrictDicts makes the decoder reject dictionaries that repeat a key.
// Without it the last value wins.
func WithStrictDicts() DecoderOption {
	return func(d *Decoder) {
		d.strict = true
	}
}

// WithMaxDepth bounds how deeply lists and dictionaries may nest.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode parses exactly one value that must span the whole of buf.
//
// Example:
// - 4:spam -> "spam"
// - i42e -> 42
// - d3:cow3:mooe -> {"cow": "moo"}
func Decode(buf []byte) (Value, error) {
	return defaultDecoder.Decode(buf)
}

func (d *Decoder) Decode(buf []byte) (Value, error) {
	r := newReader(buf)
	v, err := d.decodeValue(r, 0)
	if err != nil {
		return nil, err
	}
	if !r.isAtEnd() {
		return nil, newSyntaxError(TrailingData, r.pos, "%d unconsumed bytes", len(buf)-r.pos)
	}
	return v, nil
}

func (d *Decoder) decodeValue(r *reader, depth int) (Value, error) {
	c, err := r.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case c == dictStart:
		return d.decodeDict(r, depth+1)
	case c == listStart:
		return d.decodeList(r, depth+1)
	case c == intStart:
		n, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		return Integer(n), nil
	case isDigit(c):
		return r.ReadString()
	default:
		return nil, newSyntaxError(InvalidPrefix, r.pos, "unknown decode tag %q", c)
	}
}

func (d *Decoder) decodeList(r *reader, depth int) (*List, error) {
	start := r.pos
	if depth > d.maxDepth {
		return nil, newSyntaxError(TooDeep, start, "limit is %d", d.maxDepth)
	}
	r.pos++ // move past 'l'

	items := make([]Value, 0)
	for {
		if r.isAtEnd() {
			return nil, newSyntaxError(MissingTerminator, start, "list is not terminated by 'e'")
		}
		if r.buf[r.pos] == bencodeEnd {
			r.pos++
			return &List{items: items}, nil
		}
		v, err := d.decodeValue(r, depth)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (d *Decoder) decodeDict(r *reader, depth int) (*Dict, error) {
	start := r.pos
	if depth > d.maxDepth {
		return nil, newSyntaxError(TooDeep, start, "limit is %d", d.maxDepth)
	}
	r.pos++ // move past 'd'

	dict := NewDict()
	for {
		if r.isAtEnd() {
			return nil, newSyntaxError(MissingTerminator, start, "dictionary is not terminated by 'e'")
		}
		c := r.buf[r.pos]
		if c == bencodeEnd {
			r.pos++
			return dict, nil
		}
		if !isDigit(c) {
			return nil, newSyntaxError(NonStringKey, r.pos, "key starts with %q", c)
		}

		keyPos := r.pos
		key, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		if d.strict {
			if _, dup := dict.index[key]; dup {
				return nil, newSyntaxError(DuplicateKey, keyPos, "key %s", key)
			}
		}

		v, err := d.decodeValue(r, depth)
		if err != nil {
			return nil, err
		}
		dict.set(key, v)
	}
}
