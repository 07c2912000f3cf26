package bencode

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one of String, Integer, *List or *Dict.
type Value interface {
	fmt.Stringer
	isValue()
}

// String is a bencoded byte string. It holds raw bytes and is not required to
// be valid UTF-8.
type String string

// Integer is a bencoded integer.
type Integer int64

// List is an ordered, immutable sequence of values.
type List struct {
	items []Value
}

// Entry is a single key/value pair of a Dict.
type Entry struct {
	Key   String
	Value Value
}

// Dict is an immutable mapping that remembers the order its keys were added in.
type Dict struct {
	entries []Entry
	index   map[String]int
}

func (String) isValue()  {}
func (Integer) isValue() {}
func (*List) isValue()   {}
func (*Dict) isValue()   {}

func (s String) Bytes() []byte  { return []byte(s) }
func (s String) String() string { return strconv.Quote(string(s)) }

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

func NewList(values ...Value) *List {
	items := make([]Value, len(values))
	copy(items, values)
	return &List{items: items}
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the value at index i. It panics if i is out of range.
func (l *List) At(i int) Value { return l.items[i] }

// Values returns a copy of the list's elements.
func (l *List) Values() []Value {
	out := make([]Value, l.Len())
	if l != nil {
		copy(out, l.items)
	}
	return out
}

func (l *List) String() string {
	parts := make([]string, 0, l.Len())
	for _, v := range l.Values() {
		parts = append(parts, valueString(v))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewDict builds a Dict from entries in the given order. When a key repeats,
// it keeps the position of its first occurrence and the value of its last.
func NewDict(entries ...Entry) *Dict {
	d := &Dict{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[String]int, len(entries)),
	}
	for _, e := range entries {
		d.set(e.Key, e.Value)
	}
	return d
}

func (d *Dict) set(k String, v Value) {
	if i, ok := d.index[k]; ok {
		d.entries[i].Value = v
		return
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: k, Value: v})
}

func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[String(key)]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []String {
	keys := make([]String, 0, d.Len())
	for _, e := range d.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns a copy of the pairs in insertion order.
func (d *Dict) Entries() []Entry {
	out := make([]Entry, d.Len())
	if d != nil {
		copy(out, d.entries)
	}
	return out
}

func (d *Dict) String() string {
	parts := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		parts = append(parts, e.Key.String()+": "+valueString(e.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func valueString(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

// Typed lookups used by consumers that expect a particular shape.

func (d *Dict) GetString(key string) (String, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return s, ok
}

func (d *Dict) GetInteger(key string) (Integer, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(Integer)
	return i, ok
}

func (d *Dict) GetList(key string) (*List, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := v.(*List)
	return l, ok
}

func (d *Dict) GetDict(key string) (*Dict, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	dd, ok := v.(*Dict)
	return dd, ok
}

// Equal reports whether a and b have the same structure, including the key
// order of every dictionary.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Integer:
		bv, ok := b.(Integer)
		return ok && av == bv
	case *List:
		bv, ok := b.(*List)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if av.entries[i].Key != bv.entries[i].Key || !Equal(av.entries[i].Value, bv.entries[i].Value) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}
