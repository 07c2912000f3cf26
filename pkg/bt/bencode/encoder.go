package bencode

import (
	"bytes"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Encode returns the bencoding of v.
//
// v may be a Value or a native Go value: strings, byte slices and arrays,
// integers (bool encodes as 0 or 1), slices and arrays, maps with string keys
// and structs. Dict entries and struct fields are written in their existing
// order. Native maps have no order of their own, so their keys are written in
// ascending byte order.
//
// A nil pointer, including a nil *List or *Dict, is an UnsupportedTypeError.
// On failure no partial output is returned.
func Encode(v any) ([]byte, error) {
	w := newWriter()
	if err := w.encode(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) writeBytes(b []byte) {
	w.buf.WriteString(strconv.Itoa(len(b)))
	w.buf.WriteByte(bytesLengthSep)
	w.buf.Write(b)
}

func (w *writer) writeString(s string) {
	w.buf.WriteString(strconv.Itoa(len(s)))
	w.buf.WriteByte(bytesLengthSep)
	w.buf.WriteString(s)
}

func (w *writer) writeInt(n int64) {
	w.buf.WriteByte(intStart)
	w.buf.WriteString(strconv.FormatInt(n, 10))
	w.buf.WriteByte(bencodeEnd)
}

func (w *writer) encode(v any) error {
	switch val := v.(type) {
	case String:
		w.writeString(string(val))
	case Integer:
		w.writeInt(int64(val))
	case *List:
		if val == nil {
			return &UnsupportedTypeError{Type: reflect.TypeOf(val), Msg: "nil value"}
		}
		return w.encodeList(val)
	case *Dict:
		if val == nil {
			return &UnsupportedTypeError{Type: reflect.TypeOf(val), Msg: "nil value"}
		}
		return w.encodeDict(val)
	case List:
		return w.encodeList(&val)
	case Dict:
		return w.encodeDict(&val)
	case []byte:
		w.writeBytes(val)
	case string:
		w.writeString(val)
	case nil:
		return &UnsupportedTypeError{Msg: "nil value"}
	default:
		return w.encodeReflect(reflect.ValueOf(v))
	}
	return nil
}

func (w *writer) encodeList(l *List) error {
	w.buf.WriteByte(listStart)
	for _, item := range l.Values() {
		if err := w.encode(item); err != nil {
			return err
		}
	}
	w.buf.WriteByte(bencodeEnd)
	return nil
}

// encodeDict writes entries in insertion order. Sorting here would change the
// info hash of a re-encoded torrent.
func (w *writer) encodeDict(d *Dict) error {
	w.buf.WriteByte(dictStart)
	for _, e := range d.Entries() {
		w.writeString(string(e.Key))
		if err := w.encode(e.Value); err != nil {
			return err
		}
	}
	w.buf.WriteByte(bencodeEnd)
	return nil
}

var (
	valueType = reflect.TypeOf((*Value)(nil)).Elem()
	listType  = reflect.TypeOf(List{})
	dictType  = reflect.TypeOf(Dict{})
)

func (w *writer) encodeReflect(v reflect.Value) error {
	if v.Kind() != reflect.Interface && v.Type().Implements(valueType) {
		return w.encode(v.Interface())
	}
	// List and Dict only implement Value through their pointers
	if v.Type() == listType || v.Type() == dictType {
		return w.encode(v.Interface())
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			w.writeInt(1)
		} else {
			w.writeInt(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.writeInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		if n > math.MaxInt64 {
			return &UnsupportedTypeError{Type: v.Type(), Msg: "value exceeds the int64 range"}
		}
		w.writeInt(int64(n))
	case reflect.String:
		w.writeString(v.String())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			w.writeBytes(b)
			return nil
		}
		w.buf.WriteByte(listStart)
		for i := 0; i < v.Len(); i++ {
			if err := w.encodeReflect(v.Index(i)); err != nil {
				return err
			}
		}
		w.buf.WriteByte(bencodeEnd)
	case reflect.Map:
		return w.encodeMap(v)
	case reflect.Struct:
		return w.encodeStruct(v)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return &UnsupportedTypeError{Type: v.Type(), Msg: "nil value"}
		}
		return w.encodeReflect(v.Elem())
	default:
		return &UnsupportedTypeError{Type: v.Type()}
	}
	return nil
}

func (w *writer) encodeMap(v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return &UnsupportedTypeError{Type: v.Type(), Msg: "map keys must be strings"}
	}
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	w.buf.WriteByte(dictStart)
	for _, k := range keys {
		w.writeString(k.String())
		if err := w.encodeReflect(v.MapIndex(k)); err != nil {
			return err
		}
	}
	w.buf.WriteByte(bencodeEnd)
	return nil
}

type fieldTag struct {
	name      string
	omitEmpty bool
	skip      bool
}

func parseTag(f reflect.StructField) fieldTag {
	tag, ok := f.Tag.Lookup("bencode")
	if !ok {
		return fieldTag{name: f.Name}
	}
	if tag == "-" {
		return fieldTag{skip: true}
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return fieldTag{name: name, omitEmpty: opts == "omitempty"}
}

// encodeStruct writes exported fields in declaration order.
func (w *writer) encodeStruct(v reflect.Value) error {
	ty := v.Type()
	w.buf.WriteByte(dictStart)
	for i := 0; i < ty.NumField(); i++ {
		f := ty.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := parseTag(f)
		if tag.skip {
			continue
		}
		field := v.Field(i)
		if tag.omitEmpty && field.IsZero() {
			continue
		}
		w.writeString(tag.name)
		if err := w.encodeReflect(field); err != nil {
			return err
		}
	}
	w.buf.WriteByte(bencodeEnd)
	return nil
}
