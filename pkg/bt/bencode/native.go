package bencode

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// ToNative converts v into plain Go values: string, int64, []any and
// map[string]any. Dictionary order is lost in the conversion.
func ToNative(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Integer:
		return int64(val)
	case *List:
		out := make([]any, 0, val.Len())
		for _, item := range val.Values() {
			out = append(out, ToNative(item))
		}
		return out
	case *Dict:
		out := make(map[string]any, val.Len())
		for _, e := range val.Entries() {
			out[string(e.Key)] = ToNative(e.Value)
		}
		return out
	}
	return nil
}

// Unmarshal decodes buf and stores the result in out, which must be a pointer.
// Struct fields are matched through their `bencode:"name"` tag.
func Unmarshal(buf []byte, out any) error {
	v, err := Decode(buf)
	if err != nil {
		return err
	}
	return UnmarshalValue(v, out)
}

// UnmarshalValue stores an already decoded value in out.
func UnmarshalValue(v Value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToBytesHook,
		Result:     out,
		TagName:    "bencode",
	})
	if err != nil {
		return fmt.Errorf("unmarshal setup failure: %w", err)
	}
	if err := dec.Decode(ToNative(v)); err != nil {
		return fmt.Errorf("bencode: unmarshal: %w", err)
	}
	return nil
}

var bytesType = reflect.TypeOf([]byte(nil))

// stringToBytesHook lets byte strings land in []byte and [N]byte fields.
func stringToBytesHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := reflect.ValueOf(data).String()

	switch {
	case to == bytesType:
		return []byte(s), nil
	case to.Kind() == reflect.Array && to.Elem().Kind() == reflect.Uint8:
		if len(s) != to.Len() {
			return nil, fmt.Errorf("expected %d bytes for %s, got %d", to.Len(), to, len(s))
		}
		arr := reflect.New(to).Elem()
		reflect.Copy(arr, reflect.ValueOf([]byte(s)))
		return arr.Interface(), nil
	}
	return data, nil
}
