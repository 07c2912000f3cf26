package bencode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalStruct(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Mary   []byte  `bencode:"m"`
		Joseph [4]byte `bencode:"j"`
		Peter  int64   `bencode:"p"`
		Paul   string  `bencode:"pp"`
		Small  uint32  `bencode:"s"`
	}{}
	buf := []byte("d1:m4:01231:j4:abcd1:pi1234e2:pp10:abcdefghij1:si7ee")
	require.NoError(Unmarshal(buf, &obj))
	require.Equal([]byte("0123"), obj.Mary)
	require.Equal([4]byte{'a', 'b', 'c', 'd'}, obj.Joseph)
	require.Equal(int64(1234), obj.Peter)
	require.Equal("abcdefghij", obj.Paul)
	require.Equal(uint32(7), obj.Small)
}

func TestUnmarshalNested(t *testing.T) {
	require := require.New(t)

	type file struct {
		Length int      `bencode:"length"`
		Path   []string `bencode:"path"`
	}
	obj := struct {
		Files []file `bencode:"files"`
	}{}
	require.NoError(Unmarshal([]byte("d5:filesld6:lengthi3e4:pathl1:a1:beeee"), &obj))
	require.Len(obj.Files, 1)
	require.Equal(3, obj.Files[0].Length)
	require.Equal([]string{"a", "b"}, obj.Files[0].Path)
}

func TestUnmarshalErrors(t *testing.T) {
	require := require.New(t)

	obj := struct {
		Hash [20]byte `bencode:"h"`
	}{}
	require.Error(Unmarshal([]byte("d1:h3:abce"), &obj))
	require.ErrorIs(Unmarshal([]byte("d1:h3:abc"), &obj), ErrSyntax)
}

func TestToNative(t *testing.T) {
	require := require.New(t)

	v, err := Decode([]byte("d3:cow3:moo4:listli1e1:xee"))
	require.NoError(err)
	require.Equal(map[string]any{
		"cow":  "moo",
		"list": []any{int64(1), "x"},
	}, ToNative(v))
}
