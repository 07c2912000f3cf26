package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
)

func TestNewConfigDefaults(t *testing.T) {
	require := require.New(t)

	t.Setenv("DEBUG", "1")
	t.Setenv("BT_LOG_FILE", "")
	t.Setenv("BT_LOAD_CONCURRENCY", "9")

	c := NewConfig()
	require.True(c.Debug)
	require.Equal(9, c.LoadConcurrency)
	require.Equal(bencode.DefaultMaxDepth, c.MaxDepth)
	require.False(c.StrictDicts)

	t.Setenv("BT_LOAD_CONCURRENCY", "nope")
	c = NewConfig(WithDebug(false), WithMaxDepth(8), WithStrictDicts(true))
	require.False(c.Debug)
	require.Equal(defaultLoadConcurrency, c.LoadConcurrency)
	require.Equal(8, c.MaxDepth)

	c = NewConfig(WithLoadConcurrency(0))
	require.Equal(1, c.LoadConcurrency)
}

func TestDecoderOptions(t *testing.T) {
	require := require.New(t)

	data := []byte("d1:ai1e1:ai2ee")

	lenient := bencode.NewDecoder(NewConfig().DecoderOptions()...)
	_, err := lenient.Decode(data)
	require.NoError(err)

	strict := bencode.NewDecoder(NewConfig(WithStrictDicts(true)).DecoderOptions()...)
	_, err = strict.Decode(data)
	require.ErrorIs(err, bencode.ErrSyntax)

	shallow := bencode.NewDecoder(NewConfig(WithMaxDepth(1)).DecoderOptions()...)
	_, err = shallow.Decode([]byte("llee"))
	require.ErrorIs(err, bencode.ErrSyntax)
}

func TestLogger(t *testing.T) {
	require := require.New(t)

	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "bt.log")
	c := NewConfig(WithDebug(false), WithLogFile(logFile), withConsole(zapcore.AddSync(&console)))

	log := c.Logger("test")
	log.Debugw("hidden")
	log.Infow("loaded torrent", "name", "sample.txt")
	require.NoError(log.Sync())

	require.NotContains(console.String(), "hidden")
	require.Contains(console.String(), "loaded torrent")

	data, err := os.ReadFile(logFile)
	require.NoError(err)
	require.Contains(string(data), `"name":"sample.txt"`)
	require.Contains(string(data), `"source":"test"`)
}
