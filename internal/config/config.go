// Package config holds the settings shared by the CLI and builds its logger.
package config

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/burmudar/btcodec/pkg/bt/bencode"
)

const defaultLoadConcurrency = 4

type Config struct {
	Debug bool
	// LogFile enables a rotated JSON log next to the console output
	LogFile         string
	LoadConcurrency int
	MaxDepth        int
	StrictDicts     bool

	stderr zapcore.WriteSyncer
}

type Option func(*Config)

func WithDebug(d bool) Option {
	return func(c *Config) {
		c.Debug = d
	}
}

func WithLogFile(path string) Option {
	return func(c *Config) {
		c.LogFile = path
	}
}

func WithLoadConcurrency(n int) Option {
	return func(c *Config) {
		c.LoadConcurrency = n
	}
}

func WithMaxDepth(n int) Option {
	return func(c *Config) {
		c.MaxDepth = n
	}
}

func WithStrictDicts(strict bool) Option {
	return func(c *Config) {
		c.StrictDicts = strict
	}
}

func withConsole(w zapcore.WriteSyncer) Option {
	return func(c *Config) {
		c.stderr = w
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		Debug:           os.Getenv("DEBUG") == "1",
		LogFile:         os.Getenv("BT_LOG_FILE"),
		LoadConcurrency: defaultLoadConcurrency,
		MaxDepth:        bencode.DefaultMaxDepth,

		stderr: zapcore.Lock(os.Stderr),
	}
	if n, err := strconv.Atoi(os.Getenv("BT_LOAD_CONCURRENCY")); err == nil && n > 0 {
		c.LoadConcurrency = n
	}

	for _, o := range opts {
		o(c)
	}
	if c.LoadConcurrency < 1 {
		c.LoadConcurrency = 1
	}
	return c
}

// Logger returns a logger tagged with source. Output goes to stderr, and also
// to LogFile as JSON when set.
func (c *Config) Logger(source string) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}
	opts := []zap.Option{}
	if source != "" {
		opts = append(opts, zap.Fields(zap.String("source", source)))
	}

	de := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(de), c.stderr, level),
	}
	if c.LogFile != "" {
		writer := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(de), zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), opts...).Sugar()
}

func (c *Config) DecoderOptions() []bencode.DecoderOption {
	opts := []bencode.DecoderOption{bencode.WithMaxDepth(c.MaxDepth)}
	if c.StrictDicts {
		opts = append(opts, bencode.WithStrictDicts())
	}
	return opts
}
