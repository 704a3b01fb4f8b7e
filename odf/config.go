package odf

import (
	"compress/flate"
	"log/slog"
	"time"
)

// Config configures a Converter.
type Config struct {
	// MaxInputBytes rejects larger fragments with ErrTooLarge (default: 20 MB).
	MaxInputBytes int64 `json:"max_input_bytes" yaml:"max_input_bytes"`

	// Workers bounds concurrent assemblies in a batch (default: 4).
	Workers int `json:"workers" yaml:"workers"`

	// CompressionLevel is the deflate level for compressed entries.
	// 0 selects flate.DefaultCompression.
	CompressionLevel int `json:"compression_level" yaml:"compression_level"`

	// Now stamps meta.xml and archive entries.
	Now func() time.Time `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxInputBytes <= 0 {
		c.MaxInputBytes = 20 * 1024 * 1024
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.CompressionLevel == 0 {
		c.CompressionLevel = flate.DefaultCompression
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
