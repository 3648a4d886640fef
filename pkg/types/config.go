// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by pdfmeta commands and
// packages: the extracted field table, the extraction error, and configuration.
package types

import "time"

// OutputFormat selects how the show command prints a field table.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// ParserConfig is the process-wide parser configuration. It is resolved once
// at startup and injected into the parser adapter; nothing mutates it later.
type ParserConfig struct {
	// Password is tried when a document is encrypted and the empty user
	// password does not open it.
	Password string `json:"-" yaml:"password,omitempty" mapstructure:"password"`
}

// DisplayConfig controls how values are rendered for humans.
type DisplayConfig struct {
	// Locale is a BCP 47 tag ("en", "ru", "ru-RU") selecting labels and the
	// date-time layout.
	Locale string `json:"locale" yaml:"locale" mapstructure:"locale"`

	// Timezone is an IANA zone name used when rendering dates that carry an
	// explicit offset. Empty means the local zone.
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`

	// Output is the show command's output format.
	Output OutputFormat `json:"output" yaml:"output" mapstructure:"output"`
}

// ServeConfig holds settings for the upload server.
type ServeConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the request body size (default 64 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// ReadTimeout bounds reading a whole request, upload included.
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every pdfmeta setting.
type Config struct {
	Parser  ParserConfig  `json:"parser" yaml:"parser" mapstructure:",squash"`
	Display DisplayConfig `json:"display" yaml:"display" mapstructure:",squash"`

	// Workers bounds concurrent extractions when show is given several files.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
	Serve ServeConfig `json:"serve" yaml:"serve" mapstructure:"serve"`
}

const (
	DefaultLocale         = "en"
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 64 << 20
	DefaultReadTimeout    = 60 * time.Second
)

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Display.Locale == "" {
		c.Display.Locale = DefaultLocale
	}
	if c.Display.Output == "" {
		c.Display.Output = OutputText
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.MaxUploadBytes <= 0 {
		c.Serve.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Serve.ReadTimeout <= 0 {
		c.Serve.ReadTimeout = DefaultReadTimeout
	}
	return c
}
