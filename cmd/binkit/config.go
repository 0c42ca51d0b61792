package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/meigma/binkit"
)

// configEnv names the environment variable consulted when --config is not set.
const configEnv = "BINKIT_CONFIG"

// Config holds CLI settings. Values come from defaults, then the YAML file,
// then explicitly set flags.
type Config struct {
	Algorithm      string   `yaml:"algorithm"`
	ChunkSize      ByteSize `yaml:"chunk_size"`
	Workers        int      `yaml:"workers"`
	LogLevel       string   `yaml:"log_level"`
	MaxArchiveSize ByteSize `yaml:"max_archive_size"`
	SplitSize      ByteSize `yaml:"split_size"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Algorithm:      binkit.SHA256.String(),
		ChunkSize:      2 << 20,
		LogLevel:       "warn",
		MaxArchiveSize: 512 << 20,
		SplitSize:      10 << 20,
	}
}

// LoadConfig reads path over the defaults. An empty path falls back to
// $BINKIT_CONFIG; if that is unset too, the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings and returns the parsed algorithm.
func (c Config) Validate() (binkit.Algorithm, error) {
	alg, err := binkit.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return 0, err
	}
	if c.ChunkSize == 0 {
		return 0, fmt.Errorf("%w: chunk_size must be positive", binkit.ErrInvalidChunkSize)
	}
	if _, err := c.Level(); err != nil {
		return 0, err
	}
	return alg, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", binkit.ErrInvalidInput, c.LogLevel)
	}
	return level, nil
}

// ByteSize is a byte count written as a number or a human string such as
// "2MiB" or "512 kB". It works both as a YAML scalar and as a flag value.
type ByteSize uint64

// String renders the size in IEC units.
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Set parses s as a size.
func (b *ByteSize) Set(s string) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

// Type implements pflag.Value.
func (b *ByteSize) Type() string {
	return "size"
}

// UnmarshalYAML accepts integers and human-readable strings.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	if err := b.Set(value.Value); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

// MarshalYAML writes the human-readable form.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}
