// Package config loads edi997 settings from a YAML file, a .env file and EDI997_*
// environment variables, and validates the merged result against a CUE schema.
//
// Precedence, lowest first: Default(), YAML file, environment. Command-line flags
// are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/edi997/internal/x12"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "edi997.yaml"

// Config is the full application configuration.
type Config struct {
	Parser    ParserConfig    `yaml:"parser" json:"parser"`
	Codes     CodesConfig     `yaml:"codes" json:"codes"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Reporting ReportingConfig `yaml:"reporting" json:"reporting"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Batch     BatchConfig     `yaml:"batch" json:"batch"`
}

// ParserConfig controls delimiter detection and tokenization.
type ParserConfig struct {
	AutoDetectDelimiters bool             `yaml:"auto_detect_delimiters" json:"auto_detect_delimiters"`
	FallbackToDefaults   bool             `yaml:"fallback_to_defaults" json:"fallback_to_defaults"`
	DefaultDelimiters    DelimitersConfig `yaml:"default_delimiters" json:"default_delimiters"`
	TrimWhitespace       bool             `yaml:"trim_whitespace" json:"trim_whitespace"`
	PreserveLineBreaks   bool             `yaml:"preserve_line_breaks" json:"preserve_line_breaks"`
	MaxFileSizeMB        int              `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	Encoding             string           `yaml:"encoding" json:"encoding"`
	AllowUnknownSegments bool             `yaml:"allow_unknown_segments" json:"allow_unknown_segments"`
}

// DelimitersConfig holds single-character separators. Repetition may be empty.
type DelimitersConfig struct {
	Element    string `yaml:"element" json:"element"`
	Segment    string `yaml:"segment" json:"segment"`
	SubElement string `yaml:"sub_element" json:"sub_element"`
	Repetition string `yaml:"repetition" json:"repetition"`
}

// CodesConfig points at an alternative code table file. Empty uses the built-in tables.
type CodesConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ReportingConfig controls rendered reports.
type ReportingConfig struct {
	MaxErrorsPerTransaction int  `yaml:"max_errors_per_transaction" json:"max_errors_per_transaction"`
	IncludeTimestamps       bool `yaml:"include_timestamps" json:"include_timestamps"`
}

// StoreConfig locates the SQLite history database. Empty disables persistence.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ServerConfig controls `edi997 serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// BatchConfig bounds concurrent file validation.
type BatchConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Parser: ParserConfig{
			AutoDetectDelimiters: true,
			DefaultDelimiters: DelimitersConfig{
				Element:    "*",
				Segment:    "~",
				SubElement: ":",
				Repetition: "^",
			},
			TrimWhitespace: true,
			MaxFileSizeMB:  10,
			Encoding:       "utf-8",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Reporting: ReportingConfig{
			MaxErrorsPerTransaction: 100,
			IncludeTimestamps:       true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (a missing
// file is not an error), a .env file in the working directory and the process
// environment, then validates it.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := LoadDotEnv(""); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. The environment
// is not consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decodeYAML(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads variables from a .env file without overriding variables that
// are already set. An empty path means ".env"; a missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Delimiters converts the configured default delimiters.
func (c Config) Delimiters() (x12.Delimiters, error) {
	d := c.Parser.DefaultDelimiters
	return x12.DelimitersFromStrings(d.Element, d.Segment, d.SubElement, d.Repetition)
}

// TokenizerOptions returns the tokenizer settings.
func (c Config) TokenizerOptions() x12.TokenizerOptions {
	return x12.TokenizerOptions{
		TrimWhitespace:     c.Parser.TrimWhitespace,
		PreserveLineBreaks: c.Parser.PreserveLineBreaks,
	}
}

// ParserOptions returns the segment parser settings.
func (c Config) ParserOptions() x12.ParserOptions {
	return x12.ParserOptions{AllowUnknownSegments: c.Parser.AllowUnknownSegments}
}

// MaxFileSizeBytes returns the size limit in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.Parser.MaxFileSizeMB) * 1024 * 1024
}

// Validate checks the configuration against the CUE schema and checks that the
// default delimiters are distinct.
func (c Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}
	if _, err := c.Delimiters(); err != nil {
		return fmt.Errorf("invalid config: parser.default_delimiters: %w", err)
	}
	return nil
}
