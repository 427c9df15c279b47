package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EDI997_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(c *Config, v string) error
}

func boolVar(dst func(c *Config) *bool) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func intVar(dst func(c *Config) *int) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func stringVar(dst func(c *Config) *string) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

var envBindings = []envBinding{
	{"AUTO_DETECT_DELIMITERS", boolVar(func(c *Config) *bool { return &c.Parser.AutoDetectDelimiters })},
	{"FALLBACK_TO_DEFAULTS", boolVar(func(c *Config) *bool { return &c.Parser.FallbackToDefaults })},
	{"TRIM_WHITESPACE", boolVar(func(c *Config) *bool { return &c.Parser.TrimWhitespace })},
	{"PRESERVE_LINE_BREAKS", boolVar(func(c *Config) *bool { return &c.Parser.PreserveLineBreaks })},
	{"ALLOW_UNKNOWN_SEGMENTS", boolVar(func(c *Config) *bool { return &c.Parser.AllowUnknownSegments })},
	{"MAX_FILE_SIZE_MB", intVar(func(c *Config) *int { return &c.Parser.MaxFileSizeMB })},
	{"ENCODING", stringVar(func(c *Config) *string { return &c.Parser.Encoding })},
	{"CODES_PATH", stringVar(func(c *Config) *string { return &c.Codes.Path })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", stringVar(func(c *Config) *string { return &c.Logging.Format })},
	{"STORE_PATH", stringVar(func(c *Config) *string { return &c.Store.Path })},
	{"SERVER_ADDR", stringVar(func(c *Config) *string { return &c.Server.Addr })},
	{"BATCH_WORKERS", intVar(func(c *Config) *int { return &c.Batch.Workers })},
}

// EnvKeys lists every recognized environment variable.
func EnvKeys() []string {
	keys := make([]string, len(envBindings))
	for i, b := range envBindings {
		keys[i] = EnvPrefix + b.key
	}
	return keys
}

// ApplyEnv overrides fields from EDI997_* variables found through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		key := EnvPrefix + b.key
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if err := b.apply(c, v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
	}
	return nil
}
