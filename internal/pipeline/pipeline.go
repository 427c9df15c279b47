// Package pipeline wires detection, tokenization, segment parsing and validation
// into the entry points used by the CLI and the HTTP server. It owns the policies
// that sit around the core: delimiter resolution, input size limits, charset
// decoding and bounded concurrent batch processing.
package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/codes"
	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/logging"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/x12"
)

// Pipeline validates 997 documents according to a configuration. It holds no
// per-document state and is safe for concurrent use.
type Pipeline struct {
	cfg      config.Config
	explicit *x12.Delimiters
	defaults x12.Delimiters
	decoder  encoding.Encoding // nil for UTF-8

	resolver *codes.Resolver
	clock    ack.Clock
	logger   logrus.FieldLogger

	detector   *x12.Detector
	tokenizer  *x12.Tokenizer
	validator  *ack.Validator
	reconciler *reconcile.Reconciler
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDelimiters forces the given delimiters and skips detection.
func WithDelimiters(d x12.Delimiters) Option {
	return func(p *Pipeline) { p.explicit = &d }
}

// WithResolver sets the code tables.
func WithResolver(r *codes.Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithClock sets the validation timestamp source.
func WithClock(c ack.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger sets the logger shared by every stage.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a Pipeline from cfg. When no resolver is given and cfg.Codes.Path is
// set, the code tables are loaded from that file.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDiscard(p.logger)

	defaults, err := cfg.Delimiters()
	if err != nil {
		return nil, fmt.Errorf("default delimiters: %w", err)
	}
	p.defaults = defaults
	if p.explicit != nil {
		if err := p.explicit.Validate(); err != nil {
			return nil, err
		}
	}

	p.decoder, err = lookupEncoding(cfg.Parser.Encoding)
	if err != nil {
		return nil, err
	}

	if p.resolver == nil {
		if cfg.Codes.Path != "" {
			p.resolver, err = codes.Load(cfg.Codes.Path)
			if err != nil {
				return nil, err
			}
		} else {
			p.resolver = codes.Default()
		}
	}

	p.detector = x12.NewDetector(p.logger)
	p.tokenizer = x12.NewTokenizer(cfg.TokenizerOptions(), p.logger)
	p.validator = ack.NewValidator(
		ack.WithResolver(p.resolver),
		ack.WithClock(p.clock),
		ack.WithLogger(p.logger),
	)
	p.reconciler = reconcile.NewReconciler(p.logger)
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Resolver returns the code tables in use.
func (p *Pipeline) Resolver() *codes.Resolver {
	return p.resolver
}

// lookupEncoding resolves an IANA charset name. UTF-8 needs no decoding and yields nil.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// ResolveDelimiters applies the delimiter policy: explicit delimiters win, then
// detection from the ISA header when enabled, then the configured defaults. A
// detection failure is returned unless fallback to defaults is enabled.
func (p *Pipeline) ResolveDelimiters(content string) (x12.Delimiters, error) {
	if p.explicit != nil {
		return *p.explicit, nil
	}
	if !p.cfg.Parser.AutoDetectDelimiters {
		return p.defaults, nil
	}

	d, err := p.detector.DetectFromContent(content)
	if err == nil {
		return d, nil
	}
	if !p.cfg.Parser.FallbackToDefaults || x12.HasCode(err, x12.ErrCodeEmptyInput) {
		return x12.Delimiters{}, err
	}
	p.logger.WithFields(logrus.Fields{
		"reason":     err.Error(),
		"delimiters": p.defaults.String(),
	}).Warn("using_default_delimiters")
	return p.defaults, nil
}

// Parse runs detection, tokenization and segment parsing.
func (p *Pipeline) Parse(content string) ([]x12.Segment, x12.Delimiters, error) {
	if strings.TrimSpace(content) == "" {
		return nil, x12.Delimiters{}, x12.NewEmptyInputError("content")
	}

	d, err := Timed(p.logger, "detect_delimiters", func() (x12.Delimiters, error) {
		return p.ResolveDelimiters(content)
	})
	if err != nil {
		return nil, x12.Delimiters{}, err
	}

	raws, err := Timed(p.logger, "tokenize", func() ([]string, error) {
		return p.tokenizer.Tokenize(content, d)
	})
	if err != nil {
		return nil, d, err
	}

	parser := x12.NewParser(d, p.cfg.ParserOptions(), p.logger)
	segments, err := Timed(p.logger, "parse_segments", func() ([]x12.Segment, error) {
		return parser.ParseAll(raws)
	})
	if err != nil {
		return nil, d, err
	}
	return segments, d, nil
}

// Validate validates a whole 997 document held in memory.
func (p *Pipeline) Validate(content string) (*ack.ValidationResult, error) {
	segments, _, err := p.Parse(content)
	if err != nil {
		p.logger.WithField("code", x12.CodeOf(err)).WithError(err).Debug("validation_aborted")
		return nil, err
	}
	return Timed(p.logger, "validate", func() (*ack.ValidationResult, error) {
		return p.validator.Validate(segments)
	})
}

// ValidateBytes decodes data from the configured charset and validates it.
func (p *Pipeline) ValidateBytes(data []byte) (*ack.ValidationResult, error) {
	if int64(len(data)) > p.cfg.MaxFileSizeBytes() {
		return nil, x12.NewSizeExceededError(int64(len(data)), p.cfg.Parser.MaxFileSizeMB)
	}
	content, err := p.decode(data)
	if err != nil {
		return nil, err
	}
	return p.Validate(content)
}

// ValidateReader reads at most the configured size limit from r and validates it.
func (p *Pipeline) ValidateReader(r io.Reader) (*ack.ValidationResult, error) {
	data, err := p.readLimited(r)
	if err != nil {
		return nil, err
	}
	return p.ValidateBytes(data)
}

// ValidateFile validates the document at path. Files larger than the configured
// limit are rejected before they are read.
func (p *Pipeline) ValidateFile(path string) (*ack.ValidationResult, error) {
	data, err := p.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ValidateBytes(data)
}

// ReadFile reads the raw bytes of path, enforcing the size limit.
func (p *Pipeline) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSizeBytes() {
		return nil, x12.NewSizeExceededError(info.Size(), p.cfg.Parser.MaxFileSizeMB)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := p.readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	p.logger.WithFields(logrus.Fields{
		"path":  path,
		"bytes": len(data),
	}).Info("file_loaded")
	return data, nil
}

func (p *Pipeline) readLimited(r io.Reader) ([]byte, error) {
	limit := p.cfg.MaxFileSizeBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, x12.NewSizeExceededError(int64(len(data)), p.cfg.Parser.MaxFileSizeMB)
	}
	return data, nil
}

// decode converts data from the configured charset to a UTF-8 string.
func (p *Pipeline) decode(data []byte) (string, error) {
	if p.decoder == nil {
		return string(data), nil
	}
	out, _, err := transform.Bytes(p.decoder.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s input: %w", p.cfg.Parser.Encoding, err)
	}
	return string(bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))), nil
}

// Reconcile matches a validation result against an outbound group.
func (p *Pipeline) Reconcile(result *ack.ValidationResult, outbound reconcile.OutboundFunctionalGroup) (*reconcile.Result, error) {
	return Timed(p.logger, "reconcile", func() (*reconcile.Result, error) {
		return p.reconciler.Reconcile(result, outbound)
	})
}
