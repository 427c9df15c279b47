package x12

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/logging"
)

// TokenizerOptions controls how raw content is split into segments.
type TokenizerOptions struct {
	// TrimWhitespace strips surrounding whitespace from each segment.
	TrimWhitespace bool

	// PreserveLineBreaks keeps \r and \n in the content. When false, line breaks are
	// treated as formatting and removed before splitting.
	PreserveLineBreaks bool
}

// DefaultTokenizerOptions trims segments and removes line breaks.
func DefaultTokenizerOptions() TokenizerOptions {
	return TokenizerOptions{TrimWhitespace: true}
}

// Tokenizer splits interchange content into segment strings.
type Tokenizer struct {
	opts   TokenizerOptions
	logger logrus.FieldLogger
}

// NewTokenizer creates a Tokenizer. A nil logger discards output.
func NewTokenizer(opts TokenizerOptions, logger logrus.FieldLogger) *Tokenizer {
	return &Tokenizer{opts: opts, logger: logging.OrDiscard(logger)}
}

// Tokenize returns the non-empty segments of content in order, without terminators.
func (t *Tokenizer) Tokenize(content string, d Delimiters) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewEmptyInputError("content")
	}
	if !t.opts.PreserveLineBreaks {
		content = stripLineBreaks(content, d.Segment)
	}

	pieces := strings.Split(content, string(d.Segment))
	segments := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if t.opts.TrimWhitespace {
			p = strings.TrimSpace(p)
		}
		if p == "" {
			continue
		}
		segments = append(segments, p)
	}

	t.logger.WithFields(logrus.Fields{
		"segments": len(segments),
		"bytes":    len(content),
	}).Debug("tokenization_complete")
	return segments, nil
}

// stripLineBreaks removes \r\n, \n and \r. When the terminator itself is a line
// break, line endings are normalized to it instead of removed.
func stripLineBreaks(content string, terminator byte) string {
	switch terminator {
	case '\n':
		return strings.NewReplacer("\r\n", "\n", "\r", "").Replace(content)
	case '\r':
		return strings.NewReplacer("\r\n", "\r", "\n", "").Replace(content)
	default:
		return strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(content)
	}
}

// Stats summarizes a tokenized document.
type Stats struct {
	TotalSegments int            `json:"total_segments"`
	SegmentTypes  map[string]int `json:"segment_types"`
	MinLength     int            `json:"min_segment_length"`
	MaxLength     int            `json:"max_segment_length"`
	AvgLength     float64        `json:"avg_segment_length"`
}

// Tags returns the segment tags seen, sorted.
func (s Stats) Tags() []string {
	tags := make([]string, 0, len(s.SegmentTypes))
	for tag := range s.SegmentTypes {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Statistics computes Stats over segments using the element separator to find tags.
func Statistics(segments []string, d Delimiters) Stats {
	stats := Stats{SegmentTypes: map[string]int{}}
	if len(segments) == 0 {
		return stats
	}

	total := 0
	stats.MinLength = len(segments[0])
	for _, seg := range segments {
		n := len(seg)
		total += n
		stats.MinLength = min(stats.MinLength, n)
		stats.MaxLength = max(stats.MaxLength, n)
		stats.SegmentTypes[SegmentID(seg, d)]++
	}
	stats.TotalSegments = len(segments)
	stats.AvgLength = float64(total) / float64(len(segments))
	return stats
}
