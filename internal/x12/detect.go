package x12

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/logging"
)

const (
	// HeaderTag is the literal tag every interchange starts with.
	HeaderTag = "ISA"

	// MinHeaderLength is the fixed ISA width up to and including ISA16.
	MinHeaderLength = 106

	// fallbackHeaderLength bounds the header when no terminator or newline is found.
	fallbackHeaderLength = 116

	elementSeparatorOffset    = 3
	subElementSeparatorOffset = 104
)

// candidateTerminators are tried in order when locating the header inside a document.
var candidateTerminators = []byte{'~', '!', '|'}

// Detector infers Delimiters from the ISA header.
type Detector struct {
	logger logrus.FieldLogger
}

// NewDetector creates a Detector. A nil logger discards output.
func NewDetector(logger logrus.FieldLogger) *Detector {
	return &Detector{logger: logging.OrDiscard(logger)}
}

// DetectFromHeader extracts delimiters from an isolated ISA segment. The segment
// terminator is the last character of the header, so the header must include it.
func (d *Detector) DetectFromHeader(header string) (Delimiters, error) {
	return d.detect(strings.TrimSpace(header))
}

func (d *Detector) detect(header string) (Delimiters, error) {
	if header == "" {
		return Delimiters{}, NewInvalidHeaderError("header is empty")
	}
	if !strings.HasPrefix(header, HeaderTag) {
		return Delimiters{}, NewInvalidHeaderError("header must start with %q, got %q", HeaderTag, prefix(header, 3))
	}
	if len(header) < MinHeaderLength {
		return Delimiters{}, NewInvalidHeaderError("header too short: %d characters, need at least %d", len(header), MinHeaderLength)
	}

	delims := Delimiters{
		Element:    header[elementSeparatorOffset],
		Segment:    header[len(header)-1],
		SubElement: header[subElementSeparatorOffset],
	}
	if err := delims.Validate(); err != nil {
		return Delimiters{}, err
	}

	d.logger.WithFields(logrus.Fields{
		"element":     string(delims.Element),
		"segment":     string(delims.Segment),
		"sub_element": string(delims.SubElement),
	}).Debug("delimiters_detected")
	return delims, nil
}

// DetectFromContent locates the ISA header inside a whole document and detects its
// delimiters. The terminator is unknown until detected, so the header is bounded by
// the first of the common terminators `~ ! |`, then the first newline, then a fixed
// slice.
func (d *Detector) DetectFromContent(content string) (Delimiters, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Delimiters{}, NewEmptyInputError("content")
	}
	if !strings.HasPrefix(content, HeaderTag) {
		return Delimiters{}, NewInvalidHeaderError("content must start with %q, got %q", HeaderTag, prefix(content, 3))
	}
	return d.detect(extractHeader(content))
}

func extractHeader(content string) string {
	for _, t := range candidateTerminators {
		if i := strings.IndexByte(content, t); i >= 0 {
			return content[:i+1]
		}
	}
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line := strings.TrimRight(content[:i], "\r")
		// A line stopping right after ISA16 is newline-terminated.
		if len(line) == MinHeaderLength-1 {
			return line + "\n"
		}
		return line
	}
	return prefix(content, fallbackHeaderLength)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
