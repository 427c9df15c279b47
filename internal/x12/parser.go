package x12

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/logging"
)

// ParserOptions controls segment dispatch.
type ParserOptions struct {
	// AllowUnknownSegments returns *Unknown for unrecognized tags instead of failing.
	AllowUnknownSegments bool
}

// Parser turns segment strings into typed records. A Parser is bound to the
// delimiters of one interchange.
type Parser struct {
	delims Delimiters
	opts   ParserOptions
	logger logrus.FieldLogger
}

// NewParser creates a Parser for the given delimiters. A nil logger discards output.
func NewParser(d Delimiters, opts ParserOptions, logger logrus.FieldLogger) *Parser {
	return &Parser{delims: d, opts: opts, logger: logging.OrDiscard(logger)}
}

// Delimiters returns the delimiters the parser splits on.
func (p *Parser) Delimiters() Delimiters {
	return p.delims
}

// Parse parses one segment string.
func (p *Parser) Parse(raw string) (Segment, error) {
	el := Split(strings.TrimSpace(raw), p.delims)
	tag := el.Tag()
	if tag == "" {
		return nil, NewMalformedSegmentError("", 0, "segment has no tag: %q", prefix(raw, 100))
	}

	layout, ok := layouts[tag]
	if !ok {
		if p.opts.AllowUnknownSegments {
			return &Unknown{ID: tag, Elements: el}, nil
		}
		return nil, NewUnknownSegmentError(tag)
	}

	r := &fieldReader{el: el}
	seg := layout(r)
	if r.err != nil {
		p.logger.WithFields(logrus.Fields{
			"segment_type": tag,
			"segment":      prefix(raw, 100),
		}).WithError(r.err).Debug("segment_parse_failed")
		return nil, r.err
	}
	return seg, nil
}

// ParseAll parses segments in order and stops at the first failure.
func (p *Parser) ParseAll(raws []string) ([]Segment, error) {
	out := make([]Segment, 0, len(raws))
	for _, raw := range raws {
		seg, err := p.Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

// layouts is the per-tag field table. Positions are 1-based data element positions.
var layouts = map[string]func(r *fieldReader) Segment{
	TagISA: func(r *fieldReader) Segment {
		return &ISA{
			AuthorizationQualifier: r.text(1, 2, 2),
			AuthorizationInfo:      r.text(2, 0, 10),
			SecurityQualifier:      r.text(3, 2, 2),
			SecurityInfo:           r.text(4, 0, 10),
			SenderQualifier:        r.text(5, 2, 2),
			SenderID:               r.text(6, 1, 15),
			ReceiverQualifier:      r.text(7, 2, 2),
			ReceiverID:             r.text(8, 1, 15),
			Date:                   r.text(9, 6, 6),
			Time:                   r.text(10, 4, 4),
			StandardsID:            r.text(11, 1, 1),
			Version:                r.text(12, 5, 5),
			ControlNumber:          r.text(13, 9, 9),
			AckRequested:           r.text(14, 1, 1),
			UsageIndicator:         r.text(15, 1, 1),
			SubElementSeparator:    r.text(16, 1, 1),
		}
	},
	TagGS: func(r *fieldReader) Segment {
		return &GS{
			FunctionalIDCode:   r.text(1, 2, 2),
			SenderCode:         r.text(2, 1, 15),
			ReceiverCode:       r.text(3, 1, 15),
			Date:               r.text(4, 8, 8),
			Time:               r.text(5, 4, 8),
			GroupControlNumber: r.text(6, 1, 9),
			ResponsibleAgency:  r.text(7, 1, 2),
			Version:            r.text(8, 1, 12),
		}
	},
	TagST: func(r *fieldReader) Segment {
		return &ST{
			TransactionSetID:      r.text(1, 3, 3),
			ControlNumber:         r.text(2, 4, 9),
			ImplementationConvRef: r.optText(3, 1, 35),
		}
	},
	TagAK1: func(r *fieldReader) Segment {
		return &AK1{
			FunctionalIDCode:   r.text(1, 2, 2),
			GroupControlNumber: r.text(2, 1, 9),
			Version:            r.optText(3, 1, 12),
		}
	},
	TagAK2: func(r *fieldReader) Segment {
		return &AK2{
			TransactionSetID:      r.text(1, 3, 3),
			ControlNumber:         r.text(2, 4, 9),
			ImplementationConvRef: r.optText(3, 1, 35),
		}
	},
	TagAK3: func(r *fieldReader) Segment {
		return &AK3{
			SegmentID:       r.text(1, 2, 3),
			Position:        r.count(2, 1),
			LoopID:          r.optText(3, 1, 6),
			SyntaxErrorCode: r.optText(4, 1, 3),
		}
	},
	TagAK4: func(r *fieldReader) Segment {
		return &AK4{
			ElementPosition:  r.count(1, 1),
			ElementReference: r.optCount(2, 1),
			SyntaxErrorCode:  r.text(3, 1, 3),
			BadData:          r.optText(4, 1, 99),
		}
	},
	TagAK5: func(r *fieldReader) Segment {
		return &AK5{
			AckCode:          r.text(1, 1, 1),
			SyntaxErrorCodes: r.codes(2),
		}
	},
	TagAK9: func(r *fieldReader) Segment {
		return &AK9{
			AckCode:          r.text(1, 1, 1),
			Included:         r.count(2, 0),
			Received:         r.count(3, 0),
			Accepted:         r.count(4, 0),
			SyntaxErrorCodes: r.codes(5),
		}
	},
	TagSE: func(r *fieldReader) Segment {
		return &SE{
			SegmentCount:  r.count(1, 1),
			ControlNumber: r.text(2, 4, 9),
		}
	},
	TagGE: func(r *fieldReader) Segment {
		return &GE{
			TransactionSetCount: r.count(1, 1),
			GroupControlNumber:  r.text(2, 1, 9),
		}
	},
	TagIEA: func(r *fieldReader) Segment {
		return &IEA{
			GroupCount:    r.count(1, 1),
			ControlNumber: r.text(2, 9, 9),
		}
	},
}

// fieldReader extracts constrained fields from Elements. The first failure sticks;
// later reads return zero values so a layout can be written as a single literal.
type fieldReader struct {
	el  Elements
	err error
}

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// text reads a required element, trims it, and checks its length in characters.
func (r *fieldReader) text(pos, minLen, maxLen int) string {
	if r.err != nil {
		return ""
	}
	v, err := r.el.Required(pos)
	if err != nil {
		r.fail(err)
		return ""
	}
	return r.checkLength(pos, strings.TrimSpace(v), minLen, maxLen)
}

// optText reads an optional element; missing or empty yields "".
func (r *fieldReader) optText(pos, minLen, maxLen int) string {
	if r.err != nil {
		return ""
	}
	v := strings.TrimSpace(r.el.Optional(pos, ""))
	if v == "" {
		return ""
	}
	return r.checkLength(pos, v, minLen, maxLen)
}

// codes reads five consecutive optional syntax error codes starting at pos.
func (r *fieldReader) codes(pos int) [5]string {
	var out [5]string
	for i := range out {
		out[i] = r.optText(pos+i, 1, 3)
	}
	return out
}

// count reads a required integer no smaller than minVal.
func (r *fieldReader) count(pos, minVal int) int {
	if r.err != nil {
		return 0
	}
	n, err := r.el.Int(pos)
	if err != nil {
		r.fail(err)
		return 0
	}
	return r.checkMin(pos, n, minVal)
}

// optCount reads an optional integer no smaller than minVal.
func (r *fieldReader) optCount(pos, minVal int) *int {
	if r.err != nil {
		return nil
	}
	n, err := r.el.OptionalInt(pos)
	if err != nil {
		r.fail(err)
		return nil
	}
	if n == nil {
		return nil
	}
	v := r.checkMin(pos, *n, minVal)
	return &v
}

func (r *fieldReader) checkLength(pos int, v string, minLen, maxLen int) string {
	n := utf8.RuneCountInString(v)
	if n < minLen || n > maxLen {
		r.fail(NewMalformedSegmentError(r.el.Tag(), pos,
			"element at position %d must be %s characters, got %d (%q)", pos, lengthRange(minLen, maxLen), n, v))
		return ""
	}
	return v
}

func (r *fieldReader) checkMin(pos, n, minVal int) int {
	if n < minVal {
		r.fail(NewMalformedSegmentError(r.el.Tag(), pos,
			"element at position %d must be >= %d, got %d", pos, minVal, n))
		return 0
	}
	return n
}

func lengthRange(minLen, maxLen int) string {
	switch {
	case minLen == maxLen:
		return fmt.Sprintf("exactly %d", minLen)
	case minLen == 0:
		return fmt.Sprintf("at most %d", maxLen)
	default:
		return fmt.Sprintf("%d-%d", minLen, maxLen)
	}
}
