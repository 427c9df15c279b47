package ack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/x12"
)

const testISA = "ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *230101*1200*U*00401*000000001*0*P*>"

var fixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return fixedTime }

func newTestValidator() *Validator {
	return NewValidator(WithClock(fixedClock{}))
}

// parseSegments parses raw segment strings with '*' elements.
func parseSegments(t *testing.T, raws ...string) []x12.Segment {
	t.Helper()
	d := x12.Delimiters{Element: '*', Segment: '~', SubElement: '>'}
	p := x12.NewParser(d, x12.ParserOptions{AllowUnknownSegments: true}, nil)
	segs, err := p.ParseAll(raws)
	require.NoError(t, err)
	return segs
}

// wrap surrounds AK segments with the interchange and 997 envelopes.
func wrap(body ...string) []string {
	out := []string{testISA, "GS*FA*SENDER*RECEIVER*20230101*1200*1*X*004010", "ST*997*0001"}
	out = append(out, body...)
	return append(out, "SE*9*0001", "GE*1*1", "IEA*1*000000001")
}
