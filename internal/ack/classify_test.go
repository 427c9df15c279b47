package ack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want Status
	}{
		{"A", StatusAccepted},
		{"a", StatusAccepted},
		{" A ", StatusAccepted},
		{"E", StatusPartiallyAccepted},
		{"P", StatusPartiallyAccepted},
		{"p", StatusPartiallyAccepted},
		{"R", StatusRejected},
		{"M", StatusRejected},
		{"W", StatusRejected},
		{"X", StatusRejected},
		{"Z", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code))
		})
	}
}

func TestValidator_ClassifyLevels(t *testing.T) {
	v := newTestValidator()
	for _, code := range []string{"A", "E", "P", "R", "M", "W", "X", "Q"} {
		assert.Equal(t, v.ClassifyTransaction(code), v.ClassifyGroup(code), code)
	}
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, SeverityWarning, severityOf("warning"))
	assert.Equal(t, SeverityInfo, severityOf("INFO"))
	assert.Equal(t, SeverityError, severityOf("critical"))
	assert.Equal(t, SeverityError, severityOf(""))
}
