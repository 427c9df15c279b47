package x12

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError_Error(t *testing.T) {
	err := NewMalformedSegmentError("AK4", 2, "bad value %q", "X")
	assert.Equal(t, `MALFORMED_SEGMENT: bad value "X" (segment=AK4, element=2)`, err.Error())

	err = NewUnknownSegmentError("N1")
	assert.Equal(t, `UNKNOWN_SEGMENT_TYPE: unknown segment ID: "N1" (segment=N1)`, err.Error())

	assert.Equal(t, "EMPTY_INPUT: content is empty", NewEmptyInputError("content").Error())
}

func TestParseError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ParseError{Code: ErrCodeSizeExceeded, Message: "too big", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("reading file: %w", NewMissingSegmentError("AK9", "group never closed"))

	assert.True(t, HasCode(wrapped, ErrCodeMissingRequiredSegment))
	assert.False(t, HasCode(wrapped, ErrCodeInvalidHeader))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeInvalidHeader))
	assert.Equal(t, ErrCodeMissingRequiredSegment, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestNewSizeExceededError(t *testing.T) {
	err := NewSizeExceededError(11*1024*1024, 10)
	assert.Contains(t, err.Error(), "11.00 MB")
	assert.Contains(t, err.Error(), "10 MB")
}
