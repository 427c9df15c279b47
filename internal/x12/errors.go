package x12

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse failures. Every code is terminal for the document
// being processed.
type ErrorCode string

const (
	// ErrCodeInvalidHeader indicates the ISA header is missing, too short, or has the wrong prefix.
	ErrCodeInvalidHeader ErrorCode = "INVALID_HEADER"

	// ErrCodeDelimiterConflict indicates two separators share the same character.
	ErrCodeDelimiterConflict ErrorCode = "DELIMITER_CONFLICT"

	// ErrCodeEmptyInput indicates blank or whitespace-only content.
	ErrCodeEmptyInput ErrorCode = "EMPTY_INPUT"

	// ErrCodeSizeExceeded indicates the input is larger than the configured limit.
	ErrCodeSizeExceeded ErrorCode = "SIZE_EXCEEDED"

	// ErrCodeMalformedSegment indicates a segment does not fit its record shape.
	ErrCodeMalformedSegment ErrorCode = "MALFORMED_SEGMENT"

	// ErrCodeUnknownSegmentType indicates an unrecognized segment tag.
	ErrCodeUnknownSegmentType ErrorCode = "UNKNOWN_SEGMENT_TYPE"

	// ErrCodeMissingRequiredSegment indicates ISA, AK1 or AK9 is absent.
	ErrCodeMissingRequiredSegment ErrorCode = "MISSING_REQUIRED_SEGMENT"
)

// ParseError is the typed failure returned by every stage of ingestion.
type ParseError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Segment is the tag of the offending segment, when known.
	Segment string

	// Position is the 1-based element position, when known.
	Position int

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Segment != "" && e.Position > 0 {
		msg = fmt.Sprintf("%s: %s (segment=%s, element=%d)", e.Code, e.Message, e.Segment, e.Position)
	} else if e.Segment != "" {
		msg = fmt.Sprintf("%s: %s (segment=%s)", e.Code, e.Message, e.Segment)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) a *ParseError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// CodeOf returns the ErrorCode of err, or "" if err is not a *ParseError.
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// NewInvalidHeaderError creates a ParseError for a bad interchange header.
func NewInvalidHeaderError(format string, args ...any) *ParseError {
	return &ParseError{Code: ErrCodeInvalidHeader, Message: fmt.Sprintf(format, args...), Segment: "ISA"}
}

// NewDelimiterConflictError creates a ParseError for non-distinct separators.
func NewDelimiterConflictError(d Delimiters) *ParseError {
	return &ParseError{
		Code:    ErrCodeDelimiterConflict,
		Message: fmt.Sprintf("delimiters are not unique: %s", d),
	}
}

// NewEmptyInputError creates a ParseError for blank content.
func NewEmptyInputError(what string) *ParseError {
	return &ParseError{Code: ErrCodeEmptyInput, Message: what + " is empty"}
}

// NewSizeExceededError creates a ParseError for oversized input.
func NewSizeExceededError(size int64, maxMB int) *ParseError {
	return &ParseError{
		Code:    ErrCodeSizeExceeded,
		Message: fmt.Sprintf("input size (%.2f MB) exceeds maximum (%d MB)", float64(size)/(1024*1024), maxMB),
	}
}

// NewMalformedSegmentError creates a ParseError for a segment that does not fit its shape.
func NewMalformedSegmentError(tag string, position int, format string, args ...any) *ParseError {
	return &ParseError{
		Code:     ErrCodeMalformedSegment,
		Message:  fmt.Sprintf(format, args...),
		Segment:  tag,
		Position: position,
	}
}

// NewUnknownSegmentError creates a ParseError for an unrecognized tag.
func NewUnknownSegmentError(tag string) *ParseError {
	return &ParseError{
		Code:    ErrCodeUnknownSegmentType,
		Message: fmt.Sprintf("unknown segment ID: %q", tag),
		Segment: tag,
	}
}

// NewMissingSegmentError creates a ParseError for an absent anchor segment.
func NewMissingSegmentError(tag, reason string) *ParseError {
	return &ParseError{
		Code:    ErrCodeMissingRequiredSegment,
		Message: fmt.Sprintf("required segment %s missing: %s", tag, reason),
		Segment: tag,
	}
}
