package ack

import "strings"

// Classify maps an AK501 or AK901 acknowledgment code to a Status. Matching is
// case-insensitive and the same table serves both levels:
//
//	A          -> ACCEPTED
//	E, P       -> PARTIALLY_ACCEPTED
//	R, M, W, X -> REJECTED
//	other      -> UNKNOWN
func Classify(code string) Status {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return StatusAccepted
	case "E", "P":
		return StatusPartiallyAccepted
	case "R", "M", "W", "X":
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// severityOf maps a code table severity onto the ErrorDetail scale. Anything that is
// not a warning or info ranks as an error.
func severityOf(s string) Severity {
	switch Severity(strings.ToLower(s)) {
	case SeverityWarning:
		return SeverityWarning
	case SeverityInfo:
		return SeverityInfo
	default:
		return SeverityError
	}
}
