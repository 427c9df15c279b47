package ack

import (
	"fmt"
	"time"
)

// Status is the outcome of a transaction set or functional group.
type Status string

const (
	StatusAccepted          Status = "ACCEPTED"
	StatusPartiallyAccepted Status = "PARTIALLY_ACCEPTED"
	StatusRejected          Status = "REJECTED"
	StatusUnknown           Status = "UNKNOWN"
)

// Severity grades one ErrorDetail.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ErrorDetail is one finding inside a transaction set response. Segment fields come
// from an AK3, element fields from an AK4; AK5 syntax codes carry neither.
type ErrorDetail struct {
	SegmentID        string   `json:"segment_id,omitempty"`
	SegmentPosition  *int     `json:"segment_position,omitempty"`
	ElementPosition  *int     `json:"element_position,omitempty"`
	ElementReference *int     `json:"element_reference_number,omitempty"`
	ErrorCode        string   `json:"error_code"`
	ErrorDescription string   `json:"error_description"`
	Severity         Severity `json:"severity"`
	BadData          string   `json:"bad_data_element,omitempty"`
}

// Location renders the segment/element attribution, e.g. "N1 (pos 2) element 3".
// Unattributed details return "".
func (d ErrorDetail) Location() string {
	var loc string
	if d.SegmentID != "" {
		loc = d.SegmentID
		if d.SegmentPosition != nil {
			loc += fmt.Sprintf(" (pos %d)", *d.SegmentPosition)
		}
	}
	if d.ElementPosition != nil {
		if loc != "" {
			loc += " "
		}
		loc += fmt.Sprintf("element %d", *d.ElementPosition)
	}
	return loc
}

// TransactionSetValidation is one reconstructed AK2 loop.
type TransactionSetValidation struct {
	TransactionSetID string        `json:"transaction_set_id"`
	ControlNumber    string        `json:"transaction_control_number"`
	Status           Status        `json:"status"`
	AckCode          string        `json:"ack_code"`
	ErrorCount       int           `json:"error_count"`
	Errors           []ErrorDetail `json:"errors"`
	SyntaxErrorCodes []string      `json:"syntax_error_codes"`
}

// NewTransactionSetValidation builds a TransactionSetValidation whose ErrorCount
// always matches its Errors.
func NewTransactionSetValidation(setID, controlNumber, ackCode string, status Status, errs []ErrorDetail, syntaxCodes []string) TransactionSetValidation {
	if errs == nil {
		errs = []ErrorDetail{}
	}
	if syntaxCodes == nil {
		syntaxCodes = []string{}
	}
	return TransactionSetValidation{
		TransactionSetID: setID,
		ControlNumber:    controlNumber,
		Status:           status,
		AckCode:          ackCode,
		ErrorCount:       len(errs),
		Errors:           errs,
		SyntaxErrorCodes: syntaxCodes,
	}
}

// Validate checks the ErrorCount invariant on values that did not come from
// NewTransactionSetValidation, such as decoded JSON.
func (t TransactionSetValidation) Validate() error {
	if t.ErrorCount != len(t.Errors) {
		return fmt.Errorf("transaction %s: error_count %d does not match %d errors", t.ControlNumber, t.ErrorCount, len(t.Errors))
	}
	return nil
}

// FunctionalGroupValidation is one AK1..AK9 loop. The AK9 counts are reported by the
// sender and are not cross-checked against Transactions.
type FunctionalGroupValidation struct {
	FunctionalIDCode   string                     `json:"functional_id_code"`
	GroupControlNumber string                     `json:"group_control_number"`
	Status             Status                     `json:"status"`
	AckCode            string                     `json:"ack_code"`
	Included           int                        `json:"transaction_sets_included"`
	Received           int                        `json:"transaction_sets_received"`
	Accepted           int                        `json:"transaction_sets_accepted"`
	Transactions       []TransactionSetValidation `json:"transaction_validations"`
	SyntaxErrorCodes   []string                   `json:"group_syntax_error_codes"`
}

// TotalErrors sums the error counts of every transaction in the group.
func (g FunctionalGroupValidation) TotalErrors() int {
	total := 0
	for _, ts := range g.Transactions {
		total += ts.ErrorCount
	}
	return total
}

// CountByStatus returns how many transactions in the group have the given status.
func (g FunctionalGroupValidation) CountByStatus(s Status) int {
	n := 0
	for _, ts := range g.Transactions {
		if ts.Status == s {
			n++
		}
	}
	return n
}

// ValidationResult is the verdict for one 997 document.
//
// FunctionalGroup is the first group in the interchange; FunctionalGroups holds all
// of them in stream order. IsValid is true iff every group is ACCEPTED.
type ValidationResult struct {
	InterchangeControlNumber string                      `json:"interchange_control_number"`
	SenderID                 string                      `json:"interchange_sender_id"`
	ReceiverID               string                      `json:"interchange_receiver_id"`
	FunctionalGroup          FunctionalGroupValidation   `json:"functional_group"`
	FunctionalGroups         []FunctionalGroupValidation `json:"functional_groups"`
	Timestamp                time.Time                   `json:"validation_timestamp"`
	IsValid                  bool                        `json:"is_valid"`
}

// OverallStatus is the status of the primary functional group.
func (r *ValidationResult) OverallStatus() Status {
	return r.FunctionalGroup.Status
}

// Summary renders "{STATUS}: {accepted}/{included} transaction sets accepted".
func (r *ValidationResult) Summary() string {
	fg := r.FunctionalGroup
	return fmt.Sprintf("%s: %d/%d transaction sets accepted", fg.Status, fg.Accepted, fg.Included)
}

// TotalErrors sums errors across all functional groups.
func (r *ValidationResult) TotalErrors() int {
	total := 0
	for _, g := range r.FunctionalGroups {
		total += g.TotalErrors()
	}
	return total
}

// Transactions returns every transaction validation across all groups.
func (r *ValidationResult) Transactions() []TransactionSetValidation {
	var out []TransactionSetValidation
	for _, g := range r.FunctionalGroups {
		out = append(out, g.Transactions...)
	}
	return out
}

// GroupByControlNumber returns the group with the given control number.
func (r *ValidationResult) GroupByControlNumber(gcn string) (FunctionalGroupValidation, bool) {
	for _, g := range r.FunctionalGroups {
		if g.GroupControlNumber == gcn {
			return g, true
		}
	}
	return FunctionalGroupValidation{}, false
}
