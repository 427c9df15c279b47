package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// AssertionError is returned when an expectation or assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpect compares the top-level expectations against result.
func checkExpect(exp Expect, result *Result) {
	res := result.Validation
	fg := res.FunctionalGroup

	mismatch := func(name string, want, got any) {
		if fmt.Sprint(want) != fmt.Sprint(got) {
			result.AddError((&AssertionError{
				Type:     "expect." + name,
				Expected: fmt.Sprint(want),
				Actual:   fmt.Sprint(got),
			}).Error())
		}
	}

	if exp.Status != "" {
		mismatch("status", exp.Status, res.OverallStatus())
	}
	if exp.IsValid != nil {
		mismatch("is_valid", *exp.IsValid, res.IsValid)
	}
	if exp.Included != nil {
		mismatch("included", *exp.Included, fg.Included)
	}
	if exp.Accepted != nil {
		mismatch("accepted", *exp.Accepted, fg.Accepted)
	}
	if exp.TotalErrors != nil {
		mismatch("total_errors", *exp.TotalErrors, res.TotalErrors())
	}
	if exp.FullyReconciled != nil && result.Reconciliation != nil {
		mismatch("fully_reconciled", *exp.FullyReconciled, result.Reconciliation.IsFullyReconciled)
	}
}

// evaluateAssertion dispatches one assertion by type.
func evaluateAssertion(a Assertion, result *Result) error {
	switch a.Type {
	case AssertTransactionStatus:
		return assertTransactionStatus(result.Validation, a)
	case AssertTransactionErrors:
		return assertTransactionErrors(result.Validation, a)
	case AssertReconciliationStatus:
		return assertReconciliationStatus(result.Reconciliation, a)
	case AssertGroupCount:
		return assertGroupCount(result.Validation, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func findTransaction(res *ack.ValidationResult, cn string) (ack.TransactionSetValidation, bool) {
	for _, ts := range res.Transactions() {
		if ts.ControlNumber == cn {
			return ts, true
		}
	}
	return ack.TransactionSetValidation{}, false
}

func assertTransactionStatus(res *ack.ValidationResult, a Assertion) error {
	ts, ok := findTransaction(res, a.ControlNumber)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("transaction %s with status %s", a.ControlNumber, a.Status),
			Actual:   "transaction not acknowledged",
		}
	}
	if string(ts.Status) != a.Status {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("transaction %s with status %s", a.ControlNumber, a.Status),
			Actual:   fmt.Sprintf("status %s", ts.Status),
		}
	}
	return nil
}

func assertTransactionErrors(res *ack.ValidationResult, a Assertion) error {
	ts, ok := findTransaction(res, a.ControlNumber)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("transaction %s with error codes %v", a.ControlNumber, a.Codes),
			Actual:   "transaction not acknowledged",
		}
	}
	got := errorCodes(ts)
	if !slices.Equal(got, a.Codes) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("transaction %s with error codes %v", a.ControlNumber, a.Codes),
			Actual:   fmt.Sprintf("error codes %v", got),
		}
	}
	return nil
}

func assertReconciliationStatus(rec *reconcile.Result, a Assertion) error {
	if rec == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("control number %s reconciled as %s", a.ControlNumber, a.Status),
			Actual:   "no reconciliation ran",
		}
	}
	for _, tr := range rec.FunctionalGroup.Transactions {
		if tr.ControlNumber() != a.ControlNumber {
			continue
		}
		if string(tr.Status) != a.Status {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("control number %s reconciled as %s", a.ControlNumber, a.Status),
				Actual:   fmt.Sprintf("status %s", tr.Status),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("control number %s reconciled as %s", a.ControlNumber, a.Status),
		Actual:   "control number not reconciled",
	}
}

func assertGroupCount(res *ack.ValidationResult, a Assertion) error {
	if n := len(res.FunctionalGroups); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d functional groups", a.Count),
			Actual:   fmt.Sprintf("%d functional groups", n),
		}
	}
	return nil
}
