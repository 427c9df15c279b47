package harness

import (
	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/x12"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors contains one message per failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode is set when the input could not be validated.
	ErrorCode x12.ErrorCode `json:"error_code,omitempty"`

	Validation     *ack.ValidationResult `json:"validation,omitempty"`
	Reconciliation *reconcile.Result     `json:"reconciliation,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot is the golden-file view of a result. It omits timestamps and
// free-text descriptions so that only behavior is compared.
type Snapshot struct {
	Scenario       string                  `json:"scenario"`
	Error          x12.ErrorCode           `json:"error,omitempty"`
	Status         ack.Status              `json:"status,omitempty"`
	Summary        string                  `json:"summary,omitempty"`
	Transactions   []TransactionSnapshot   `json:"transactions,omitempty"`
	Reconciliation *ReconciliationSnapshot `json:"reconciliation,omitempty"`
}

// TransactionSnapshot is one acknowledged transaction set.
type TransactionSnapshot struct {
	ControlNumber string     `json:"control_number"`
	Status        ack.Status `json:"status"`
	ErrorCodes    []string   `json:"error_codes,omitempty"`
}

// ReconciliationSnapshot lists the reconciliation status per control number.
type ReconciliationSnapshot struct {
	Summary         string                      `json:"summary"`
	FullyReconciled bool                        `json:"fully_reconciled"`
	Statuses        map[string]reconcile.Status `json:"statuses"`
}

// NewSnapshot builds the snapshot of result for the named scenario.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{Scenario: name, Error: result.ErrorCode}
	if v := result.Validation; v != nil {
		s.Status = v.OverallStatus()
		s.Summary = v.Summary()
		for _, ts := range v.Transactions() {
			s.Transactions = append(s.Transactions, TransactionSnapshot{
				ControlNumber: ts.ControlNumber,
				Status:        ts.Status,
				ErrorCodes:    errorCodes(ts),
			})
		}
	}
	if rec := result.Reconciliation; rec != nil {
		statuses := make(map[string]reconcile.Status, rec.TotalCount())
		for _, tr := range rec.FunctionalGroup.Transactions {
			statuses[tr.ControlNumber()] = tr.Status
		}
		s.Reconciliation = &ReconciliationSnapshot{
			Summary:         rec.Summary,
			FullyReconciled: rec.IsFullyReconciled,
			Statuses:        statuses,
		}
	}
	return s
}

func errorCodes(ts ack.TransactionSetValidation) []string {
	if len(ts.Errors) == 0 {
		return nil
	}
	out := make([]string, len(ts.Errors))
	for i, e := range ts.Errors {
		out[i] = e.ErrorCode
	}
	return out
}
