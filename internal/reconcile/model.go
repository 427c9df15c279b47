package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/edi997/internal/ack"
)

// Status is the match verdict for one transaction control number.
type Status string

const (
	StatusMatched               Status = "MATCHED"
	StatusMissingAck            Status = "MISSING_ACK"
	StatusUnexpectedAck         Status = "UNEXPECTED_ACK"
	StatusControlNumberMismatch Status = "CONTROL_NUMBER_MISMATCH"
)

// ErrNoSides is returned when a reconciliation has neither an outbound transaction
// nor an acknowledgment.
var ErrNoSides = errors.New("reconcile: both outbound transaction and acknowledgment are absent")

// OutboundTransaction is a transaction that was sent and should be acknowledged.
type OutboundTransaction struct {
	TransactionSetID   string `json:"transaction_set_id"`
	ControlNumber      string `json:"transaction_control_number"`
	GroupControlNumber string `json:"group_control_number"`
	FunctionalIDCode   string `json:"functional_id_code"`
}

// OutboundFunctionalGroup is a sent functional group.
type OutboundFunctionalGroup struct {
	FunctionalIDCode   string                `json:"functional_id_code"`
	GroupControlNumber string                `json:"group_control_number"`
	Transactions       []OutboundTransaction `json:"transactions"`
}

// TransactionCount returns the number of outbound transactions.
func (g OutboundFunctionalGroup) TransactionCount() int {
	return len(g.Transactions)
}

// normalize trims surrounding whitespace from every field.
func (g *OutboundFunctionalGroup) normalize() {
	g.FunctionalIDCode = strings.TrimSpace(g.FunctionalIDCode)
	g.GroupControlNumber = strings.TrimSpace(g.GroupControlNumber)
	for i := range g.Transactions {
		tx := &g.Transactions[i]
		tx.TransactionSetID = strings.TrimSpace(tx.TransactionSetID)
		tx.ControlNumber = strings.TrimSpace(tx.ControlNumber)
		tx.GroupControlNumber = strings.TrimSpace(tx.GroupControlNumber)
		tx.FunctionalIDCode = strings.TrimSpace(tx.FunctionalIDCode)
	}
}

// Validate checks required fields and control number uniqueness.
func (g OutboundFunctionalGroup) Validate() error {
	if g.FunctionalIDCode == "" {
		return errors.New("outbound group: functional_id_code is required")
	}
	if g.GroupControlNumber == "" {
		return errors.New("outbound group: group_control_number is required")
	}
	seen := make(map[string]bool, len(g.Transactions))
	for i, tx := range g.Transactions {
		for _, f := range [...]struct{ name, value string }{
			{"transaction_set_id", tx.TransactionSetID},
			{"transaction_control_number", tx.ControlNumber},
			{"group_control_number", tx.GroupControlNumber},
			{"functional_id_code", tx.FunctionalIDCode},
		} {
			if f.value == "" {
				return fmt.Errorf("outbound transaction %d: %s is required", i, f.name)
			}
		}
		if seen[tx.ControlNumber] {
			return fmt.Errorf("outbound transaction %d: duplicate transaction_control_number %s", i, tx.ControlNumber)
		}
		seen[tx.ControlNumber] = true
	}
	return nil
}

// TransactionReconciliation pairs an outbound transaction with its acknowledgment.
// At least one side is always present.
type TransactionReconciliation struct {
	Outbound       *OutboundTransaction          `json:"outbound_transaction"`
	Acknowledgment *ack.TransactionSetValidation `json:"acknowledgment"`
	Status         Status                        `json:"status"`
	MismatchReason string                        `json:"mismatch_reason,omitempty"`
}

// NewTransactionReconciliation builds a reconciliation, rejecting the case where
// both sides are nil.
func NewTransactionReconciliation(out *OutboundTransaction, acked *ack.TransactionSetValidation, status Status, reason string) (TransactionReconciliation, error) {
	if out == nil && acked == nil {
		return TransactionReconciliation{}, ErrNoSides
	}
	return TransactionReconciliation{
		Outbound:       out,
		Acknowledgment: acked,
		Status:         status,
		MismatchReason: reason,
	}, nil
}

// IsMatched reports whether the transaction matched.
func (t TransactionReconciliation) IsMatched() bool {
	return t.Status == StatusMatched
}

// ControlNumber returns the transaction control number from whichever side exists.
func (t TransactionReconciliation) ControlNumber() string {
	if t.Outbound != nil {
		return t.Outbound.ControlNumber
	}
	if t.Acknowledgment != nil {
		return t.Acknowledgment.ControlNumber
	}
	return ""
}

// FunctionalGroupReconciliation aggregates the transaction verdicts of one group.
type FunctionalGroupReconciliation struct {
	Outbound           *OutboundFunctionalGroup    `json:"outbound_group"`
	GroupControlNumber string                      `json:"group_control_number"`
	FunctionalIDCode   string                      `json:"functional_id_code"`
	Transactions       []TransactionReconciliation `json:"transaction_reconciliations"`
}

func (g FunctionalGroupReconciliation) count(s Status) int {
	n := 0
	for _, tr := range g.Transactions {
		if tr.Status == s {
			n++
		}
	}
	return n
}

// MatchedCount is the number of MATCHED transactions.
func (g FunctionalGroupReconciliation) MatchedCount() int { return g.count(StatusMatched) }

// MissingAckCount is the number of MISSING_ACK transactions.
func (g FunctionalGroupReconciliation) MissingAckCount() int { return g.count(StatusMissingAck) }

// UnexpectedAckCount is the number of UNEXPECTED_ACK transactions.
func (g FunctionalGroupReconciliation) UnexpectedAckCount() int { return g.count(StatusUnexpectedAck) }

// MismatchCount is the number of CONTROL_NUMBER_MISMATCH transactions.
func (g FunctionalGroupReconciliation) MismatchCount() int {
	return g.count(StatusControlNumberMismatch)
}

// TotalCount is the number of reconciled control numbers.
func (g FunctionalGroupReconciliation) TotalCount() int { return len(g.Transactions) }

// IsFullyReconciled is true iff there is at least one transaction and all matched.
func (g FunctionalGroupReconciliation) IsFullyReconciled() bool {
	total := g.TotalCount()
	return total > 0 && g.MatchedCount() == total
}

// Result is the reconciliation verdict for one 997 against one outbound group.
type Result struct {
	FunctionalGroup   FunctionalGroupReconciliation `json:"functional_group_reconciliation"`
	IsFullyReconciled bool                          `json:"is_fully_reconciled"`
	Summary           string                        `json:"summary"`
}

// MatchedCount is the number of matched transactions.
func (r *Result) MatchedCount() int { return r.FunctionalGroup.MatchedCount() }

// TotalCount is the number of reconciled transactions.
func (r *Result) TotalCount() int { return r.FunctionalGroup.TotalCount() }
