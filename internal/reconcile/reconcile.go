// Package reconcile matches the transactions acknowledged by a 997 against the
// transactions that were sent, keyed by transaction control number.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/logging"
)

// Reconciler joins validation results with outbound groups. It holds no state and
// is safe for concurrent use.
type Reconciler struct {
	logger logrus.FieldLogger
}

// NewReconciler creates a Reconciler. A nil logger discards output.
func NewReconciler(logger logrus.FieldLogger) *Reconciler {
	return &Reconciler{logger: logging.OrDiscard(logger)}
}

// Reconcile matches the acknowledged group against outbound.
//
// The acknowledged group is the one whose control number equals the outbound
// group's. When none does, the first group is used and the mismatch is logged;
// it never fails the reconciliation.
func (r *Reconciler) Reconcile(result *ack.ValidationResult, outbound OutboundFunctionalGroup) (*Result, error) {
	if result == nil {
		return nil, errors.New("reconcile: validation result is nil")
	}

	fg, ok := result.GroupByControlNumber(outbound.GroupControlNumber)
	if !ok {
		fg = result.FunctionalGroup
		r.logger.WithFields(logrus.Fields{
			"expected": outbound.GroupControlNumber,
			"actual":   fg.GroupControlNumber,
		}).Warn("group_control_number_mismatch")
	}

	groupRec, err := r.ReconcileGroup(fg, outbound)
	if err != nil {
		return nil, err
	}

	res := &Result{
		FunctionalGroup:   groupRec,
		IsFullyReconciled: groupRec.IsFullyReconciled(),
		Summary:           Summarize(groupRec),
	}
	r.logger.WithFields(logrus.Fields{
		"group_control_number": fg.GroupControlNumber,
		"matched":              groupRec.MatchedCount(),
		"total":                groupRec.TotalCount(),
		"fully_reconciled":     res.IsFullyReconciled,
	}).Info("reconciliation_complete")
	return res, nil
}

// ReconcileGroup matches one acknowledged group against outbound, visiting the
// union of control numbers in sorted order.
func (r *Reconciler) ReconcileGroup(fg ack.FunctionalGroupValidation, outbound OutboundFunctionalGroup) (FunctionalGroupReconciliation, error) {
	outboundByCN := make(map[string]*OutboundTransaction, len(outbound.Transactions))
	for i := range outbound.Transactions {
		tx := &outbound.Transactions[i]
		outboundByCN[tx.ControlNumber] = tx
	}
	ackByCN := make(map[string]*ack.TransactionSetValidation, len(fg.Transactions))
	for i := range fg.Transactions {
		tx := &fg.Transactions[i]
		ackByCN[tx.ControlNumber] = tx
	}

	keys := make([]string, 0, len(outboundByCN)+len(ackByCN))
	for cn := range outboundByCN {
		keys = append(keys, cn)
	}
	for cn := range ackByCN {
		if _, dup := outboundByCN[cn]; !dup {
			keys = append(keys, cn)
		}
	}
	sort.Strings(keys)

	recs := make([]TransactionReconciliation, 0, len(keys))
	for _, cn := range keys {
		rec, err := MatchTransaction(outboundByCN[cn], ackByCN[cn])
		if err != nil {
			return FunctionalGroupReconciliation{}, fmt.Errorf("control number %s: %w", cn, err)
		}
		recs = append(recs, rec)
	}

	out := outbound
	return FunctionalGroupReconciliation{
		Outbound:           &out,
		GroupControlNumber: fg.GroupControlNumber,
		FunctionalIDCode:   fg.FunctionalIDCode,
		Transactions:       recs,
	}, nil
}

// MatchTransaction classifies one control number given whichever sides exist.
func MatchTransaction(out *OutboundTransaction, acked *ack.TransactionSetValidation) (TransactionReconciliation, error) {
	switch {
	case out != nil && acked != nil:
		if out.TransactionSetID != acked.TransactionSetID {
			return NewTransactionReconciliation(out, acked, StatusControlNumberMismatch,
				fmt.Sprintf("Transaction set ID mismatch: expected %s, got %s", out.TransactionSetID, acked.TransactionSetID))
		}
		return NewTransactionReconciliation(out, acked, StatusMatched, "")
	case out != nil:
		return NewTransactionReconciliation(out, nil, StatusMissingAck,
			fmt.Sprintf("No acknowledgment received for transaction %s", out.ControlNumber))
	case acked != nil:
		return NewTransactionReconciliation(nil, acked, StatusUnexpectedAck,
			fmt.Sprintf("Unexpected acknowledgment for transaction %s", acked.ControlNumber))
	default:
		return TransactionReconciliation{}, ErrNoSides
	}
}

// Summarize renders "{matched}/{total} transactions matched" followed by missing
// and unexpected clauses when those counts are nonzero.
func Summarize(g FunctionalGroupReconciliation) string {
	parts := []string{fmt.Sprintf("%d/%d transactions matched", g.MatchedCount(), g.TotalCount())}
	if n := g.MissingAckCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d missing acknowledgments", n))
	}
	if n := g.UnexpectedAckCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unexpected acknowledgments", n))
	}
	return strings.Join(parts, ", ")
}
