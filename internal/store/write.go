package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// ValidationRun is the indexed summary of one recorded validation.
type ValidationRun struct {
	ID                       string     `json:"id"`
	Source                   string     `json:"source"`
	ContentHash              string     `json:"content_hash"`
	InterchangeControlNumber string     `json:"interchange_control_number"`
	SenderID                 string     `json:"interchange_sender_id"`
	ReceiverID               string     `json:"interchange_receiver_id"`
	Status                   ack.Status `json:"status"`
	IsValid                  bool       `json:"is_valid"`
	Included                 int        `json:"transaction_sets_included"`
	Accepted                 int        `json:"transaction_sets_accepted"`
	ErrorCount               int        `json:"error_count"`
	ValidatedAt              time.Time  `json:"validated_at"`
	RecordedAt               time.Time  `json:"recorded_at"`
}

// ReconciliationRun is the indexed summary of one recorded reconciliation.
type ReconciliationRun struct {
	ID                 string    `json:"id"`
	ValidationRunID    string    `json:"validation_run_id,omitempty"`
	GroupControlNumber string    `json:"group_control_number"`
	Matched            int       `json:"matched"`
	MissingAck         int       `json:"missing_ack"`
	UnexpectedAck      int       `json:"unexpected_ack"`
	Mismatched         int       `json:"mismatched"`
	Total              int       `json:"total"`
	FullyReconciled    bool      `json:"is_fully_reconciled"`
	Summary            string    `json:"summary"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// RecordValidation stores res under a new run ID. source names where the content
// came from (a path, "http", "stdin").
func (s *Store) RecordValidation(ctx context.Context, source string, content []byte, res *ack.ValidationResult) (ValidationRun, error) {
	if res == nil {
		return ValidationRun{}, fmt.Errorf("record validation: result is nil")
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return ValidationRun{}, fmt.Errorf("record validation: %w", err)
	}

	fg := res.FunctionalGroup
	run := ValidationRun{
		ID:                       s.ids.NewID(),
		Source:                   source,
		ContentHash:              ContentHash(content),
		InterchangeControlNumber: res.InterchangeControlNumber,
		SenderID:                 res.SenderID,
		ReceiverID:               res.ReceiverID,
		Status:                   res.OverallStatus(),
		IsValid:                  res.IsValid,
		Included:                 fg.Included,
		Accepted:                 fg.Accepted,
		ErrorCount:               res.TotalErrors(),
		ValidatedAt:              res.Timestamp.UTC(),
	}
	run.RecordedAt = s.clock.Now().UTC()
	recordedAt := run.RecordedAt.Format(timeLayout)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO validation_runs
		(id, source, content_hash, interchange_control_number, sender_id, receiver_id, status,
		 is_valid, transaction_sets_included, transaction_sets_accepted, error_count,
		 validated_at, recorded_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Source,
		run.ContentHash,
		run.InterchangeControlNumber,
		run.SenderID,
		run.ReceiverID,
		string(run.Status),
		run.IsValid,
		run.Included,
		run.Accepted,
		run.ErrorCount,
		run.ValidatedAt.Format(timeLayout),
		recordedAt,
		string(resultJSON),
	)
	if err != nil {
		return ValidationRun{}, fmt.Errorf("record validation: %w", err)
	}
	return run, nil
}

// RecordReconciliation stores rec under a new run ID. validationRunID links the
// run to a recorded validation and may be empty.
func (s *Store) RecordReconciliation(ctx context.Context, validationRunID string, rec *reconcile.Result) (ReconciliationRun, error) {
	if rec == nil {
		return ReconciliationRun{}, fmt.Errorf("record reconciliation: result is nil")
	}
	resultJSON, err := json.Marshal(rec)
	if err != nil {
		return ReconciliationRun{}, fmt.Errorf("record reconciliation: %w", err)
	}

	fg := rec.FunctionalGroup
	run := ReconciliationRun{
		ID:                 s.ids.NewID(),
		ValidationRunID:    validationRunID,
		GroupControlNumber: fg.GroupControlNumber,
		Matched:            fg.MatchedCount(),
		MissingAck:         fg.MissingAckCount(),
		UnexpectedAck:      fg.UnexpectedAckCount(),
		Mismatched:         fg.MismatchCount(),
		Total:              fg.TotalCount(),
		FullyReconciled:    rec.IsFullyReconciled,
		Summary:            rec.Summary,
	}
	run.RecordedAt = s.clock.Now().UTC()
	recordedAt := run.RecordedAt.Format(timeLayout)

	var linked sql.NullString
	if validationRunID != "" {
		linked = sql.NullString{String: validationRunID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_runs
		(id, validation_run_id, group_control_number, matched, missing_ack, unexpected_ack,
		 mismatched, total, fully_reconciled, summary, recorded_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		linked,
		run.GroupControlNumber,
		run.Matched,
		run.MissingAck,
		run.UnexpectedAck,
		run.Mismatched,
		run.Total,
		run.FullyReconciled,
		run.Summary,
		recordedAt,
		string(resultJSON),
	)
	if err != nil {
		return ReconciliationRun{}, fmt.Errorf("record reconciliation: %w", err)
	}
	return run, nil
}

// ImportOutbound registers g, replacing any group with the same control number.
func (s *Store) ImportOutbound(ctx context.Context, g reconcile.OutboundFunctionalGroup) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("import outbound: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import outbound: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM outbound_groups WHERE group_control_number = ?`, g.GroupControlNumber); err != nil {
		return fmt.Errorf("import outbound: clear group: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outbound_groups (group_control_number, functional_id_code, imported_at)
		VALUES (?, ?, ?)
	`, g.GroupControlNumber, g.FunctionalIDCode, s.now()); err != nil {
		return fmt.Errorf("import outbound: insert group: %w", err)
	}

	for _, t := range g.Transactions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outbound_transactions
			(group_control_number, transaction_control_number, transaction_set_id, functional_id_code)
			VALUES (?, ?, ?, ?)
		`, g.GroupControlNumber, t.ControlNumber, t.TransactionSetID, t.FunctionalIDCode); err != nil {
			return fmt.Errorf("import outbound: insert transaction %s: %w", t.ControlNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import outbound: commit: %w", err)
	}
	return nil
}
