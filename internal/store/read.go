package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// DefaultListLimit bounds list queries when the caller passes a non-positive limit.
const DefaultListLimit = 50

// ListValidationRuns returns the most recent validation runs, newest first.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListValidationRuns(ctx context.Context, limit int) ([]ValidationRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, content_hash, interchange_control_number, sender_id, receiver_id,
		       status, is_valid, transaction_sets_included, transaction_sets_accepted,
		       error_count, validated_at, recorded_at
		FROM validation_runs
		ORDER BY recorded_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query validation runs: %w", err)
	}
	defer rows.Close()

	runs := []ValidationRun{}
	for rows.Next() {
		run, err := scanValidationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation runs: %w", err)
	}
	return runs, nil
}

// GetValidationRun returns a run and its full stored result.
func (s *Store) GetValidationRun(ctx context.Context, id string) (ValidationRun, *ack.ValidationResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, content_hash, interchange_control_number, sender_id, receiver_id,
		       status, is_valid, transaction_sets_included, transaction_sets_accepted,
		       error_count, validated_at, recorded_at, result
		FROM validation_runs
		WHERE id = ?
	`, id)

	var resultJSON string
	run, err := scanValidationRun(row, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ValidationRun{}, nil, fmt.Errorf("validation run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ValidationRun{}, nil, err
	}

	var res ack.ValidationResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return ValidationRun{}, nil, fmt.Errorf("unmarshal validation run %s: %w", id, err)
	}
	return run, &res, nil
}

// FindValidationRunsByHash returns runs of identical content, newest first.
func (s *Store) FindValidationRunsByHash(ctx context.Context, hash string) ([]ValidationRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, content_hash, interchange_control_number, sender_id, receiver_id,
		       status, is_valid, transaction_sets_included, transaction_sets_accepted,
		       error_count, validated_at, recorded_at
		FROM validation_runs
		WHERE content_hash = ?
		ORDER BY recorded_at DESC, id COLLATE BINARY DESC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query validation runs by hash: %w", err)
	}
	defer rows.Close()

	runs := []ValidationRun{}
	for rows.Next() {
		run, err := scanValidationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation runs: %w", err)
	}
	return runs, nil
}

// ListReconciliationRuns returns the most recent reconciliation runs, newest first.
func (s *Store) ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, validation_run_id, group_control_number, matched, missing_ack, unexpected_ack,
		       mismatched, total, fully_reconciled, summary, recorded_at
		FROM reconciliation_runs
		ORDER BY recorded_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reconciliation runs: %w", err)
	}
	defer rows.Close()

	runs := []ReconciliationRun{}
	for rows.Next() {
		var (
			run        ReconciliationRun
			linked     sql.NullString
			recordedAt string
		)
		if err := rows.Scan(&run.ID, &linked, &run.GroupControlNumber, &run.Matched, &run.MissingAck,
			&run.UnexpectedAck, &run.Mismatched, &run.Total, &run.FullyReconciled, &run.Summary, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation run: %w", err)
		}
		run.ValidationRunID = linked.String
		if run.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation runs: %w", err)
	}
	return runs, nil
}

// GetOutbound returns the registered group with the given control number, its
// transactions ordered by control number.
func (s *Store) GetOutbound(ctx context.Context, groupControlNumber string) (reconcile.OutboundFunctionalGroup, error) {
	g := reconcile.OutboundFunctionalGroup{GroupControlNumber: groupControlNumber}
	err := s.db.QueryRowContext(ctx,
		`SELECT functional_id_code FROM outbound_groups WHERE group_control_number = ?`,
		groupControlNumber,
	).Scan(&g.FunctionalIDCode)
	if errors.Is(err, sql.ErrNoRows) {
		return reconcile.OutboundFunctionalGroup{}, fmt.Errorf("outbound group %s: %w", groupControlNumber, ErrNotFound)
	}
	if err != nil {
		return reconcile.OutboundFunctionalGroup{}, fmt.Errorf("query outbound group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_control_number, transaction_set_id, functional_id_code
		FROM outbound_transactions
		WHERE group_control_number = ?
		ORDER BY transaction_control_number COLLATE BINARY ASC
	`, groupControlNumber)
	if err != nil {
		return reconcile.OutboundFunctionalGroup{}, fmt.Errorf("query outbound transactions: %w", err)
	}
	defer rows.Close()

	g.Transactions = []reconcile.OutboundTransaction{}
	for rows.Next() {
		t := reconcile.OutboundTransaction{GroupControlNumber: groupControlNumber}
		if err := rows.Scan(&t.ControlNumber, &t.TransactionSetID, &t.FunctionalIDCode); err != nil {
			return reconcile.OutboundFunctionalGroup{}, fmt.Errorf("scan outbound transaction: %w", err)
		}
		g.Transactions = append(g.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return reconcile.OutboundFunctionalGroup{}, fmt.Errorf("iterate outbound transactions: %w", err)
	}
	return g, nil
}

// ListOutboundGroups returns the registered group control numbers in order.
func (s *Store) ListOutboundGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_control_number FROM outbound_groups ORDER BY group_control_number COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query outbound groups: %w", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var gcn string
		if err := rows.Scan(&gcn); err != nil {
			return nil, fmt.Errorf("scan outbound group: %w", err)
		}
		groups = append(groups, gcn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbound groups: %w", err)
	}
	return groups, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanValidationRun scans the summary columns followed by any extra destinations.
func scanValidationRun(row rowScanner, extra ...any) (ValidationRun, error) {
	var (
		run                     ValidationRun
		status                  string
		validatedAt, recordedAt string
	)
	dest := []any{
		&run.ID, &run.Source, &run.ContentHash, &run.InterchangeControlNumber, &run.SenderID,
		&run.ReceiverID, &status, &run.IsValid, &run.Included, &run.Accepted, &run.ErrorCount,
		&validatedAt, &recordedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ValidationRun{}, err
		}
		return ValidationRun{}, fmt.Errorf("scan validation run: %w", err)
	}
	run.Status = ack.Status(status)

	var err error
	if run.ValidatedAt, err = parseTime(validatedAt); err != nil {
		return ValidationRun{}, err
	}
	if run.RecordedAt, err = parseTime(recordedAt); err != nil {
		return ValidationRun{}, err
	}
	return run, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}
