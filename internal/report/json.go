// Package report renders validation and reconciliation results as JSON, Markdown,
// XLSX workbooks and console tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
)

// JSONMode selects how much of a validation result is serialized.
type JSONMode string

const (
	ModeFull    JSONMode = "full"
	ModeSummary JSONMode = "summary"
	ModeCompact JSONMode = "compact"
)

// JSONModes lists the accepted modes.
var JSONModes = []JSONMode{ModeFull, ModeSummary, ModeCompact}

// ParseJSONMode validates a mode name. Empty selects ModeFull.
func ParseJSONMode(s string) (JSONMode, error) {
	if s == "" {
		return ModeFull, nil
	}
	for _, m := range JSONModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid JSON mode %q: must be one of %v", s, JSONModes)
}

// fullView is the complete result plus its derived status and summary.
type fullView struct {
	*ack.ValidationResult
	OverallStatus ack.Status `json:"overall_status"`
	Summary       string     `json:"summary"`
}

type summaryGroup struct {
	FunctionalIDCode   string     `json:"functional_id_code"`
	GroupControlNumber string     `json:"group_control_number"`
	Status             ack.Status `json:"status"`
	AckCode            string     `json:"ack_code"`
	Included           int        `json:"transaction_sets_included"`
	Accepted           int        `json:"transaction_sets_accepted"`
	TotalErrors        int        `json:"total_errors"`
}

type summaryTransaction struct {
	TransactionSetID string     `json:"transaction_set_id"`
	ControlNumber    string     `json:"transaction_control_number"`
	Status           ack.Status `json:"status"`
	AckCode          string     `json:"ack_code"`
	ErrorCount       int        `json:"error_count"`
}

type summaryView struct {
	InterchangeControlNumber string               `json:"interchange_control_number"`
	SenderID                 string               `json:"interchange_sender_id"`
	ReceiverID               string               `json:"interchange_receiver_id"`
	IsValid                  bool                 `json:"is_valid"`
	OverallStatus            ack.Status           `json:"overall_status"`
	Summary                  string               `json:"summary"`
	Timestamp                time.Time            `json:"validation_timestamp"`
	FunctionalGroup          summaryGroup         `json:"functional_group"`
	TransactionSets          []summaryTransaction `json:"transaction_sets"`
}

type compactView struct {
	ICN       string     `json:"icn"`
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Valid     bool       `json:"valid"`
	Status    ack.Status `json:"status"`
	Accepted  int        `json:"accepted"`
	Total     int        `json:"total"`
	Errors    int        `json:"errors"`
	Timestamp time.Time  `json:"timestamp"`
}

// ValidationView returns the value serialized for res in the given mode.
func ValidationView(res *ack.ValidationResult, mode JSONMode) (any, error) {
	fg := res.FunctionalGroup
	switch mode {
	case ModeFull, "":
		return fullView{ValidationResult: res, OverallStatus: res.OverallStatus(), Summary: res.Summary()}, nil
	case ModeSummary:
		txns := make([]summaryTransaction, 0, len(fg.Transactions))
		for _, ts := range fg.Transactions {
			txns = append(txns, summaryTransaction{
				TransactionSetID: ts.TransactionSetID,
				ControlNumber:    ts.ControlNumber,
				Status:           ts.Status,
				AckCode:          ts.AckCode,
				ErrorCount:       ts.ErrorCount,
			})
		}
		return summaryView{
			InterchangeControlNumber: res.InterchangeControlNumber,
			SenderID:                 res.SenderID,
			ReceiverID:               res.ReceiverID,
			IsValid:                  res.IsValid,
			OverallStatus:            res.OverallStatus(),
			Summary:                  res.Summary(),
			Timestamp:                res.Timestamp,
			FunctionalGroup: summaryGroup{
				FunctionalIDCode:   fg.FunctionalIDCode,
				GroupControlNumber: fg.GroupControlNumber,
				Status:             fg.Status,
				AckCode:            fg.AckCode,
				Included:           fg.Included,
				Accepted:           fg.Accepted,
				TotalErrors:        fg.TotalErrors(),
			},
			TransactionSets: txns,
		}, nil
	case ModeCompact:
		return compactView{
			ICN:       res.InterchangeControlNumber,
			Sender:    res.SenderID,
			Receiver:  res.ReceiverID,
			Valid:     res.IsValid,
			Status:    res.OverallStatus(),
			Accepted:  fg.Accepted,
			Total:     fg.Included,
			Errors:    fg.TotalErrors(),
			Timestamp: res.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("invalid JSON mode %q", mode)
	}
}

// CombinedView pairs a validation view with a reconciliation result.
type CombinedView struct {
	Validation     any               `json:"validation"`
	Reconciliation *reconcile.Result `json:"reconciliation"`
}

// Combined returns the combined reconcile output with the validation in full mode.
func Combined(res *ack.ValidationResult, rec *reconcile.Result) CombinedView {
	v, _ := ValidationView(res, ModeFull)
	return CombinedView{Validation: v, Reconciliation: rec}
}

// WriteJSON encodes v to w, indented by two spaces when pretty. HTML characters
// are not escaped.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteValidationJSON writes res in the given mode.
func WriteValidationJSON(w io.Writer, res *ack.ValidationResult, mode JSONMode, pretty bool) error {
	v, err := ValidationView(res, mode)
	if err != nil {
		return err
	}
	return WriteJSON(w, v, pretty)
}
