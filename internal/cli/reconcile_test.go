package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/testutil"
)

const sentJSON = `{
  "functional_id_code": "PO",
  "group_control_number": "1234",
  "transactions": [
    {"transaction_set_id": "850", "transaction_control_number": "5678", "group_control_number": "1234", "functional_id_code": "PO"},
    {"transaction_set_id": "850", "transaction_control_number": "5679", "group_control_number": "1234", "functional_id_code": "PO"}
  ]
}`

func TestReconcileFullyReconciled(t *testing.T) {
	dir := t.TempDir()
	ackPath := writeFile(t, dir, "ack.edi", testutil.Partial997())
	sent := writeFile(t, dir, "sent.json", sentJSON)

	stdout, _, err := execute(t, "reconcile", ackPath, sent)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OK Fully Reconciled")
	assert.Contains(t, stdout, "2/2 transactions matched")
}

func TestReconcileMissingAck(t *testing.T) {
	dir := t.TempDir()
	ackPath := writeFile(t, dir, "ack.edi", testutil.Accepted997())
	sent := writeFile(t, dir, "sent.json", sentJSON)

	stdout, _, err := execute(t, "reconcile", ackPath, sent)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1/2 transactions matched, 1 missing acknowledgments", err.Error())
	assert.Contains(t, stdout, "MISSING_ACK 5679: No acknowledgment received for transaction 5679")
}

func TestReconcileJSONFormat(t *testing.T) {
	dir := t.TempDir()
	ackPath := writeFile(t, dir, "ack.edi", testutil.Accepted997())
	sent := writeFile(t, dir, "sent.json", sentJSON)

	stdout, _, err := execute(t, "--format", "json", "reconcile", ackPath, sent)
	require.Error(t, err)

	var resp struct {
		Data ReconcileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 1, resp.Data.Matched)
	assert.Equal(t, 1, resp.Data.MissingAck)
	assert.Equal(t, 2, resp.Data.Total)
	assert.False(t, resp.Data.FullyReconciled)
}

func TestReconcileReports(t *testing.T) {
	dir := t.TempDir()
	ackPath := writeFile(t, dir, "ack.edi", testutil.Partial997())
	sent := writeFile(t, dir, "sent.json", sentJSON)

	stdout, _, err := execute(t, "reconcile", "--report", "json", ackPath, sent)
	require.NoError(t, err)
	var combined map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(stdout), &combined))
	assert.Contains(t, combined, "validation")
	assert.Contains(t, combined, "reconciliation")

	stdout, _, err = execute(t, "reconcile", "--report", "markdown", ackPath, sent)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "# 997 Validation & Reconciliation Report"))
}

func TestReconcileErrors(t *testing.T) {
	dir := t.TempDir()
	ackPath := writeFile(t, dir, "ack.edi", testutil.Accepted997())
	badAck := writeFile(t, dir, "bad.edi", "ISA*broken~")
	sent := writeFile(t, dir, "sent.json", sentJSON)
	badSent := writeFile(t, dir, "bad.json", `{"functional_id_code": "PO"}`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"no outbound source", []string{"reconcile", ackPath}, ErrCodeFlags},
		{"unparseable 997", []string{"reconcile", badAck, sent}, ErrCodeParse},
		{"missing 997", []string{"reconcile", filepath.Join(dir, "none.edi"), sent}, ErrCodeNotFound},
		{"invalid outbound", []string{"reconcile", ackPath, badSent}, ErrCodeOutbound},
		{"unregistered group", []string{"reconcile", "--db", filepath.Join(dir, "runs.db"), ackPath}, ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, "Error ["+tt.wantCode+"]")
		})
	}
}

// TestReconcileFromRegistry tests reading the outbound group from the database
// and recording both runs.
func TestReconcileFromRegistry(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	ackPath := writeFile(t, dir, "ack.edi", testutil.Partial997())
	sent := writeFile(t, dir, "sent.json", sentJSON)

	stdout, _, err := execute(t, "outbound", "import", "--db", db, sent)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported outbound group 1234 (2 transactions)")

	stdout, _, err = execute(t, "--format", "json", "reconcile", "--db", db, ackPath)
	require.NoError(t, err)

	var resp struct {
		Data ReconcileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.True(t, resp.Data.FullyReconciled)
	assert.NotEmpty(t, resp.Data.ValidationRunID)
	assert.NotEmpty(t, resp.Data.ReconciliationRunID)

	stdout, _, err = execute(t, "history", "--db", db, "--reconciliations")
	require.NoError(t, err)
	assert.Contains(t, stdout, resp.Data.ReconciliationRunID)
	assert.Contains(t, stdout, "1234")
}
