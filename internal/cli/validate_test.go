package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/roach88/edi997/internal/report"
	"github.com/roach88/edi997/internal/testutil"
)

func TestValidateAcceptedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ack.edi", testutil.Accepted997())

	stdout, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "METRIC")
	assert.Contains(t, stdout, "OK ACCEPTED")
	assert.Contains(t, stdout, path)
}

func TestValidateRejectedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ack.edi", testutil.Rejected997())

	stdout, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 file(s) not valid")
	assert.Contains(t, stdout, "FAIL REJECTED")
}

func TestValidateUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.edi", testutil.Accepted997())
	bad := writeFile(t, dir, "bad.edi", "ISA*broken~")

	stdout, _, err := execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "OK ACCEPTED")
	assert.Contains(t, stdout, "✗ "+bad)
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing.edi"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateJSONFormat(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.edi", testutil.Accepted997())
	bad := writeFile(t, dir, "bad.edi", "ISA*broken~")

	stdout, _, err := execute(t, "--format", "json", "validate", good, bad)
	require.Error(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []FileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Valid)
	assert.Equal(t, "ACCEPTED: 1/1 transaction sets accepted", resp.Data[0].Summary)
	require.NotNil(t, resp.Data[1].Error)
	assert.Equal(t, ErrCodeParse, resp.Data[1].Error.Code)
	assert.Equal(t, map[string]interface{}{"x12_code": "INVALID_HEADER"}, resp.Data[1].Error.Details)
}

func TestValidateJSONReport(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ack.edi", testutil.Partial997())

	stdout, _, err := execute(t, "validate", "--report", "json", "--json-mode", "compact", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "PARTIALLY_ACCEPTED", got["status"])
	assert.Equal(t, false, got["valid"])
}

func TestValidateJSONReportMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.edi", testutil.Accepted997())
	b := writeFile(t, dir, "b.edi", testutil.Accepted997())

	stdout, _, err := execute(t, "validate", "--report", "json", "--json-mode", "compact", "--pretty", a, b)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Len(t, got, 2)
	assert.Contains(t, stdout, "\n  ")
}

func TestValidateMarkdownReportToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ack.edi", testutil.Rejected997())
	out := filepath.Join(dir, "report.md")

	stdout, _, err := execute(t, "validate", "--report", "markdown", "-o", out, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# 997 Functional Acknowledgment Validation Report"))
}

func TestValidateXLSXReport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ack.edi", testutil.Accepted997())
	out := filepath.Join(dir, "report.xlsx")

	_, _, err := execute(t, "validate", "--report", "xlsx", "-o", out, path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SheetSummary, report.SheetTransactions, report.SheetErrors}, f.GetSheetList())
}

func TestValidateInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.edi", testutil.Accepted997())
	b := writeFile(t, dir, "b.edi", testutil.Accepted997())

	tests := []struct {
		name string
		args []string
	}{
		{"unknown report", []string{"validate", "--report", "pdf", a}},
		{"unknown json mode", []string{"validate", "--json-mode", "tiny", a}},
		{"xlsx with two files", []string{"validate", "--report", "xlsx", a, b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, ErrCodeFlags)
		})
	}
}

func TestValidateRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	path := writeFile(t, dir, "ack.edi", testutil.Accepted997())

	stdout, _, err := execute(t, "validate", "--db", db, path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Recorded as run ")

	stdout, _, err = execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data []struct {
			Source string `json:"source"`
			Valid  bool   `json:"is_valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, path, resp.Data[0].Source)
	assert.True(t, resp.Data[0].Valid)
}
