package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/x12"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/accepted_reconciled.yaml")
	require.NoError(t, err)

	assert.Equal(t, "accepted_reconciled", s.Name)
	assert.Equal(t, ack.StatusAccepted, s.Expect.Status)
	require.NotNil(t, s.Expect.IsValid)
	assert.True(t, *s.Expect.IsValid)
	require.NotNil(t, s.Outbound)
	assert.Equal(t, "1234", s.Outbound.GroupControlNumber)
	require.Len(t, s.Outbound.Transactions, 1)
	assert.Equal(t, OutboundTxnSpec{SetID: "850", ControlNumber: "5678"}, s.Outbound.Transactions[0])
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertReconciliationStatus, s.Assertions[1].Type)
}

func TestLoadScenario_ResolvesInputFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/input_file.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "edi", "accepted.edi"), s.InputFile)
}

func TestLoadScenario_ParserOverrides(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_segment_allowed.yaml")
	require.NoError(t, err)
	require.NotNil(t, s.Parser)
	require.NotNil(t, s.Parser.AllowUnknownSegments)
	assert.True(t, *s.Parser.AllowUnknownSegments)
	assert.Nil(t, s.Parser.AutoDetectDelimiters)
}

func TestLoadScenario_ExpectError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/empty_input.yaml")
	require.NoError(t, err)
	assert.Equal(t, x12.ErrCodeEmptyInput, s.Expect.Error)
	assert.Empty(t, s.Input)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nexpect:\n  status: ACCEPTED\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nexpect:\n  status: ACCEPTED\n",
			wantErr: "description is required",
		},
		{
			name:    "no expectation",
			yaml:    "name: x\ndescription: y\ninput: ISA\n",
			wantErr: "expect.status or expect.error is required",
		},
		{
			name:    "input and input_file",
			yaml:    "name: x\ndescription: y\ninput: ISA\ninput_file: a.edi\nexpect:\n  status: ACCEPTED\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "error with assertions",
			yaml:    "name: x\ndescription: y\nexpect:\n  error: EMPTY_INPUT\nassertions:\n  - type: group_count\n    count: 1\n",
			wantErr: "expect.error cannot be combined",
		},
		{
			name:    "fully_reconciled without outbound",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\n  fully_reconciled: true\n",
			wantErr: "requires outbound",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertions:\n  - type: trace_order\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "assertion without type",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertions:\n  - control_number: \"1\"\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "transaction_status without status",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertions:\n  - type: transaction_status\n    control_number: \"1\"\n",
			wantErr: "control_number and status are required",
		},
		{
			name:    "reconciliation_status without outbound",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertions:\n  - type: reconciliation_status\n    control_number: \"1\"\n    status: MATCHED\n",
			wantErr: "reconciliation_status requires outbound",
		},
		{
			name:    "group_count zero",
			yaml:    "name: x\ndescription: y\nexpect:\n  status: ACCEPTED\nassertions:\n  - type: group_count\n",
			wantErr: "count must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "accepted_reconciled")
	assert.Contains(t, names, "empty_input")
}

func TestLoadScenarios_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	body := []byte("name: same\ndescription: d\nexpect:\n  error: EMPTY_INPUT\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), body, 0o644))

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" already used`)
}

func TestOutboundSpec_Group(t *testing.T) {
	spec := &OutboundSpec{
		FunctionalIDCode:   "PO",
		GroupControlNumber: "1234",
		Transactions:       []OutboundTxnSpec{{SetID: "850", ControlNumber: "5678"}},
	}
	g, err := spec.Group()
	require.NoError(t, err)
	require.Len(t, g.Transactions, 1)
	assert.Equal(t, "1234", g.Transactions[0].GroupControlNumber)
	assert.Equal(t, "PO", g.Transactions[0].FunctionalIDCode)

	spec.Transactions = append(spec.Transactions, OutboundTxnSpec{SetID: "850", ControlNumber: "5678"})
	_, err = spec.Group()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
