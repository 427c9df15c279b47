package harness

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/testutil"
	"github.com/roach88/edi997/internal/x12"
)

// TestConformance runs every scenario under testdata/scenarios.
func TestConformance(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_AcceptedReconciled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/accepted_reconciled.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.ErrorCode)

	require.NotNil(t, result.Validation)
	assert.Equal(t, testutil.DefaultTime, result.Validation.Timestamp)
	require.NotNil(t, result.Reconciliation)
	assert.True(t, result.Reconciliation.IsFullyReconciled)
}

func TestRun_ExpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "empty",
		Description: "empty input",
		Expect:      Expect{Error: x12.ErrCodeEmptyInput},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, x12.ErrCodeEmptyInput, result.ErrorCode)
	assert.Nil(t, result.Validation)
}

func TestRun_WrongError(t *testing.T) {
	s := &Scenario{
		Name:        "wrong_error",
		Description: "expects a different code",
		Input:       "   ",
		Expect:      Expect{Error: x12.ErrCodeInvalidHeader},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error INVALID_HEADER")
	assert.Equal(t, x12.ErrCodeEmptyInput, result.ErrorCode)
}

func TestRun_ErrorExpectedButValid(t *testing.T) {
	s := &Scenario{
		Name:        "valid",
		Description: "valid input where an error is expected",
		Input:       testutil.Accepted997(),
		Expect:      Expect{Error: x12.ErrCodeMalformedSegment},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "got status ACCEPTED")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	s := &Scenario{
		Name:        "broken",
		Description: "input fails but a status is expected",
		Input:       "ISA*broken~",
		Expect:      Expect{Status: ack.StatusAccepted},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, x12.ErrCodeInvalidHeader, result.ErrorCode)
	assert.Contains(t, result.Errors[0], "validation failed")
}

func TestRun_ReportsEveryMismatch(t *testing.T) {
	valid, total := true, 5
	s := &Scenario{
		Name:        "mismatches",
		Description: "every expectation is wrong",
		Input:       testutil.Rejected997(),
		Expect: Expect{
			Status:      ack.StatusAccepted,
			IsValid:     &valid,
			TotalErrors: &total,
		},
		Assertions: []Assertion{
			{Type: AssertTransactionStatus, ControlNumber: "5678", Status: "ACCEPTED"},
			{Type: AssertTransactionErrors, ControlNumber: "5678", Codes: []string{"8"}},
			{Type: AssertGroupCount, Count: 2},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "expect.status")
	assert.Contains(t, result.Errors[0], "Expected: ACCEPTED")
	assert.Contains(t, result.Errors[0], "Actual: REJECTED")
	assert.Contains(t, result.Errors[1], "expect.is_valid")
	assert.Contains(t, result.Errors[2], "expect.total_errors")
	assert.Contains(t, result.Errors[3], "status REJECTED")
	assert.Contains(t, result.Errors[4], "error codes [8 7 5]")
	assert.Contains(t, result.Errors[5], "1 functional groups")
}

func TestRun_ParserOverrideApplied(t *testing.T) {
	allow := true
	s := &Scenario{
		Name:        "unknown",
		Description: "unknown segment",
		Parser:      &ParserOverrides{AllowUnknownSegments: &allow},
		Input: testutil.NewDocument().AddGroup("PO", "1234", "A",
			testutil.Transaction{SetID: "850", ControlNumber: "5678", AckCode: "A", Body: [][]string{{"N1", "ST", "NAME"}}},
		).String(),
		Expect: Expect{Status: ack.StatusAccepted},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	allow = false
	result, err = Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, x12.ErrCodeUnknownSegmentType, result.ErrorCode)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenario *Scenario
		wantErr  string
	}{
		{
			name:     "invalid scenario",
			scenario: &Scenario{Description: "no name", Expect: Expect{Status: ack.StatusAccepted}},
			wantErr:  "name is required",
		},
		{
			name: "conflicting delimiters",
			scenario: &Scenario{
				Name:        "delims",
				Description: "element equals segment",
				Parser: &ParserOverrides{DefaultDelimiters: &config.DelimitersConfig{
					Element: "*", Segment: "*", SubElement: ":",
				}},
				Expect: Expect{Status: ack.StatusAccepted},
			},
			wantErr: "scenario delims",
		},
		{
			name: "missing input file",
			scenario: &Scenario{
				Name:        "nofile",
				Description: "input file does not exist",
				InputFile:   "testdata/edi/none.edi",
				Expect:      Expect{Status: ack.StatusAccepted},
			},
			wantErr: "read input",
		},
		{
			name: "invalid outbound",
			scenario: &Scenario{
				Name:        "outbound",
				Description: "outbound without group control number",
				Input:       testutil.Accepted997(),
				Outbound:    &OutboundSpec{FunctionalIDCode: "PO"},
				Expect:      Expect{Status: ack.StatusAccepted},
			},
			wantErr: "group_control_number is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHarness_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	s, err := LoadScenario("testdata/scenarios/missing_ack.yaml")
	require.NoError(t, err)

	result, err := New(WithLogger(logger)).Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Contains(t, buf.String(), "scenario_complete")
	assert.Contains(t, buf.String(), "scenario=missing_ack")
}

func TestHarness_WithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Parser.MaxFileSizeMB = 1

	s := &Scenario{
		Name:        "too_large",
		Description: "input exceeds the configured size",
		Input:       strings.Repeat("x", 2<<20),
		Expect:      Expect{Error: x12.ErrCodeSizeExceeded},
	}

	result, err := New(WithConfig(cfg)).Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestNewSnapshot(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/missing_ack.yaml")
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	snap := NewSnapshot(s.Name, result)
	assert.Equal(t, "missing_ack", snap.Scenario)
	assert.Equal(t, ack.StatusAccepted, snap.Status)
	require.Len(t, snap.Transactions, 1)
	assert.Nil(t, snap.Transactions[0].ErrorCodes)
	require.NotNil(t, snap.Reconciliation)
	assert.False(t, snap.Reconciliation.FullyReconciled)
	assert.Equal(t, map[string]reconcile.Status{
		"5678": reconcile.StatusMatched,
		"5679": reconcile.StatusMissingAck,
	}, snap.Reconciliation.Statuses)
}
