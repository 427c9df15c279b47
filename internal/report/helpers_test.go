package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/testutil"
)

func intp(n int) *int { return &n }

// sampleResult is a partially accepted group: 5678 accepted, 5679 rejected with
// three errors.
func sampleResult() *ack.ValidationResult {
	rejected := ack.NewTransactionSetValidation("850", "5679", "R", ack.StatusRejected, []ack.ErrorDetail{
		{SegmentID: "PO1", SegmentPosition: intp(3), ErrorCode: "8", ErrorDescription: "Segment has data element errors", Severity: ack.SeverityError},
		{SegmentID: "PO1", SegmentPosition: intp(3), ElementPosition: intp(2), ErrorCode: "7", ErrorDescription: "Invalid code value", Severity: ack.SeverityError, BadData: "XX"},
		{ErrorCode: "5", ErrorDescription: "One or more segments in error", Severity: ack.SeverityError},
	}, []string{"5"})

	group := ack.FunctionalGroupValidation{
		FunctionalIDCode:   "PO",
		GroupControlNumber: "1234",
		Status:             ack.StatusPartiallyAccepted,
		AckCode:            "P",
		Included:           2,
		Received:           2,
		Accepted:           1,
		Transactions: []ack.TransactionSetValidation{
			ack.NewTransactionSetValidation("850", "5678", "A", ack.StatusAccepted, nil, nil),
			rejected,
		},
		SyntaxErrorCodes: []string{},
	}
	return &ack.ValidationResult{
		InterchangeControlNumber: "000000001",
		SenderID:                 "SENDER",
		ReceiverID:               "RECEIVER",
		FunctionalGroup:          group,
		FunctionalGroups:         []ack.FunctionalGroupValidation{group},
		Timestamp:                testutil.DefaultTime,
		IsValid:                  false,
	}
}

// sampleReconciliation matches sampleResult against 5678 and 5680.
func sampleReconciliation(t *testing.T, res *ack.ValidationResult) *reconcile.Result {
	t.Helper()
	out := reconcile.OutboundFunctionalGroup{
		FunctionalIDCode:   "PO",
		GroupControlNumber: "1234",
		Transactions: []reconcile.OutboundTransaction{
			{TransactionSetID: "850", ControlNumber: "5678", GroupControlNumber: "1234", FunctionalIDCode: "PO"},
			{TransactionSetID: "850", ControlNumber: "5680", GroupControlNumber: "1234", FunctionalIDCode: "PO"},
		},
	}
	rec, err := reconcile.NewReconciler(nil).Reconcile(res, out)
	require.NoError(t, err)
	return rec
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
