package reconcile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
)

func ackTxn(setID, cn string) ack.TransactionSetValidation {
	return ack.NewTransactionSetValidation(setID, cn, "A", ack.StatusAccepted, nil, nil)
}

func outTxn(setID, cn string) OutboundTransaction {
	return OutboundTransaction{TransactionSetID: setID, ControlNumber: cn, GroupControlNumber: "1234", FunctionalIDCode: "PO"}
}

func validation(gcn string, txns ...ack.TransactionSetValidation) *ack.ValidationResult {
	fg := ack.FunctionalGroupValidation{
		FunctionalIDCode:   "PO",
		GroupControlNumber: gcn,
		Status:             ack.StatusAccepted,
		AckCode:            "A",
		Transactions:       txns,
	}
	return &ack.ValidationResult{FunctionalGroup: fg, FunctionalGroups: []ack.FunctionalGroupValidation{fg}, IsValid: true}
}

func outbound(txns ...OutboundTransaction) OutboundFunctionalGroup {
	return OutboundFunctionalGroup{FunctionalIDCode: "PO", GroupControlNumber: "1234", Transactions: txns}
}

func TestReconcile_AllMatched(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(
		validation("1234", ackTxn("850", "5678"), ackTxn("850", "5679")),
		outbound(outTxn("850", "5679"), outTxn("850", "5678")),
	)
	require.NoError(t, err)

	assert.True(t, res.IsFullyReconciled)
	assert.Equal(t, "2/2 transactions matched", res.Summary)
	assert.Equal(t, 2, res.MatchedCount())
	assert.Equal(t, 2, res.TotalCount())

	recs := res.FunctionalGroup.Transactions
	require.Len(t, recs, 2)
	assert.Equal(t, "5678", recs[0].ControlNumber(), "sorted by control number")
	assert.Equal(t, "5679", recs[1].ControlNumber())
	assert.True(t, recs[0].IsMatched())
	assert.Empty(t, recs[0].MismatchReason)
}

func TestReconcile_MissingAck(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(validation("1234"), outbound(outTxn("850", "5678")))
	require.NoError(t, err)

	recs := res.FunctionalGroup.Transactions
	require.Len(t, recs, 1)
	assert.Equal(t, StatusMissingAck, recs[0].Status)
	assert.Nil(t, recs[0].Acknowledgment)
	assert.Equal(t, "No acknowledgment received for transaction 5678", recs[0].MismatchReason)
	assert.False(t, res.IsFullyReconciled)
	assert.Equal(t, "0/1 transactions matched, 1 missing acknowledgments", res.Summary)
}

func TestReconcile_UnexpectedAck(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(validation("1234", ackTxn("850", "9999")), outbound())
	require.NoError(t, err)

	recs := res.FunctionalGroup.Transactions
	require.Len(t, recs, 1)
	assert.Equal(t, StatusUnexpectedAck, recs[0].Status)
	assert.Nil(t, recs[0].Outbound)
	assert.Equal(t, "Unexpected acknowledgment for transaction 9999", recs[0].MismatchReason)
	assert.Equal(t, "0/1 transactions matched, 1 unexpected acknowledgments", res.Summary)
}

func TestReconcile_ControlNumberMismatch(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(validation("1234", ackTxn("810", "5678")), outbound(outTxn("850", "5678")))
	require.NoError(t, err)

	rec := res.FunctionalGroup.Transactions[0]
	assert.Equal(t, StatusControlNumberMismatch, rec.Status)
	assert.Equal(t, "Transaction set ID mismatch: expected 850, got 810", rec.MismatchReason)
	assert.Equal(t, 1, res.FunctionalGroup.MismatchCount())
	assert.Equal(t, "0/1 transactions matched", res.Summary)
}

func TestReconcile_MixedSummary(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(
		validation("1234", ackTxn("850", "0001"), ackTxn("850", "0003")),
		outbound(outTxn("850", "0001"), outTxn("850", "0002")),
	)
	require.NoError(t, err)
	assert.Equal(t, "1/3 transactions matched, 1 missing acknowledgments, 1 unexpected acknowledgments", res.Summary)

	statuses := []Status{}
	for _, r := range res.FunctionalGroup.Transactions {
		statuses = append(statuses, r.Status)
	}
	assert.Equal(t, []Status{StatusMatched, StatusMissingAck, StatusUnexpectedAck}, statuses)
}

func TestReconcile_EmptyIsNotFullyReconciled(t *testing.T) {
	res, err := NewReconciler(nil).Reconcile(validation("1234"), outbound())
	require.NoError(t, err)
	assert.False(t, res.IsFullyReconciled)
	assert.Equal(t, "0/0 transactions matched", res.Summary)
}

func TestReconcile_GroupSelection(t *testing.T) {
	first := ack.FunctionalGroupValidation{GroupControlNumber: "1000", Transactions: []ack.TransactionSetValidation{ackTxn("850", "0001")}}
	second := ack.FunctionalGroupValidation{GroupControlNumber: "1234", Transactions: []ack.TransactionSetValidation{ackTxn("850", "5678")}}
	result := &ack.ValidationResult{FunctionalGroup: first, FunctionalGroups: []ack.FunctionalGroupValidation{first, second}}

	res, err := NewReconciler(nil).Reconcile(result, outbound(outTxn("850", "5678")))
	require.NoError(t, err)
	assert.Equal(t, "1234", res.FunctionalGroup.GroupControlNumber)
	assert.True(t, res.IsFullyReconciled)
}

func TestReconcile_GroupMismatchWarnsAndUsesFirst(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	res, err := NewReconciler(logger).Reconcile(validation("9999", ackTxn("850", "5678")), outbound(outTxn("850", "5678")))
	require.NoError(t, err)
	assert.Equal(t, "9999", res.FunctionalGroup.GroupControlNumber)
	assert.True(t, res.IsFullyReconciled)
	assert.Contains(t, buf.String(), "group_control_number_mismatch")
}

func TestReconcile_NilResult(t *testing.T) {
	_, err := NewReconciler(nil).Reconcile(nil, outbound())
	assert.Error(t, err)
}

func TestMatchTransaction_NoSides(t *testing.T) {
	_, err := MatchTransaction(nil, nil)
	assert.True(t, errors.Is(err, ErrNoSides))

	_, err = NewTransactionReconciliation(nil, nil, StatusMatched, "")
	assert.ErrorIs(t, err, ErrNoSides)
}

func TestFunctionalGroupReconciliation_IsFullyReconciled(t *testing.T) {
	matched := TransactionReconciliation{Status: StatusMatched}
	missing := TransactionReconciliation{Status: StatusMissingAck}

	assert.False(t, FunctionalGroupReconciliation{}.IsFullyReconciled())
	assert.True(t, FunctionalGroupReconciliation{Transactions: []TransactionReconciliation{matched, matched}}.IsFullyReconciled())
	assert.False(t, FunctionalGroupReconciliation{Transactions: []TransactionReconciliation{matched, missing}}.IsFullyReconciled())
}
