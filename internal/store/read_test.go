package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/testutil"
)

// TestGetValidationRun tests that the stored result round-trips.
func TestGetValidationRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	content := testutil.Rejected997()
	res := validate(t, content)

	recorded, err := s.RecordValidation(ctx, "rejected.edi", []byte(content), res)
	require.NoError(t, err)

	run, got, err := s.GetValidationRun(ctx, recorded.ID)
	require.NoError(t, err)
	assert.Equal(t, recorded, run)
	assert.Equal(t, res.InterchangeControlNumber, got.InterchangeControlNumber)
	assert.Equal(t, ack.StatusRejected, got.OverallStatus())
	assert.Equal(t, res.TotalErrors(), got.TotalErrors())
	require.Len(t, got.FunctionalGroup.Transactions, 1)
	assert.Equal(t, res.FunctionalGroup.Transactions[0].Errors, got.FunctionalGroup.Transactions[0].Errors)
}

func TestGetValidationRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.GetValidationRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

// TestListValidationRuns tests newest-first ordering and the limit.
func TestListValidationRuns(t *testing.T) {
	s, clock := createTestStoreWithClock(t)
	ctx := context.Background()

	runs, err := s.ListValidationRuns(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	content := testutil.Accepted997()
	res := validate(t, content)
	for _, src := range []string{"a.edi", "b.edi", "c.edi"} {
		_, err := s.RecordValidation(ctx, src, []byte(content), res)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	runs, err = s.ListValidationRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c.edi", "b.edi", "a.edi"}, []string{runs[0].Source, runs[1].Source, runs[2].Source})

	runs, err = s.ListValidationRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.edi", runs[0].Source)
}

// TestListValidationRuns_SameTimestamp tests that ties break on ID.
func TestListValidationRuns_SameTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	content := testutil.Accepted997()
	res := validate(t, content)

	for range 3 {
		_, err := s.RecordValidation(ctx, "same.edi", []byte(content), res)
		require.NoError(t, err)
	}

	runs, err := s.ListValidationRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-0003", "run-0002", "run-0001"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

func TestFindValidationRunsByHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	accepted := testutil.Accepted997()
	rejected := testutil.Rejected997()
	for _, c := range []string{accepted, rejected, accepted} {
		_, err := s.RecordValidation(ctx, "in.edi", []byte(c), validate(t, c))
		require.NoError(t, err)
	}

	runs, err := s.FindValidationRunsByHash(ctx, ContentHash([]byte(accepted)))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, ack.StatusAccepted, r.Status)
	}

	runs, err = s.FindValidationRunsByHash(ctx, ContentHash([]byte("nothing")))
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListReconciliationRuns(t *testing.T) {
	s, clock := createTestStoreWithClock(t)
	ctx := context.Background()
	res := validate(t, testutil.Accepted997())
	r := reconcile.NewReconciler(nil)

	full, err := r.Reconcile(res, outboundGroup("1234", "5678"))
	require.NoError(t, err)
	partial, err := r.Reconcile(res, outboundGroup("1234", "5678", "5679"))
	require.NoError(t, err)

	_, err = s.RecordReconciliation(ctx, "", full)
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = s.RecordReconciliation(ctx, "", partial)
	require.NoError(t, err)

	runs, err := s.ListReconciliationRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.False(t, runs[0].FullyReconciled)
	assert.Equal(t, 1, runs[0].MissingAck)
	assert.True(t, runs[1].FullyReconciled)
	assert.Equal(t, testutil.DefaultTime, runs[1].RecordedAt)
}

func TestGetOutbound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ImportOutbound(ctx, outboundGroup("1234", "5679", "5678")))

	got, err := s.GetOutbound(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, outboundGroup("1234", "5678", "5679"), got)
	assert.NoError(t, got.Validate())
}

func TestGetOutbound_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetOutbound(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOutboundGroups(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, gcn := range []string{"300", "1234", "20"} {
		require.NoError(t, s.ImportOutbound(ctx, outboundGroup(gcn, "0001")))
	}

	groups, err := s.ListOutboundGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1234", "20", "300"}, groups)
}
