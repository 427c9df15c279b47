package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/pipeline"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/testutil"
)

// createTestStore creates a store with a frozen clock and sequential run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, _ := createTestStoreWithClock(t)
	return s
}

func createTestStoreWithClock(t *testing.T) (*Store, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(testutil.DefaultTime)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock), WithIDGenerator(testutil.NewSequenceIDGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// validate runs content through the default pipeline.
func validate(t *testing.T, content string) *ack.ValidationResult {
	t.Helper()
	p, err := pipeline.New(config.Default(), pipeline.WithClock(testutil.NewFixedClock(testutil.DefaultTime)))
	require.NoError(t, err)
	res, err := p.Validate(content)
	require.NoError(t, err)
	return res
}

// outboundGroup builds a PO group with 850 transactions under the given control numbers.
func outboundGroup(gcn string, controlNumbers ...string) reconcile.OutboundFunctionalGroup {
	g := reconcile.OutboundFunctionalGroup{
		FunctionalIDCode:   "PO",
		GroupControlNumber: gcn,
		Transactions:       []reconcile.OutboundTransaction{},
	}
	for _, cn := range controlNumbers {
		g.Transactions = append(g.Transactions, reconcile.OutboundTransaction{
			TransactionSetID:   "850",
			ControlNumber:      cn,
			GroupControlNumber: gcn,
			FunctionalIDCode:   "PO",
		})
	}
	return g
}
