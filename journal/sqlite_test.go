package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stocksim/market"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func sampleTx(id, account string, ts time.Time) Transaction {
	return Transaction{
		ID:        id,
		AccountID: account,
		Symbol:    "AAPL",
		Quantity:  10,
		Price:     15000,
		Kind:      market.OrderMarket,
		Side:      market.SideBuy,
		Timestamp: ts,
	}
}

func TestSQLiteRecordAndList(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(sampleTx("T1", "acct-1", t0)))
	require.NoError(t, j.Record(sampleTx("T2", "acct-1", t0.Add(time.Minute))))
	require.NoError(t, j.Record(sampleTx("T3", "acct-2", t0.Add(2*time.Minute))))

	txs, err := j.ListByAccount("acct-1")
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Newest first.
	assert.Equal(t, "T2", txs[0].ID)
	assert.Equal(t, "T1", txs[1].ID)
	assert.Equal(t, market.SideBuy, txs[0].Side)
	assert.Equal(t, market.Cents(15000), txs[0].Price)
}

func TestSQLiteListEmptyAccount(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	txs, err := j.ListByAccount("nobody")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSQLiteDuplicateIDRejected(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	t0 := time.Now().UTC()

	require.NoError(t, j.Record(sampleTx("T1", "acct-1", t0)))
	assert.Error(t, j.Record(sampleTx("T1", "acct-1", t0)))
}

func TestSQLiteReset(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	require.NoError(t, j.Record(sampleTx("T1", "acct-1", time.Now().UTC())))
	require.NoError(t, j.Reset())

	txs, err := j.ListByAccount("acct-1")
	require.NoError(t, err)
	assert.Empty(t, txs)
}
