package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHistory(t *testing.T) *HistoryStorage {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return NewHistoryStorage(sqlite)
}

func record(hash, label string, created time.Time) *AnalysisRecord {
	return &AnalysisRecord{
		TextHash:       hash,
		Operation:      "analyze",
		TokenCount:     5,
		EntityCount:    1,
		SentimentLabel: label,
		SentimentScore: 0.4,
		DurationMS:     1.5,
		CreatedAt:      created,
	}
}

func TestSaveAndGetRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, h.SaveAnalysis(ctx, record("aaa", "Pozitif", now.Add(-2*time.Minute))))
	require.NoError(t, h.SaveAnalysis(ctx, record("bbb", "Negatif", now.Add(-1*time.Minute))))
	require.NoError(t, h.SaveAnalysis(ctx, record("ccc", "Nötr", now)))

	records, err := h.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ccc", records[0].TextHash)
	assert.Equal(t, "bbb", records[1].TextHash)
}

func TestSaveFillsIDAndTimestamp(t *testing.T) {
	h := newTestHistory(t)

	rec := record("aaa", "Nötr", time.Time{})
	require.NoError(t, h.SaveAnalysis(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCount(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	count, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, h.SaveAnalysis(ctx, record("aaa", "Pozitif", time.Now().UTC())))
	count, err = h.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCountsByLabel(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, h.SaveAnalysis(ctx, record("a", "Pozitif", now)))
	require.NoError(t, h.SaveAnalysis(ctx, record("b", "Pozitif", now)))
	require.NoError(t, h.SaveAnalysis(ctx, record("c", "Negatif", now)))

	counts, err := h.CountsByLabel(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts["Pozitif"])
	assert.EqualValues(t, 1, counts["Negatif"])
}

func TestPruneOlderThan(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, h.SaveAnalysis(ctx, record("old", "Nötr", now.Add(-48*time.Hour))))
	require.NoError(t, h.SaveAnalysis(ctx, record("new", "Nötr", now)))

	removed, err := h.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	records, err := h.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].TextHash)
}

func TestRetentionManagerPrunesOnStart(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.SaveAnalysis(ctx, record("old", "Nötr", time.Now().UTC().Add(-72*time.Hour))))

	rm := NewRetentionManager(h, 1, time.Hour, zap.NewNop().Sugar())
	rm.Start()
	defer rm.Stop()

	assert.Eventually(t, func() bool {
		count, err := h.Count(ctx)
		return err == nil && count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSQLiteCloseReportsResult(t *testing.T) {
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "close.db"), zap.NewNop().Sugar())
	require.NoError(t, err)

	require.NoError(t, sqlite.Close())
	// Queries after close must surface an error, not panic.
	_, err = NewHistoryStorage(sqlite).Count(context.Background())
	assert.Error(t, err)
}

func TestRetentionManagerDisabled(t *testing.T) {
	h := newTestHistory(t)
	rm := NewRetentionManager(h, 0, time.Hour, zap.NewNop().Sugar())
	rm.Start()
	rm.Stop() // must not block when disabled
}

func TestRetentionManagerStopWithoutStart(t *testing.T) {
	h := newTestHistory(t)
	rm := NewRetentionManager(h, 1, time.Hour, zap.NewNop().Sugar())

	done := make(chan struct{})
	go func() {
		rm.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked when Start was never called")
	}
}
