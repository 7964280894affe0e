package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odagate/odagate/internal/adapters/outbound/history"
	"github.com/odagate/odagate/internal/domain"
)

func openDB(t *testing.T) (*history.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "history.db")
	h, err := history.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h, path
}

func entry(id string, started time.Time, passed bool) domain.RunEntry {
	return domain.RunEntry{
		RunID:      id,
		Release:    "2025-01",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Passed:     passed,
		High:       1,
		Medium:     2,
		Info:       3,
		ReportPath: "/reports/validation_2025-01.md",
		CommitHash: "abc1234",
		Dirty:      true,
	}
}

func TestHistory_RecordAndList(t *testing.T) {
	h, _ := openDB(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, h.Record(ctx, entry("run-1", start, true)))

	runs, err := h.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entry("run-1", start, true), runs[0])
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	h, _ := openDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, h.Record(ctx, entry("run-1", base, true)))
	require.NoError(t, h.Record(ctx, entry("run-3", base.Add(2*time.Hour), false)))
	require.NoError(t, h.Record(ctx, entry("run-2", base.Add(time.Hour), true)))

	runs, err := h.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunID)
	assert.False(t, runs[0].Passed)
	assert.Equal(t, "run-2", runs[1].RunID)

	all, err := h.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_ListEmpty(t *testing.T) {
	h, _ := openDB(t)
	runs, err := h.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestHistory_DuplicateRunID(t *testing.T) {
	h, _ := openDB(t)
	ctx := context.Background()
	e := entry("run-1", time.Now().UTC(), true)
	require.NoError(t, h.Record(ctx, e))
	assert.Error(t, h.Record(ctx, e))
}

func TestHistory_ReopenKeepsRuns(t *testing.T) {
	h, path := openDB(t)
	ctx := context.Background()
	require.NoError(t, h.Record(ctx, entry("run-1", time.Now().UTC(), true)))
	require.NoError(t, h.Close())

	again, err := history.Open(ctx, path)
	require.NoError(t, err)
	defer again.Close()

	runs, err := again.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
