package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brochure-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_SaveAndGetAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := &model.Analysis{
		Mode:       "compare",
		PlanName:   "",
		Sources:    []string{"gold.pdf", "https://insurer.example/silver.pdf"},
		Dropped:    []string{"bronze.pdf"},
		Model:      "claude-sonnet-4-5-20250929",
		InputChars: 5120,
		Response:   "| Feature | Document 1 | Document 2 |",
	}
	require.NoError(t, st.SaveAnalysis(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := st.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "compare", got.Mode)
	assert.Equal(t, a.Sources, got.Sources)
	assert.Equal(t, a.Dropped, got.Dropped)
	assert.Equal(t, a.Model, got.Model)
	assert.Equal(t, 5120, got.InputChars)
	assert.Equal(t, a.Response, got.Response)
	assert.WithinDuration(t, a.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLite_SaveKeepsGivenID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := &model.Analysis{ID: "fixed-id", Mode: "analyze", Sources: []string{"a.pdf"}, Model: "m", Response: "r"}
	require.NoError(t, st.SaveAnalysis(ctx, a))
	assert.Equal(t, "fixed-id", a.ID)

	got, err := st.GetAnalysis(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Nil(t, got.Dropped)

	assert.Error(t, st.SaveAnalysis(ctx, a), "duplicate id")
}

func TestSQLite_GetAnalysis_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListAnalyses_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"first.pdf", "second.pdf", "third.pdf"} {
		require.NoError(t, st.SaveAnalysis(ctx, &model.Analysis{
			Mode:      "analyze",
			Sources:   []string{label},
			Model:     "m",
			Response:  "r",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := st.ListAnalyses(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"third.pdf"}, all[0].Sources)
	assert.Equal(t, []string{"first.pdf"}, all[2].Sources)

	two, err := st.ListAnalyses(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestSQLite_ListAnalyses_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	out, err := st.ListAnalyses(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}
