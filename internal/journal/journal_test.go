package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseJournal(t *testing.T, j Journal) {
	t.Helper()
	ctx := context.Background()

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i, tok := range []string{"a", "b", "c"} {
		require.NoError(t, j.Record(ctx, Entry{
			RequestID:  "req-" + tok,
			Token:      tok,
			Move:       "e" + tok,
			Status:     StatusOK,
			DurationMs: int64(i),
		}))
	}

	got, err = j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Token)
	assert.Equal(t, "b", got[1].Token)
	assert.Equal(t, "ec", got[0].Move)
	assert.Equal(t, int64(2), got[0].DurationMs)
	assert.WithinDuration(t, time.Now(), got[0].CreatedAt, time.Minute)

	got, err = j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestMemoryJournal(t *testing.T) {
	j := NewMemory(8)
	defer j.Close()
	exerciseJournal(t, j)
}

func TestMemoryJournalWraps(t *testing.T) {
	ctx := context.Background()
	j := NewMemory(3)
	for _, tok := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, j.Record(ctx, Entry{Token: tok, Status: StatusOK}))
	}
	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"5", "4", "3"}, []string{got[0].Token, got[1].Token, got[2].Token})
}

func TestSQLiteJournal(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "data", "journal.db")
	j, err := OpenSQLite(dsn)
	require.NoError(t, err)
	exerciseJournal(t, j)
	require.NoError(t, j.Close())

	// Reopening must not re-apply migrations or lose rows.
	j, err = OpenSQLite(dsn)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLiteJournalFailureEntry(t *testing.T) {
	j, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, Entry{Token: "x", Status: "engine_timeout", Detail: "context deadline exceeded"}))
	got, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "engine_timeout", got[0].Status)
	assert.Equal(t, "", got[0].Move)
	assert.Equal(t, "context deadline exceeded", got[0].Detail)
}
