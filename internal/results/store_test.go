package results

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE race_results (
		game_id     TEXT NOT NULL,
		text_id     TEXT NOT NULL,
		winner_name TEXT NOT NULL,
		players     INTEGER NOT NULL,
		finished_at TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	require.NoError(t, err)
	return db
}

func TestInsertAndRecent(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	rows := []Result{
		{GameID: "g1", TextID: "fox", WinnerName: "Batta", Players: 2, FinishedAt: "2024-06-01T12:00:00Z"},
		{GameID: "g2", TextID: "rain", WinnerName: "Oda", Players: 3, FinishedAt: "2024-06-01T12:05:00Z"},
		{GameID: "g3", TextID: "fox", WinnerName: "Zoio", Players: 4, FinishedAt: "2024-06-01T12:10:00Z"},
	}
	for _, r := range rows {
		require.NoError(t, s.Insert(ctx, r))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, "g3", got[0].GameID)
	assert.Equal(t, "g2", got[1].GameID)

	// Zero limit falls back to the default.
	got, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecent_Empty(t *testing.T) {
	s := NewStore(newTestDB(t))
	got, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
