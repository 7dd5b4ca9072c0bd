// internal/results/store.go
//
// SQLite-backed history of finished races. One row per race, written when
// a winner is crowned. Live game state is never persisted here.

package results

import (
	"context"
	"database/sql"
)

// Result is one finished race.
type Result struct {
	GameID     string `json:"gameId"`
	TextID     string `json:"textId"`
	WinnerName string `json:"winnerName"`
	Players    int    `json:"players"`
	FinishedAt string `json:"finishedAt"`
}

// Store wraps the results table.
type Store struct{ db *sql.DB }

// NewStore constructs a results Store over an open database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a finished race.
func (s *Store) Insert(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO race_results(game_id, text_id, winner_name, players, finished_at)
		 VALUES(?,?,?,?,?)`,
		r.GameID, r.TextID, r.WinnerName, r.Players, r.FinishedAt,
	)
	return err
}

// Recent returns the latest finished races, newest first.
// Default limit is 20 if not specified.
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, text_id, winner_name, players, finished_at
		 FROM race_results
		 ORDER BY finished_at DESC, rowid DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.GameID, &r.TextID, &r.WinnerName, &r.Players, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
