// internal/game/progress.go
//
// Progress reporting and winner selection for a single race.
// Responsibilities:
//   - Validate reported progress (NaN and >1 rejected; negatives pass
//     through unchanged, matching the reference behavior).
//   - Apply the value to the player, last write wins.
//   - Crown the first player to reach 1.0 — exactly once per game.
//
// Notes:
//   - Progress updates are not a liveness signal: LastPing is untouched.
//   - Callers serialize: the check-then-set on the winner flag is only
//     safe under the store's lock.

package game

import "math"

// ApplyProgress records a progress report for one player.
// Returns whether this call made the player the winner.
//
// Validation rules:
//   - The player must exist in the game.
//   - progress must be a real number no greater than 1. Values below 0
//     are accepted as-is; only the upper bound is enforced.
//
// Winner rule:
//   - On progress == 1, the player wins iff no player in the game has
//     won before. The flag is never unset or reassigned.
func ApplyProgress(g *Game, playerID string, progress float64) (won bool, err error) {
	p, ok := g.Players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	if math.IsNaN(progress) || progress > 1 {
		return false, ErrInvalidProgress
	}

	p.Progress = progress
	if progress == 1 && !g.HasWinner() {
		p.Winner = true
		return true, nil
	}
	return false, nil
}
