// internal/game/types.go
//
// Core type definitions for a typing race.
// Defines:
//   - Game: one race room — shared text, admin, and its players.
//   - Player: one participant — display name, progress, winner flag, liveness.
//   - Snapshot/PlayerView: read-only copies handed out across the store boundary.

package game

import (
	"errors"
	"sort"
	"time"
)

// Sentinel errors shared by the domain and the store.
var (
	ErrGameNotFound    = errors.New("game not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidProgress = errors.New("invalid progress value")
	ErrNamesExhausted  = errors.New("player name pool exhausted")
)

// Game holds the live state of a single race room.
// Owned exclusively by the store; never handed out by reference.
type Game struct {
	ID            string             // Unique game identifier (random alphanumeric string).
	TextID        string             // Key of the shared text in the corpus (not owned here).
	AdminPlayerID string             // The creator: first player seeded into the room.
	Players       map[string]*Player // Keyed by Player.ID.
}

// Player holds the live state of one participant in a game.
type Player struct {
	ID       string    // Unique within the game.
	Name     string    // Display name, unique among live players at join time.
	Progress float64   // Fraction of the text typed; capped at 1, last write wins.
	Winner   bool      // Set once, for the first player to report progress 1.
	JoinedAt time.Time // Join order for stable snapshot output.
	LastPing time.Time // Last contact (join, explicit ping); drives expiry.
}

// Snapshot is a read-only copy of a game, safe to use after the
// store call that produced it returns.
type Snapshot struct {
	ID            string
	TextID        string
	AdminPlayerID string
	Players       []PlayerView // Sorted by join time.
}

// PlayerView is a read-only copy of a player.
type PlayerView struct {
	ID       string
	Name     string
	Progress float64
	Winner   bool
}

// Snapshot copies the game into an owned view, players sorted by join time.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		ID:            g.ID,
		TextID:        g.TextID,
		AdminPlayerID: g.AdminPlayerID,
		Players:       make([]PlayerView, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Progress: p.Progress,
			Winner:   p.Winner,
		})
	}
	sortPlayersByJoin(g, s.Players)
	return s
}

// HasWinner reports whether any player in the game already won.
func (g *Game) HasWinner() bool {
	for _, p := range g.Players {
		if p.Winner {
			return true
		}
	}
	return false
}

// TakenNames collects the display names currently in use in the game.
func (g *Game) TakenNames() map[string]struct{} {
	taken := make(map[string]struct{}, len(g.Players))
	for _, p := range g.Players {
		taken[p.Name] = struct{}{}
	}
	return taken
}

// sortPlayersByJoin orders views by the players' join times (id as tiebreak).
func sortPlayersByJoin(g *Game, views []PlayerView) {
	sort.Slice(views, func(i, j int) bool {
		ti, tj := g.Players[views[i].ID].JoinedAt, g.Players[views[j].ID].JoinedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return views[i].ID < views[j].ID
	})
}
