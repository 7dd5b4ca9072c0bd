// internal/store/memory.go
//
// In-memory implementation of the race Store interface.
// This is the only persistence layer for live games: rooms are ephemeral
// and state is lost when the process restarts.
//
// Characteristics:
//   - Stores *game.Game objects keyed by ID in a map.
//   - A single mutex serializes every public operation end-to-end, so no
//     caller observes a half-mutated game and the winner check-then-set
//     cannot race.
//   - Each public operation first reaps: players silent longer than the
//     TTL are removed, then games left with no players. Visible state is
//     therefore never staler than one call.
//   - Callers get copies (snapshots), never references into the map.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/asplabs/typerace/internal/game"
)

// Store defines the registry interface for race rooms.
type Store interface {
	// CreateGame allocates a fresh game for textID and seeds its first
	// player, who becomes the room admin. Returns both ids.
	CreateGame(ctx context.Context, textID string) (gameID, playerID string, err error)

	// AddPlayer joins a new player into an existing game.
	// Returns game.ErrGameNotFound or game.ErrNamesExhausted.
	AddPlayer(ctx context.Context, gameID string) (playerID string, err error)

	// GetGame returns a read-only snapshot of a game.
	GetGame(ctx context.Context, gameID string) (game.Snapshot, error)

	// UpdateProgress records a progress report and reports whether this
	// call crowned the game's winner. LastPing is deliberately untouched.
	UpdateProgress(ctx context.Context, gameID, playerID string, progress float64) (won bool, err error)

	// TouchPlayer marks the player as alive now.
	TouchPlayer(ctx context.Context, gameID, playerID string) error

	// TextID returns the id of the game's shared text.
	TextID(ctx context.Context, gameID string) (string, error)
}

// memory is the mutex-guarded map-based Store implementation.
type memory struct {
	mu    sync.Mutex            // serializes all operations, reap included
	games map[string]*game.Game // keyed by Game.ID
	ttl   time.Duration         // player silence allowance
	now   func() time.Time      // injected clock, overridable in tests
}

// NewMemoryStore constructs an in-memory Store with the given player TTL.
func NewMemoryStore(ttl time.Duration) Store {
	return &memory{
		games: make(map[string]*game.Game),
		ttl:   ttl,
		now:   time.Now,
	}
}

// CreateGame allocates the game id, creates the room, and seeds the admin.
func (m *memory) CreateGame(ctx context.Context, textID string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	gameID := game.NewID(func(id string) bool {
		_, exists := m.games[id]
		return exists
	})
	g := &game.Game{
		ID:      gameID,
		TextID:  textID,
		Players: make(map[string]*game.Player),
	}

	playerID, err := m.addPlayer(g)
	if err != nil {
		// Unreachable with an empty room; kept for the contract.
		return "", "", err
	}
	g.AdminPlayerID = playerID
	m.games[gameID] = g
	return gameID, playerID, nil
}

// AddPlayer joins a new player into an existing game.
func (m *memory) AddPlayer(ctx context.Context, gameID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	g, ok := m.games[gameID]
	if !ok {
		return "", game.ErrGameNotFound
	}
	return m.addPlayer(g)
}

// addPlayer allocates id + name and inserts the player. Caller holds mu.
func (m *memory) addPlayer(g *game.Game) (string, error) {
	name, err := game.AllocateName(g.TakenNames())
	if err != nil {
		return "", err
	}
	id := game.NewID(func(id string) bool {
		_, exists := g.Players[id]
		return exists
	})
	now := m.now()
	g.Players[id] = &game.Player{
		ID:       id,
		Name:     name,
		JoinedAt: now,
		LastPing: now,
	}
	return id, nil
}

// GetGame returns a snapshot copy of the game.
func (m *memory) GetGame(ctx context.Context, gameID string) (game.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	g, ok := m.games[gameID]
	if !ok {
		return game.Snapshot{}, game.ErrGameNotFound
	}
	return g.Snapshot(), nil
}

// UpdateProgress applies a progress report under the lock.
func (m *memory) UpdateProgress(ctx context.Context, gameID, playerID string, progress float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	g, ok := m.games[gameID]
	if !ok {
		return false, game.ErrGameNotFound
	}
	return game.ApplyProgress(g, playerID, progress)
}

// TouchPlayer refreshes the player's liveness timestamp.
func (m *memory) TouchPlayer(ctx context.Context, gameID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	g, ok := m.games[gameID]
	if !ok {
		return game.ErrGameNotFound
	}
	p, ok := g.Players[playerID]
	if !ok {
		return game.ErrPlayerNotFound
	}
	p.LastPing = m.now()
	return nil
}

// TextID looks up the game's text reference.
func (m *memory) TextID(ctx context.Context, gameID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reap()

	g, ok := m.games[gameID]
	if !ok {
		return "", game.ErrGameNotFound
	}
	return g.TextID, nil
}

// reap runs the two-phase sweep: expired players first, then games left
// empty. O(total players); fine for a small bounded number of rooms.
// Caller holds mu.
func (m *memory) reap() {
	now := m.now()
	for gameID, g := range m.games {
		for playerID, p := range g.Players {
			if game.Expired(now, p.LastPing, m.ttl) {
				delete(g.Players, playerID)
			}
		}
		if len(g.Players) == 0 {
			delete(m.games, gameID)
		}
	}
}
