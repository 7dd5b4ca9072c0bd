package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asplabs/typerace/internal/game"
)

// fakeClock drives the store's injected clock in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*memory, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m := NewMemoryStore(game.DefaultTTL).(*memory)
	m.now = clock.Now
	return m, clock
}

func TestCreateGame_RoundTrip(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()

	gameID, playerID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)
	require.NotEmpty(t, gameID)
	require.NotEmpty(t, playerID)

	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, gameID, snap.ID)
	assert.Equal(t, "fox", snap.TextID)
	assert.Equal(t, playerID, snap.AdminPlayerID)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, playerID, snap.Players[0].ID)
	assert.NotEmpty(t, snap.Players[0].Name)
	assert.Zero(t, snap.Players[0].Progress)
	assert.False(t, snap.Players[0].Winner)
}

func TestGetGame_NotFound(t *testing.T) {
	m, _ := newTestStore(t)
	_, err := m.GetGame(context.Background(), "missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestAddPlayer_DistinctIDsAndNames(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()

	gameID, creatorID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	ids := map[string]struct{}{creatorID: {}}
	for i := 0; i < game.MaxPlayersPerGame-1; i++ {
		playerID, err := m.AddPlayer(ctx, gameID)
		require.NoError(t, err)
		_, dup := ids[playerID]
		require.False(t, dup, "player id %q repeated", playerID)
		ids[playerID] = struct{}{}
	}

	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	names := make(map[string]struct{}, len(snap.Players))
	for _, p := range snap.Players {
		_, dup := names[p.Name]
		require.False(t, dup, "name %q repeated among live players", p.Name)
		names[p.Name] = struct{}{}
	}

	// The name pool is the room-size cap.
	_, err = m.AddPlayer(ctx, gameID)
	assert.ErrorIs(t, err, game.ErrNamesExhausted)
}

func TestAddPlayer_UnknownGame(t *testing.T) {
	m, _ := newTestStore(t)
	_, err := m.AddPlayer(context.Background(), "missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestUpdateProgress_Bounds(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()
	gameID, playerID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	_, err = m.UpdateProgress(ctx, gameID, playerID, 1.0000001)
	assert.ErrorIs(t, err, game.ErrInvalidProgress)

	// Negative values are accepted as-is (reference behavior: only the
	// upper bound is validated).
	_, err = m.UpdateProgress(ctx, gameID, playerID, -0.5)
	require.NoError(t, err)
	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, -0.5, snap.Players[0].Progress)

	won, err := m.UpdateProgress(ctx, gameID, playerID, 1)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestUpdateProgress_NotFound(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()
	gameID, _, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	_, err = m.UpdateProgress(ctx, "missing", "p", 0.5)
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	_, err = m.UpdateProgress(ctx, gameID, "missing", 0.5)
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestWinner_FirstToFinishKeepsIt(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()

	gameID, aID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)
	bID, err := m.AddPlayer(ctx, gameID)
	require.NoError(t, err)

	won, err := m.UpdateProgress(ctx, gameID, bID, 1)
	require.NoError(t, err)
	assert.True(t, won)

	// A finishes afterwards: progress updates, winner stays with B.
	won, err = m.UpdateProgress(ctx, gameID, aID, 1)
	require.NoError(t, err)
	assert.False(t, won)

	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	for _, p := range snap.Players {
		switch p.ID {
		case aID:
			assert.Equal(t, float64(1), p.Progress)
			assert.False(t, p.Winner)
		case bID:
			assert.True(t, p.Winner)
		}
	}
}

func TestWinner_ExactlyOneUnderContention(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()

	gameID, _, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)
	playerIDs := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		id, err := m.AddPlayer(ctx, gameID)
		require.NoError(t, err)
		playerIDs = append(playerIDs, id)
	}

	// All eight report completion at once; the lock must let exactly
	// one of them through the check-then-set.
	var wg sync.WaitGroup
	crowned := make(chan string, len(playerIDs))
	for _, id := range playerIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			won, err := m.UpdateProgress(ctx, gameID, id, 1)
			assert.NoError(t, err)
			if won {
				crowned <- id
			}
		}(id)
	}
	wg.Wait()
	close(crowned)

	var winners []string
	for id := range crowned {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	flagged := 0
	for _, p := range snap.Players {
		if p.Winner {
			flagged++
			assert.Equal(t, winners[0], p.ID)
		}
	}
	assert.Equal(t, 1, flagged)
}

func TestReap_SilentPlayerExpires(t *testing.T) {
	m, clock := newTestStore(t)
	ctx := context.Background()

	gameID, aID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)
	bID, err := m.AddPlayer(ctx, gameID)
	require.NoError(t, err)

	// B keeps pinging, A goes silent past the TTL.
	clock.Advance(20 * time.Second)
	require.NoError(t, m.TouchPlayer(ctx, gameID, bID))
	clock.Advance(15 * time.Second)

	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, bID, snap.Players[0].ID)

	// The expired player is gone for every operation, not just reads.
	err = m.TouchPlayer(ctx, gameID, aID)
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestReap_EmptyGameRemoved(t *testing.T) {
	m, clock := newTestStore(t)
	ctx := context.Background()

	gameID, _, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	_, err = m.GetGame(ctx, gameID)
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	_, err = m.TextID(ctx, gameID)
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestProgressReportsAreNotLiveness(t *testing.T) {
	m, clock := newTestStore(t)
	ctx := context.Background()

	gameID, playerID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	// Progress keeps flowing but nobody pings: the player still expires.
	for i := 0; i < 3; i++ {
		clock.Advance(10 * time.Second)
		if _, err := m.UpdateProgress(ctx, gameID, playerID, float64(i)/10); err != nil {
			require.ErrorIs(t, err, game.ErrGameNotFound)
			return
		}
	}
	clock.Advance(time.Second)
	_, err = m.GetGame(ctx, gameID)
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestTouchPlayer_ExtendsLife(t *testing.T) {
	m, clock := newTestStore(t)
	ctx := context.Background()

	gameID, playerID, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)

	// Ping every 20s for two minutes: the room must survive throughout.
	for i := 0; i < 6; i++ {
		clock.Advance(20 * time.Second)
		require.NoError(t, m.TouchPlayer(ctx, gameID, playerID))
	}
	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, snap.Players, 1)
}

func TestTextID(t *testing.T) {
	m, _ := newTestStore(t)
	ctx := context.Background()

	gameID, _, err := m.CreateGame(ctx, "rain")
	require.NoError(t, err)
	textID, err := m.TextID(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, "rain", textID)
}

func TestFreedNameIsReusable(t *testing.T) {
	m, clock := newTestStore(t)
	ctx := context.Background()

	gameID, _, err := m.CreateGame(ctx, "fox")
	require.NoError(t, err)
	keeperID, err := m.AddPlayer(ctx, gameID)
	require.NoError(t, err)

	// Fill the room, then let everyone but one expire.
	for {
		if _, err := m.AddPlayer(ctx, gameID); err != nil {
			require.ErrorIs(t, err, game.ErrNamesExhausted)
			break
		}
	}
	clock.Advance(20 * time.Second)
	require.NoError(t, m.TouchPlayer(ctx, gameID, keeperID))
	clock.Advance(15 * time.Second)

	// Names held by reaped players are free again at allocation time.
	_, err = m.AddPlayer(ctx, gameID)
	require.NoError(t, err)
	snap, err := m.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, snap.Players, 2)
}
