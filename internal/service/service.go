// internal/service/service.go
//
// Use-case layer for the race server. Each method maps to one externally
// visible operation and is a single store call sequence plus the
// request-shape validation that doesn't belong in the store (numeric
// parsing of the reported progress). When a progress report crowns a
// winner, the finished race is recorded in the results history on a
// best-effort basis.

package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/asplabs/typerace/internal/game"
	"github.com/asplabs/typerace/internal/results"
	"github.com/asplabs/typerace/internal/store"
	"github.com/asplabs/typerace/internal/texts"
)

// ResultRecorder persists finished races. *results.Store implements it;
// tests substitute their own.
type ResultRecorder interface {
	Insert(ctx context.Context, r results.Result) error
}

// Service implements the race use-cases on top of the store.
type Service struct {
	store    store.Store
	recorder ResultRecorder // may be nil: results recording disabled
}

// New constructs a Service. recorder may be nil.
func New(st store.Store, recorder ResultRecorder) *Service {
	return &Service{store: st, recorder: recorder}
}

// Membership identifies one player inside one game.
type Membership struct {
	GameID   string
	PlayerID string
}

// CreateGame starts a race on a randomly chosen text, with the caller
// seeded as the room's first player and admin.
func (s *Service) CreateGame(ctx context.Context) (Membership, error) {
	gameID, playerID, err := s.store.CreateGame(ctx, texts.RandomID())
	if err != nil {
		return Membership{}, err
	}
	return Membership{GameID: gameID, PlayerID: playerID}, nil
}

// Join adds a new player to an existing race.
func (s *Service) Join(ctx context.Context, gameID string) (Membership, error) {
	playerID, err := s.store.AddPlayer(ctx, gameID)
	if err != nil {
		return Membership{}, err
	}
	return Membership{GameID: gameID, PlayerID: playerID}, nil
}

// State returns a read-only snapshot of the race.
func (s *Service) State(ctx context.Context, gameID string) (game.Snapshot, error) {
	return s.store.GetGame(ctx, gameID)
}

// ReportProgress parses and applies a progress report.
//
// rawProgress is the wire value as text; anything strconv can't parse as
// a float is rejected as game.ErrInvalidProgress before it reaches the
// store. Range checking (NaN, >1) happens in the store under its lock.
func (s *Service) ReportProgress(ctx context.Context, gameID, playerID, rawProgress string) error {
	progress, err := strconv.ParseFloat(strings.TrimSpace(rawProgress), 64)
	if err != nil {
		return game.ErrInvalidProgress
	}

	won, err := s.store.UpdateProgress(ctx, gameID, playerID, progress)
	if err != nil {
		return err
	}
	if won {
		s.recordResult(ctx, gameID, playerID)
	}
	return nil
}

// KeepAlive refreshes the player's liveness timestamp.
func (s *Service) KeepAlive(ctx context.Context, gameID, playerID string) error {
	return s.store.TouchPlayer(ctx, gameID, playerID)
}

// Text resolves the race's shared text for the client to type against.
func (s *Service) Text(ctx context.Context, gameID string) (string, error) {
	textID, err := s.store.TextID(ctx, gameID)
	if err != nil {
		return "", err
	}
	return texts.Get(textID)
}

// recordResult writes the finished race to the history. Best effort:
// failures are logged, never surfaced to the winning player.
func (s *Service) recordResult(ctx context.Context, gameID, winnerID string) {
	if s.recorder == nil {
		return
	}
	snap, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("snapshot finished race")
		return
	}
	winnerName := ""
	for _, p := range snap.Players {
		if p.ID == winnerID {
			winnerName = p.Name
			break
		}
	}
	r := results.Result{
		GameID:     snap.ID,
		TextID:     snap.TextID,
		WinnerName: winnerName,
		Players:    len(snap.Players),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.recorder.Insert(ctx, r); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("record race result")
	}
}
