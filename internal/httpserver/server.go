// internal/httpserver/server.go
//
// HTTP server wiring for the type-race backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/texts".
//   - Race endpoints: create, join, state, progress, keep-alive, text.
//   - Results history endpoint: recent finished races.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - Every race operation runs against the store, which reaps stale
//     players/games before doing anything else — a stale room 404s here.
//   - Responses carry _links-style URL blocks so clients never build
//     paths themselves (invite/state/text per game, ping per player).

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/asplabs/typerace/internal/game"
	"github.com/asplabs/typerace/internal/results"
	"github.com/asplabs/typerace/internal/service"
	"github.com/asplabs/typerace/internal/texts"
)

// Server bundles the router, the use-case layer, and the results history.
type Server struct {
	r       *chi.Mux
	svc     *service.Service
	results *results.Store
}

// New constructs a Server, installs middleware, and registers routes.
// res may be nil (results endpoints then 404).
func New(svc *service.Service, res *results.Store) *Server {
	s := &Server{r: chi.NewRouter(), svc: svc, results: res}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"typerace-go","endpoints":["/health","POST /game/new","POST /game/{gameID}/join","GET /game/{gameID}","PATCH /game/{gameID}","POST /game/{gameID}/player/{playerID}/ping","GET /game/{gameID}/text","GET /results/recent"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/texts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"texts": texts.Stats()})
	})

	// --- races ---
	s.r.Post("/game/new", s.handleNewGame)
	s.r.Post("/game/{gameID}/join", s.handleJoin)
	s.r.Get("/game/{gameID}", s.handleState)
	s.r.Patch("/game/{gameID}", s.handleProgress)
	s.r.Post("/game/{gameID}/player/{playerID}/ping", s.handlePing)
	s.r.Get("/game/{gameID}/text", s.handleText)

	// --- results history ---
	if s.results != nil {
		s.r.Get("/results/recent", s.handleRecentResults)
	}

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- links -------------------------------------

// gameLinks are the URLs a client needs for one race.
type gameLinks struct {
	Invite string `json:"invite"`
	State  string `json:"state"`
	Text   string `json:"text"`
}

// playerLinks are the URLs a client needs for one player.
type playerLinks struct {
	Ping string `json:"ping"`
}

func linksForGame(gameID string) gameLinks {
	return gameLinks{
		Invite: "/game/" + gameID + "/join",
		State:  "/game/" + gameID,
		Text:   "/game/" + gameID + "/text",
	}
}

func linksForPlayer(gameID, playerID string) playerLinks {
	return playerLinks{Ping: "/game/" + gameID + "/player/" + playerID + "/ping"}
}

// ------------------------------- races -------------------------------------

// membershipRes is the payload for POST /game/new and POST /game/{id}/join.
type membershipRes struct {
	GameID   string      `json:"gameId"`
	PlayerID string      `json:"playerId"`
	Links    gameLinks   `json:"_links"`
	Player   playerLinks `json:"_playerLinks"`
}

// handleNewGame creates a race and seeds the caller as admin.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.CreateGame(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("gameId", m.GameID).Str("playerId", m.PlayerID).Msg("game created")
	_ = json.NewEncoder(w).Encode(membershipRes{
		GameID:   m.GameID,
		PlayerID: m.PlayerID,
		Links:    linksForGame(m.GameID),
		Player:   linksForPlayer(m.GameID, m.PlayerID),
	})
}

// handleJoin adds a player to an existing race.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	m, err := s.svc.Join(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("gameId", m.GameID).Str("playerId", m.PlayerID).Msg("player joined")
	_ = json.NewEncoder(w).Encode(membershipRes{
		GameID:   m.GameID,
		PlayerID: m.PlayerID,
		Links:    linksForGame(m.GameID),
		Player:   linksForPlayer(m.GameID, m.PlayerID),
	})
}

// statePlayer is one player in the GET /game/{id} payload.
type statePlayer struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Progress float64     `json:"progress"`
	Winner   bool        `json:"winner"`
	Links    playerLinks `json:"_links"`
}

// stateRes is the payload for GET /game/{id}.
type stateRes struct {
	Players []statePlayer `json:"players"`
	Admin   string        `json:"admin"`
	Links   gameLinks     `json:"_links"`
}

// handleState returns the current snapshot of a race.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	snap, err := s.svc.State(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	res := stateRes{
		Players: make([]statePlayer, 0, len(snap.Players)),
		Admin:   snap.AdminPlayerID,
		Links:   linksForGame(snap.ID),
	}
	for _, p := range snap.Players {
		res.Players = append(res.Players, statePlayer{
			ID:       p.ID,
			Name:     p.Name,
			Progress: p.Progress,
			Winner:   p.Winner,
			Links:    linksForPlayer(snap.ID, p.ID),
		})
	}
	_ = json.NewEncoder(w).Encode(res)
}

// progressReq is the body of PATCH /game/{id}.
// Progress is kept raw: clients historically send it both as a JSON
// number and as a quoted string, and the service parses either.
type progressReq struct {
	PlayerID string          `json:"playerId"`
	Progress json.RawMessage `json:"progress"`
}

// handleProgress applies a progress report and replies 204 on success.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	var req progressReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.svc.ReportProgress(r.Context(), gameID, req.PlayerID, rawScalar(req.Progress)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePing refreshes a player's liveness and replies 204.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	playerID := chi.URLParam(r, "playerID")
	if err := s.svc.KeepAlive(r.Context(), gameID, playerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleText returns the raw paragraph for the race, as plain text.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	text, err := s.svc.Text(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// ------------------------------ results ------------------------------------

// handleRecentResults lists the latest finished races.
func (s *Server) handleRecentResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	rows, err := s.results.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list recent results")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

// ------------------------------- helpers -----------------------------------

// rawScalar renders a raw JSON scalar as its textual value: quoted
// strings are unquoted, everything else passes through verbatim.
func rawScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, texts.ErrTextNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, game.ErrInvalidProgress):
		http.Error(w, `{"error":"invalid_progress"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrNamesExhausted):
		http.Error(w, `{"error":"room_full"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("unhandled service error")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}
