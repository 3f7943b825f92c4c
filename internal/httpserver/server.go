// internal/httpserver/server.go
//
// HTTP server wiring for the Battleship backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, request logs).
//   - Public endpoints: "/", "/health".
//   - Session endpoints: mounted under /games (routes_games.go).
//   - Live state stream: GET /games/{id}/ws (routes_ws.go), outside the timeout group.
//   - Match history endpoints: mounted under /history (routes_history.go).
//   - JSON responses and the single error → status mapping.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled for CLIENT_ORIGIN.
//   - Every game read/write happens inside Session.Do/Locked, so two requests
//     for the same match never interleave.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/battleship/apps/go-server/internal/config"
	"github.com/robalobadob/battleship/apps/go-server/internal/game"
	"github.com/robalobadob/battleship/apps/go-server/internal/history"
	"github.com/robalobadob/battleship/apps/go-server/internal/hub"
	"github.com/robalobadob/battleship/apps/go-server/internal/store"
)

// Server bundles router, session store, subscriber hub, and history.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	store    store.Store
	hub      *hub.Hub
	hist     *history.Store // nil when history is disabled
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, st store.Store, h *hub.Hub, hist *history.Store) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, hub: h, hist: hist}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == cfg.ClientOrigin
		},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)           // add X-Request-ID
	s.r.Use(chimw.RealIP)              // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)             // one zerolog line per request
	s.r.Use(chimw.Recoverer)           // recover from panics
	s.r.Use(corsFor(cfg.ClientOrigin)) // credentials-friendly CORS

	// websocket upgrades must not inherit the handler timeout
	s.r.Get("/games/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout)) // bound handler time
		r.Use(jsonContentType)                   // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"battleship-go","endpoints":["/health","POST /games","POST /games/join","/games/{id}/*","/history/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		s.mountGames(r)
		s.mountHistory(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured line per request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("req_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ responses ----------------------------------

var (
	errBadJSON         = errors.New("bad_json")
	errInvalidInput    = errors.New("invalid_input")
	errNotYourTurn     = errors.New("not_your_turn")
	errWaiting         = errors.New("waiting_for_opponent")
	errFleetIncomplete = errors.New("fleet_incomplete")
	errGameOver        = errors.New("game_over")
)

// respondJSON writes v with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// respondError maps err to a status code and writes {"error": msg}.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("req_id", chimw.GetReqID(r.Context())).Str("path", r.URL.Path).Msg("internal error")
		msg = "internal_error"
	}
	respondJSON(w, status, map[string]string{"error": msg})
}

// statusFor is the one place errors become HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, errInvalidInput),
		errors.Is(err, game.ErrInvalidDirection),
		errors.Is(err, game.ErrInvalidShipLength),
		errors.Is(err, game.ErrShipAlreadyPlaced),
		errors.Is(err, game.ErrPlacementRejected),
		errors.Is(err, game.ErrDuplicateTarget),
		errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, game.ErrInvalidPlayer):
		return http.StatusBadRequest
	case errors.Is(err, errBadToken), errors.Is(err, store.ErrWrongPasscode):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrGameFull),
		errors.Is(err, errNotYourTurn),
		errors.Is(err, errWaiting),
		errors.Is(err, errFleetIncomplete),
		errors.Is(err, errGameOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
