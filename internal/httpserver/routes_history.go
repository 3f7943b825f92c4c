// internal/httpserver/routes_history.go
//
// HTTP routes for finished matches.
// Exposes two endpoints under /history:
//   - GET /history/recent      → newest finished matches (?limit=, default 20, max 100)
//   - GET /history/leaderboard → players ranked by wins (?limit=, default 20, max 100)
//
// When history is disabled both return an empty list.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/battleship/apps/go-server/internal/history"
)

const maxHistoryLimit = 100

// mountHistory registers all /history routes.
func (s *Server) mountHistory(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/recent", s.handleRecent)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// limitParam reads ?limit=, clamped to [1, maxHistoryLimit]; 0 means default.
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return 0
	}
	if n > maxHistoryLimit {
		return maxHistoryLimit
	}
	return n
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		respondJSON(w, http.StatusOK, []history.Match{})
		return
	}
	rows, err := s.hist.Recent(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		respondJSON(w, http.StatusOK, []history.LBRow{})
		return
	}
	rows, err := s.hist.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
