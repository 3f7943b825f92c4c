// internal/httpserver/routes_games.go
//
// HTTP routes for live matches.
//   - POST   /games                 → create a game, take seat 0
//   - POST   /games/join            → take seat 1 of an existing game
//   - POST   /games/{id}/place      → place one or more ships (all-or-nothing)
//   - POST   /games/{id}/randomize  → place the rest of the fleet at random
//   - POST   /games/{id}/move       → fire at the opponent's board
//   - GET    /games/{id}/state      → snapshot from the caller's seat
//   - DELETE /games/{id}            → end the session
//
// Turn order is enforced here; the engine itself only validates the shot.
// Every mutation is pushed to websocket subscribers after the session lock
// is released.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/battleship/apps/go-server/internal/game"
	"github.com/robalobadob/battleship/apps/go-server/internal/history"
	"github.com/robalobadob/battleship/apps/go-server/internal/store"
)

const (
	maxNameLen          = 24
	historyWriteTimeout = 5 * time.Second
)

// Lifecycle phases reported alongside the core snapshot.
const (
	phaseWaiting  = "waiting"  // seat 1 is empty
	phaseSetup    = "setup"    // a fleet is still incomplete
	phasePlaying  = "playing"
	phaseFinished = "finished"
)

// mountGames registers all /games routes.
func (s *Server) mountGames(r chi.Router) {
	r.Post("/games", s.handleCreate)
	r.Post("/games/join", s.handleJoin)
	r.Post("/games/{id}/place", s.handlePlace)
	r.Post("/games/{id}/randomize", s.handleRandomize)
	r.Post("/games/{id}/move", s.handleMove)
	r.Get("/games/{id}/state", s.handleState)
	r.Delete("/games/{id}", s.handleDelete)
}

// stateRes is the core snapshot plus session fields.
type stateRes struct {
	GameID string `json:"gameId"`
	Phase  string `json:"phase"`
	game.State
}

func phaseOf(g *game.Game, full bool) string {
	switch {
	case g.Status() == game.StatusFinished:
		return phaseFinished
	case !full:
		return phaseWaiting
	case !g.FleetPlaced(0) || !g.FleetPlaced(1):
		return phaseSetup
	default:
		return phasePlaying
	}
}

// snapshot must be called with the session lock held.
func snapshot(code string, g *game.Game, full bool, seat int) (stateRes, error) {
	st, err := g.Snapshot(seat)
	if err != nil {
		return stateRes{}, err
	}
	return stateRes{GameID: code, Phase: phaseOf(g, full), State: st}, nil
}

// stateFor takes the session lock and snapshots the game for seat.
func (s *Server) stateFor(sess *store.Session, seat int) (stateRes, error) {
	var out stateRes
	err := sess.Locked(func(g *game.Game, full bool) error {
		var err error
		out, err = snapshot(sess.Code, g, full, seat)
		return err
	})
	return out, err
}

// broadcast pushes a fresh per-seat snapshot to every subscriber of sess.
func (s *Server) broadcast(sess *store.Session) {
	s.hub.Broadcast(sess.Code, func(seat int) interface{} {
		st, err := s.stateFor(sess, seat)
		if err != nil {
			return wsMessage{Type: "error", Error: err.Error()}
		}
		return wsMessage{Type: "state", State: &st}
	})
}

// ------------------------------- helpers -----------------------------------

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// cleanName trims n and checks its length. Empty means keep the default.
func cleanName(n string) (string, error) {
	n = strings.TrimSpace(n)
	if utf8.RuneCountInString(n) > maxNameLen {
		return "", fmt.Errorf("%w: name must be at most %d characters", errInvalidInput, maxNameLen)
	}
	return n, nil
}

// authorize resolves the {id} session and the seat the caller's token grants.
func (s *Server) authorize(r *http.Request, tokFromBody string) (*store.Session, int, error) {
	sess, err := s.store.Get(r.Context(), normalizeCode(chi.URLParam(r, "id")))
	if err != nil {
		return nil, 0, err
	}
	seat, err := s.seatFor(sess, bearerOrParam(r, tokFromBody))
	if err != nil {
		return nil, 0, err
	}
	return sess, seat, nil
}

// -------------------------------- create -----------------------------------

type createReq struct {
	Name              string `json:"name"`
	Passcode          string `json:"passcode"`
	RandomizeOpponent *bool  `json:"randomizeOpponent"` // default true
}

type createRes struct {
	GameID   string   `json:"gameId"`
	PlayerID string   `json:"playerId"`
	State    stateRes `json:"state"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name, err := cleanName(req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	g, err := game.New(s.cfg.Fleet)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if name != "" {
		g.Players[0].Name = name
	}
	if req.RandomizeOpponent == nil || *req.RandomizeOpponent {
		if err := g.RandomizeFleet(1, nil); err != nil {
			respondError(w, r, err)
			return
		}
	}

	sess, err := s.store.Create(r.Context(), g, req.Passcode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	tok, err := s.signSeatToken(sess.Code, 0, sess.SeatID(0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	st, err := s.stateFor(sess, 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	log.Info().Str("game", sess.Code).Bool("private", sess.Private()).Msg("game created")
	respondJSON(w, http.StatusOK, createRes{GameID: sess.Code, PlayerID: tok, State: st})
}

// --------------------------------- join ------------------------------------

type joinReq struct {
	GameID   string `json:"gameId"`
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

type joinRes struct {
	PlayerID string   `json:"playerId"`
	State    stateRes `json:"state"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	code := normalizeCode(req.GameID)
	if code == "" {
		respondError(w, r, fmt.Errorf("%w: gameId is required", errInvalidInput))
		return
	}
	name, err := cleanName(req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	sess, err := s.store.Get(r.Context(), code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	seat, err := sess.Join(req.Passcode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if name != "" {
		_ = sess.Do(func(g *game.Game) error {
			g.Players[seat].Name = name
			return nil
		})
	}
	tok, err := s.signSeatToken(sess.Code, seat, sess.SeatID(seat))
	if err != nil {
		respondError(w, r, err)
		return
	}
	st, err := s.stateFor(sess, seat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.broadcast(sess)
	log.Info().Str("game", sess.Code).Int("seat", seat).Msg("player joined")
	respondJSON(w, http.StatusOK, joinRes{PlayerID: tok, State: st})
}

// ---------------------------- place / randomize -----------------------------

type placementReq struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Direction string `json:"direction"` // "H"/"V", "horizontal"/"vertical"
	Length    int    `json:"length"`
}

type placeReq struct {
	PlayerID   string         `json:"playerId"`
	Placements []placementReq `json:"placements"`
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, seat, err := s.authorize(r, req.PlayerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if len(req.Placements) == 0 {
		respondError(w, r, fmt.Errorf("%w: placements are required", errInvalidInput))
		return
	}
	ps := make([]game.Placement, 0, len(req.Placements))
	for i, p := range req.Placements {
		o, err := game.ParseOrientation(p.Direction)
		if err != nil {
			respondError(w, r, fmt.Errorf("placement %d: %w", i, err))
			return
		}
		ps = append(ps, game.Placement{Row: p.Row, Col: p.Col, Orientation: o, Length: p.Length})
	}

	var st stateRes
	err = sess.Locked(func(g *game.Game, full bool) error {
		if g.Status() == game.StatusFinished {
			return errGameOver
		}
		if err := g.PlaceFleet(seat, ps); err != nil {
			return err
		}
		var err error
		st, err = snapshot(sess.Code, g, full, seat)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.broadcast(sess)
	respondJSON(w, http.StatusOK, st)
}

type seatReq struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleRandomize(w http.ResponseWriter, r *http.Request) {
	var req seatReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, seat, err := s.authorize(r, req.PlayerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var st stateRes
	err = sess.Locked(func(g *game.Game, full bool) error {
		if g.Status() == game.StatusFinished {
			return errGameOver
		}
		if err := g.RandomizeFleet(seat, nil); err != nil {
			return err
		}
		var err error
		st, err = snapshot(sess.Code, g, full, seat)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.broadcast(sess)
	respondJSON(w, http.StatusOK, st)
}

// --------------------------------- move ------------------------------------

type moveReq struct {
	PlayerID string `json:"playerId"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
}

type moveRes struct {
	game.MoveResult
	State stateRes `json:"state"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	sess, seat, err := s.authorize(r, req.PlayerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var (
		res      moveRes
		finished *history.Match
	)
	err = sess.Locked(func(g *game.Game, full bool) error {
		switch {
		case g.Status() == game.StatusFinished:
			return errGameOver
		case !full:
			return errWaiting
		case !g.FleetPlaced(0) || !g.FleetPlaced(1):
			return errFleetIncomplete
		case g.CurrentPlayer != seat:
			return errNotYourTurn
		}
		mr, err := g.MakeMove(seat, req.Row, req.Col)
		if err != nil {
			return err
		}
		res.MoveResult = mr
		if res.State, err = snapshot(sess.Code, g, full, seat); err != nil {
			return err
		}
		if g.Status() == game.StatusFinished {
			finished = matchOf(sess, g)
		}
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if finished != nil {
		log.Info().Str("game", sess.Code).Int("winner", finished.Winner).Msg("game finished")
		s.recordMatch(r.Context(), *finished)
	}
	s.broadcast(sess)
	respondJSON(w, http.StatusOK, res)
}

// matchOf builds the history row for a finished game. Caller holds the lock.
func matchOf(sess *store.Session, g *game.Game) *history.Match {
	winner, _ := g.Winner()
	a, b := g.Players[0], g.Players[1]
	return &history.Match{
		ID:         uuid.NewString(),
		Code:       sess.Code,
		Players:    [2]string{a.Name, b.Name},
		Scores:     [2]int{a.Score, b.Score},
		Winner:     winner,
		Moves:      a.MovesMade() + b.MovesMade(),
		StartedAt:  sess.CreatedAt,
		FinishedAt: time.Now(),
	}
}

// recordMatch is best effort: a failed write is logged and never fails the move.
// The write ignores request cancellation and has its own timeout.
func (s *Server) recordMatch(ctx context.Context, m history.Match) {
	if s.hist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.hist.RecordMatch(ctx, m); err != nil {
		log.Warn().Err(err).Str("game", m.Code).Msg("record match")
	}
}

// --------------------------------- state -----------------------------------

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, seat, err := s.authorize(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	st, err := s.stateFor(sess, seat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// -------------------------------- delete -----------------------------------

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, seat, err := s.authorize(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), sess.Code); err != nil {
		respondError(w, r, err)
		return
	}
	s.hub.Close(sess.Code)
	log.Info().Str("game", sess.Code).Int("seat", seat).Msg("game deleted")
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
