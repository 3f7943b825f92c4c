// internal/store/session.go
//
// Session: one live match as the transport layer sees it.
// Wraps a *game.Game with seat ids, join state, an optional passcode, and a
// mutex. Every read or write of the game goes through Do so two requests for
// the same match never interleave.

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/battleship/apps/go-server/internal/game"
)

var (
	ErrGameFull      = errors.New("game already has two players")
	ErrWrongPasscode = errors.New("wrong passcode")
)

// Session holds a live game and who is seated at it.
type Session struct {
	Code      string
	CreatedAt time.Time

	mu       sync.Mutex
	game     *game.Game
	seats    [2]string // seat ids embedded in player tokens
	joined   [2]bool
	passHash []byte
}

func newSession(code string, g *game.Game, now time.Time, passHash []byte) *Session {
	s := &Session{Code: code, CreatedAt: now, game: g, passHash: passHash}
	s.seats[0] = uuid.NewString()
	s.joined[0] = true
	return s
}

// hashPasscode bcrypts pass. An empty passcode means a public game (nil hash).
var hashPasscode = func(pass string) ([]byte, error) {
	if pass == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
}

// Private reports whether joining requires a passcode.
func (s *Session) Private() bool { return len(s.passHash) > 0 }

// Join takes seat 1 and returns its seat index.
func (s *Session) Join(passcode string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.joined[1] {
		return 0, ErrGameFull
	}
	if len(s.passHash) > 0 && bcrypt.CompareHashAndPassword(s.passHash, []byte(passcode)) != nil {
		return 0, ErrWrongPasscode
	}
	s.seats[1] = uuid.NewString()
	s.joined[1] = true
	return 1, nil
}

// SeatID returns the id bound to seat, or "" if nobody sits there.
func (s *Session) SeatID(seat int) string {
	if seat != 0 && seat != 1 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats[seat]
}

// Full reports whether both seats are taken.
func (s *Session) Full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joined[0] && s.joined[1]
}

// Do runs fn with exclusive access to the game.
func (s *Session) Do(fn func(g *game.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game)
}

// Locked is Do plus whether both seats are taken, read under the same lock.
func (s *Session) Locked(fn func(g *game.Game, full bool) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game, s.joined[0] && s.joined[1])
}
