// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Live games only exist here; nothing survives a restart.
//
// Characteristics:
//   - Sessions keyed by a short human-readable code (e.g. "K7QD").
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Expiry is measured from the last Get/Create using an injected clock.
//   - Expired sessions are invisible to Get and removed only by Sweep, so
//     every expiry reaches Maintain's onExpire.

package store

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/battleship/apps/go-server/internal/game"
)

// CodeAlphabet leaves out I, O, 0 and 1 so codes can be read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength   = 4
	codeAttempts = 32
)

var (
	ErrNotFound      = errors.New("game not found")
	ErrCodeExhausted = errors.New("could not allocate a game code")
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Store defines the registry of live sessions.
// Implementations may be backed by memory (this package), Redis, etc.
type Store interface {
	// Create registers g under a fresh code. A non-empty passcode makes the
	// game private.
	Create(ctx context.Context, g *game.Game, passcode string) (*Session, error)

	// Get retrieves a live session by code and refreshes its expiry.
	// Returns ErrNotFound if the code is unknown or expired. Expired sessions
	// stay in place until Sweep reports them.
	Get(ctx context.Context, code string) (*Session, error)

	// Delete removes a session. Deleting an unknown code returns ErrNotFound.
	Delete(ctx context.Context, code string) error

	// Sweep removes expired sessions and returns their codes.
	Sweep(ctx context.Context) []string
}

type entry struct {
	sess    *Session
	touched time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex      // guards sessions
	sessions map[string]*entry // keyed by Session.Code
	ttl      time.Duration     // <= 0 disables expiry
	now      Clock
}

// NewMemoryStore constructs an in-memory Store. A nil clock means time.Now.
func NewMemoryStore(ttl time.Duration, clock Clock) Store {
	if clock == nil {
		clock = time.Now
	}
	return &memory{sessions: make(map[string]*entry), ttl: ttl, now: clock}
}

func (m *memory) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) > m.ttl
}

// Create allocates a code and stores a new session for g.
// The passcode is hashed before the store lock is taken.
func (m *memory) Create(ctx context.Context, g *game.Game, passcode string) (*Session, error) {
	passHash, err := hashPasscode(passcode)
	if err != nil {
		return nil, err
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < codeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return nil, err
		}
		// expired codes stay reserved until Sweep has reported them
		if _, taken := m.sessions[code]; taken {
			continue
		}
		s := newSession(code, g, now, passHash)
		m.sessions[code] = &entry{sess: s, touched: now}
		return s, nil
	}
	return nil, ErrCodeExhausted
}

// Get looks up a session by code.
func (m *memory) Get(ctx context.Context, code string) (*Session, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[code]
	if !ok || m.expired(e, now) {
		return nil, ErrNotFound
	}
	e.touched = now
	return e.sess, nil
}

// Delete removes the session stored under code.
func (m *memory) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[code]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, code)
	return nil
}

// Sweep drops every expired session.
func (m *memory) Sweep(ctx context.Context) []string {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var gone []string
	for code, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, code)
			gone = append(gone, code)
		}
	}
	return gone
}

// Maintain sweeps st every interval until ctx is done. onExpire, if set, is
// called for every code removed.
func Maintain(ctx context.Context, st Store, interval time.Duration, onExpire func(code string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gone := st.Sweep(ctx)
			for _, code := range gone {
				if onExpire != nil {
					onExpire(code)
				}
			}
			if len(gone) > 0 {
				log.Info().Int("expired", len(gone)).Msg("swept idle games")
			}
		}
	}
}

// newCode draws a codeLength code from CodeAlphabet using crypto/rand.
func newCode() (string, error) {
	b := make([]byte, codeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = CodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
