package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WriteWait bounds a single write to a subscriber.
const WriteWait = 5 * time.Second

// Conn is the part of a websocket connection the hub needs.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// writeDeadliner is implemented by connections that support write deadlines,
// *websocket.Conn among them.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Subscriber is one connected client watching a game from a seat.
type Subscriber struct {
	ID   string
	Seat int

	conn Conn
	mu   sync.Mutex // serializes writes to conn
}

// Send writes v to the subscriber's connection, giving up after WriteWait
// when the connection supports deadlines.
func (s *Subscriber) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.conn.(writeDeadliner); ok {
		if err := d.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
			return err
		}
	}
	return s.conn.WriteJSON(v)
}

// Hub fans game updates out to every subscriber of that game.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]*Subscriber // game code -> subscriber id -> subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[string]map[string]*Subscriber)}
}

// Subscribe registers conn as a viewer of game code from seat.
func (h *Hub) Subscribe(code string, seat int, conn Conn) *Subscriber {
	s := &Subscriber{ID: uuid.NewString(), Seat: seat, conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[code] == nil {
		h.subs[code] = make(map[string]*Subscriber)
	}
	h.subs[code][s.ID] = s
	return s
}

// Unsubscribe removes s from game code. It does not close the connection.
func (h *Hub) Unsubscribe(code string, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.subs[code]; m != nil {
		delete(m, s.ID)
		if len(m) == 0 {
			delete(h.subs, code)
		}
	}
}

// Count returns the number of subscribers watching code.
func (h *Hub) Count(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[code])
}

// Broadcast sends payload(seat) to every subscriber of code. Subscribers whose
// write fails are dropped and closed.
func (h *Hub) Broadcast(code string, payload func(seat int) interface{}) {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subs[code]))
	for _, s := range h.subs[code] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(payload(s.Seat)); err != nil {
			log.Warn().Err(err).Str("game", code).Str("subscriber", s.ID).Msg("drop subscriber")
			h.Unsubscribe(code, s)
			_ = s.conn.Close()
		}
	}
}

// Close disconnects every subscriber of code.
func (h *Hub) Close(code string) {
	h.mu.Lock()
	m := h.subs[code]
	delete(h.subs, code)
	h.mu.Unlock()
	for _, s := range m {
		_ = s.conn.Close()
	}
}

// Stop disconnects everyone.
func (h *Hub) Stop() {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[string]map[string]*Subscriber)
	h.mu.Unlock()
	for _, m := range all {
		for _, s := range m {
			_ = s.conn.Close()
		}
	}
}
