package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// maxClientMessage caps a single client frame; clients only send tiny
// {"type":"state"} requests.
const maxClientMessage = 512

// wsMessage is every frame the server pushes.
type wsMessage struct {
	Type  string    `json:"type"` // "state" | "error"
	State *stateRes `json:"state,omitempty"`
	Error string    `json:"error,omitempty"`
}

// handleWS streams the caller's view of a game. The current state is sent on
// connect and again after every change. A client may send {"type":"state"}
// to ask for a resend; anything else is ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, seat, err := s.authorize(r, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game", sess.Code).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxClientMessage)

	sub := s.hub.Subscribe(sess.Code, seat, conn)
	defer s.hub.Unsubscribe(sess.Code, sub)

	send := func() error {
		st, err := s.stateFor(sess, seat)
		if err != nil {
			return sub.Send(wsMessage{Type: "error", Error: err.Error()})
		}
		return sub.Send(wsMessage{Type: "state", State: &st})
	}
	if err := send(); err != nil {
		return
	}

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Str("game", sess.Code).Int("seat", seat).Msg("websocket closed")
			return
		}
		if msg.Type == "state" {
			if err := send(); err != nil {
				return
			}
		}
	}
}
