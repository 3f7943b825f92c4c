// internal/httpserver/tokens.go
//
// Seat tokens.
// A player's "playerId" is an HS256 JWT naming the game code, the seat index,
// and the seat's uuid. The uuid must match what the session has on record, so
// a token minted for an earlier occupant of a seat stops working.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/battleship/apps/go-server/internal/store"
)

var errBadToken = errors.New("invalid player token")

type seatClaims struct {
	Game string `json:"game"`
	Seat int    `json:"seat"`
	SID  string `json:"sid"`
	jwt.RegisteredClaims
}

// signSeatToken issues the token for seat of game code.
func (s *Server) signSeatToken(code string, seat int, sid string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, seatClaims{
		Game: code,
		Seat: seat,
		SID:  sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	})
	return t.SignedString(s.cfg.JWTSecret)
}

// parseSeatToken verifies tok and returns its claims.
func (s *Server) parseSeatToken(tok string) (*seatClaims, error) {
	claims := &seatClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, errBadToken
	}
	return claims, nil
}

// seatFor checks tok against sess and returns the seat it grants.
func (s *Server) seatFor(sess *store.Session, tok string) (int, error) {
	if tok == "" {
		return 0, errBadToken
	}
	c, err := s.parseSeatToken(tok)
	if err != nil {
		return 0, err
	}
	if c.Game != sess.Code || c.SID == "" || sess.SeatID(c.Seat) != c.SID {
		return 0, errBadToken
	}
	return c.Seat, nil
}

// bearerOrParam extracts the seat token from the Authorization header,
// falling back to fromBody and then the playerId query parameter.
func bearerOrParam(r *http.Request, fromBody string) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if fromBody != "" {
		return fromBody
	}
	return r.URL.Query().Get("playerId")
}
