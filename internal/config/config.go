// internal/config/config.go
//
// Environment-driven configuration for the Battleship server.
// A .env file, if present, is loaded by main before Load is called.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/battleship/apps/go-server/internal/game"
)

// Config holds all server settings.
type Config struct {
	Port           string
	LogLevel       string
	ClientOrigin   string
	JWTSecret      []byte
	TokenTTL       time.Duration
	HistoryDB      string // "" disables history
	GameTTL        time.Duration
	SweepInterval  time.Duration
	Fleet          []int
	RequestTimeout time.Duration
}

// Load reads the environment, falling back to defaults for unset keys.
func Load() (*Config, error) {
	c := &Config{
		Port:         getEnv("PORT", "8000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    []byte(getEnv("JWT_SECRET", "dev_secret_change_me")),
		HistoryDB:    getEnv("HISTORY_DB", "./data/battleship.db"),
	}
	if strings.EqualFold(c.HistoryDB, "off") {
		c.HistoryDB = ""
	}

	var err error
	if c.TokenTTL, err = durationEnv("TOKEN_EXPIRES_HOURS", 24, time.Hour); err != nil {
		return nil, err
	}
	if c.GameTTL, err = durationEnv("GAME_TTL_MINUTES", 60, time.Minute); err != nil {
		return nil, err
	}
	if c.SweepInterval, err = durationEnv("SWEEP_INTERVAL_SECONDS", 30, time.Second); err != nil {
		return nil, err
	}
	if c.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT_SECONDS", 10, time.Second); err != nil {
		return nil, err
	}
	if c.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive")
	}
	if c.Fleet, err = ParseFleet(os.Getenv("FLEET")); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseFleet parses a comma-separated list of ship lengths such as "2,3,3,4,5".
// Empty input yields the default fleet.
func ParseFleet(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return append([]int(nil), game.DefaultFleet...), nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 || n > game.DefaultSize {
			return nil, fmt.Errorf("FLEET: bad ship length %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func durationEnv(k string, def int, unit time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return time.Duration(def) * unit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return time.Duration(n) * unit, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
