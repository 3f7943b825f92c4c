package history

import (
	"context"
	"database/sql"
	"time"
)

// Match is one finished game.
type Match struct {
	ID         string    `json:"id"`
	Code       string    `json:"gameId"`
	Players    [2]string `json:"players"`
	Scores     [2]int    `json:"scores"`
	Winner     int       `json:"winner"` // -1 for a draw
	Moves      int       `json:"moves"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Played int    `json:"played"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordMatch inserts m. A second insert with the same ID is ignored.
func (s *Store) RecordMatch(ctx context.Context, m Match) error {
	if m.FinishedAt.IsZero() {
		m.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO matches
            (id, code, player0, player1, score0, score1, winner, moves, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Code, m.Players[0], m.Players[1], m.Scores[0], m.Scores[1],
		m.Winner, m.Moves, m.StartedAt.UTC(), m.FinishedAt.UTC(),
	)
	return err
}

// Recent returns the newest matches first. Default limit is 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, code, player0, player1, score0, score1, winner, moves, started_at, finished_at
        FROM matches
        ORDER BY finished_at DESC, id ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Match, 0, limit)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Code, &m.Players[0], &m.Players[1],
			&m.Scores[0], &m.Scores[1], &m.Winner, &m.Moves, &m.StartedAt, &m.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Leaderboard ranks players by wins, then fewer games played, then name.
// Draws count as played for both sides and as a win for neither.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, SUM(win) AS wins, COUNT(1) AS played
        FROM (
            SELECT player0 AS name, CASE WHEN winner = 0 THEN 1 ELSE 0 END AS win FROM matches
            UNION ALL
            SELECT player1 AS name, CASE WHEN winner = 1 THEN 1 ELSE 0 END AS win FROM matches
        )
        GROUP BY name
        ORDER BY wins DESC, played ASC, name ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Name, &r.Wins, &r.Played); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
