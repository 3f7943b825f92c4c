// apps/go-server/db.go
//
// Database bootstrap for the Battleship Go server.
// Responsibilities:
//   - Opening the history SQLite database (or skipping it when disabled).
//   - Applying the embedded migrations from assets/sql before serving.

package main

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/battleship/apps/go-server/assets"
	"github.com/robalobadob/battleship/apps/go-server/internal/history"
)

// openHistory returns a migrated history store for dsn.
// An empty dsn disables history and returns nil, nil, nil.
func openHistory(dsn string) (*sql.DB, *history.Store, error) {
	if dsn == "" {
		log.Info().Msg("match history disabled")
		return nil, nil, nil
	}
	db, err := history.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := history.Migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, history.NewStore(db), nil
}
