package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/battleship/apps/go-server/internal/config"
	"github.com/robalobadob/battleship/apps/go-server/internal/httpserver"
	"github.com/robalobadob/battleship/apps/go-server/internal/hub"
	"github.com/robalobadob/battleship/apps/go-server/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, hist, err := openHistory(cfg.HistoryDB)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.HistoryDB).Msg("failed to open history db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore(cfg.GameTTL, nil)
	h := hub.New()
	go store.Maintain(ctx, mem, cfg.SweepInterval, h.Close)

	srv := httpserver.New(cfg, mem, h, hist)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Int("fleet", len(cfg.Fleet)).Bool("history", hist != nil).Msg("starting go-server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	h.Stop()
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("close history db")
		}
	}
	log.Info().Msg("bye")
}
