// Package main provides the zenbeasts server binary: the JSON HTTP API over
// an in-memory or PostgreSQL store, plus the stale session monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zenbeasts/internal/api"
	"github.com/cory-johannsen/zenbeasts/internal/config"
	"github.com/cory-johannsen/zenbeasts/internal/game/combat"
	"github.com/cory-johannsen/zenbeasts/internal/game/gameerr"
	"github.com/cory-johannsen/zenbeasts/internal/gameserver"
	"github.com/cory-johannsen/zenbeasts/internal/observability"
	"github.com/cory-johannsen/zenbeasts/internal/server"
	"github.com/cory-johannsen/zenbeasts/internal/storage/memory"
	"github.com/cory-johannsen/zenbeasts/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	staleInterval := flag.Duration("stale-interval", time.Minute, "how often to sweep for timed out combat sessions")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, zap.String("service", "zenserver"))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer observability.Sync(logger)

	logger.Info("starting zenbeasts server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("mode", cfg.Server.Mode),
	)

	var (
		store   gameserver.Store
		apiOpts []api.Option
	)
	switch cfg.Server.Mode {
	case config.ModePostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewStore(pool.DB())
		apiOpts = append(apiOpts, api.WithHealthCheck(pool.ReadyCheck(2*time.Second)))
	default:
		logger.Warn("using in-memory store; state is lost on exit")
		store = memory.New()
	}

	svc := gameserver.NewService(store, gameserver.SystemClock{}, logger)
	if err := seedConfig(ctx, svc, cfg.Game, logger); err != nil {
		logger.Fatal("seeding game config", zap.Error(err))
	}

	monitor := gameserver.NewSessionMonitor(svc, *staleInterval, logger)
	monitor.OnStale(func(s combat.Session) {
		logger.Warn("combat session timed out",
			zap.Uint64("session", s.ID),
			zap.Uint64("escrowed_wager", s.WagerAmount),
			zap.Int64("last_turn", s.LastTurnTimestamp),
		)
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewServer(svc, logger, apiOpts...).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(httpSrv, cfg.Server.ShutdownTimeout, logger))
	lifecycle.Add("stale-monitor", server.NewLoopService(monitor.Start))

	logger.Info("server initialized", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

// seedConfig stores the configured rules when the store has none yet. A zero
// authority leaves initialization to the admin API.
func seedConfig(ctx context.Context, svc *gameserver.Service, game config.GameConfig, logger *zap.Logger) error {
	if game.Authority == uuid.Nil {
		logger.Info("no authority configured; waiting for /api/v1/admin/initialize")
		return nil
	}
	_, err := svc.Initialize(ctx, game.Authority, game)
	if errors.Is(err, gameerr.ErrAlreadyInitialized) {
		logger.Info("using stored game config")
		return nil
	}
	return err
}
