package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	sessionengine "agora/contexts/governance/session-engine"
	postgresadapter "agora/contexts/governance/session-engine/adapters/postgres"
	workerapp "agora/contexts/governance/session-engine/application/workers"
	accessgate "agora/contexts/identity/access-gate"
	gatememory "agora/contexts/identity/access-gate/adapters/memory"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	gateModule := accessgate.NewModule(accessgate.Dependencies{
		Repository: gatememory.NewStore(cfg.AdminAddresses, !cfg.StartPaused),
		Logger:     logger,
	})

	var pg *db.Postgres
	var sessionModule sessionengine.Module
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory session store",
			"event", "bootstrap_memory_fallback",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		sessionModule = sessionengine.NewInMemoryModule(gateModule.Checks, logger)
	} else {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		sessionModule = sessionengine.NewModule(sessionengine.Dependencies{
			Sessions: repo,
			Gate:     gateModule.Checks,
			Clock:    postgresadapter.SystemClock{},
			IDGen:    postgresadapter.UUIDGenerator{},
			Logger:   logger,
		})
	}

	server := httpserver.New(sessionModule, gateModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
