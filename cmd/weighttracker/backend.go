package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"weighttracker/internal/adapter/memory"
	"weighttracker/internal/adapter/postgres"
	"weighttracker/internal/adapter/sqlite"
	"weighttracker/internal/app"
	"weighttracker/internal/config"
	"weighttracker/internal/domain"
)

// store is implemented by every storage adapter.
type store interface {
	domain.WeightRepository
	domain.SettingsRepository
	domain.UserRepository
	io.Closer
}

// backend is an opened store with its session repository.
type backend struct {
	store    store
	sessions domain.SessionRepository
}

func openBackend(cfg config.StorageConfig) (*backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, sysError{fmt.Errorf("open sqlite %s: %w", cfg.DSN, err)}
		}
		return &backend{store: db, sessions: sqlite.NewSessionRepo(db)}, nil
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, sysError{fmt.Errorf("open postgres: %w", err)}
		}
		return &backend{store: db, sessions: postgres.NewSessionRepo(db)}, nil
	case config.DriverMemory:
		db := memory.New()
		return &backend{store: db, sessions: memory.NewSessionRepo(db)}, nil
	default:
		return nil, sysError{fmt.Errorf("unknown storage driver %q", cfg.Driver)}
	}
}

func (b *backend) Close() error {
	return b.store.Close()
}

// services are the application services over one backend.
type services struct {
	weight   *app.WeightService
	settings *app.SettingsService
	charts   *app.ChartsService
	auth     *app.AuthService
}

func newServices(b *backend, cfg config.Config, log *zap.Logger) *services {
	return &services{
		weight:   app.NewWeightService(b.store, log.Named("weight")),
		settings: app.NewSettingsService(b.store, log.Named("settings")),
		charts:   app.NewChartsService(b.store),
		auth:     app.NewAuthService(b.store, b.sessions, cfg.Auth.SessionTTL),
	}
}

func (s *services) Close() {
	s.weight.Close()
	s.settings.Close()
}

// withServices opens the configured backend, runs fn and closes everything.
func (c *cli) withServices(fn func(*services) error) error {
	b, err := openBackend(c.cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			c.log.Warn("close storage", zap.Error(err))
		}
	}()

	svc := newServices(b, c.cfg, c.log)
	defer svc.Close()
	return fn(svc)
}
