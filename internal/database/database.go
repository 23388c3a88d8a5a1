// Package database manages the postgres connection pool and schema
// migrations for run history persistence.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/ml-agent/internal/config"
	"github.com/JaimeStill/ml-agent/internal/lifecycle"
)

//go:embed migrations/*.sql
var migrations embed.FS

// System defines database access for domain repositories.
type System interface {
	// Connection returns the underlying connection pool.
	Connection() *sql.DB

	// Start verifies connectivity, applies pending migrations, and
	// registers pool shutdown with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type system struct {
	db     *sql.DB
	cfg    *config.DatabaseConfig
	logger *slog.Logger
}

// New opens the connection pool. Connectivity is not verified until Start.
func New(cfg *config.DatabaseConfig, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &system{
		db:     db,
		cfg:    cfg,
		logger: logger.With("system", "database"),
	}, nil
}

func (s *system) Connection() *sql.DB {
	return s.db
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	ctx, cancel := context.WithTimeout(lc.Context(), s.cfg.ConnTimeoutDuration())
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.db.Close(); err != nil {
			s.logger.Warn("pool close failed", "error", err)
		}
	})

	s.logger.Info("database ready", "host", s.cfg.Host, "name", s.cfg.Name)
	return nil
}

func (s *system) migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	s.logger.Info("schema current", "version", version, "dirty", dirty)
	return nil
}
