// Package climatedb is the Postgres storage backend for climate
// observations, normals and records.
package climatedb

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/observability"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/chrissnell/remoteclimate/pkg/migrate"
)

// MigrationTable tracks applied schema versions.
const MigrationTable = "climate_schema_migrations"

var (
	// ErrRecordNotFound is returned when a normals or period row does not exist.
	ErrRecordNotFound = errors.New("climate record not found")

	// ErrMalformedRow is returned when a stored row cannot be decoded.
	ErrMalformedRow = errors.New("malformed climate row")
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	return migrationFiles
}

// rowQuerier is the part of pgxpool.Pool used for hourly reads.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage holds the connections to the climate database
type Storage struct {
	DB   *gorm.DB
	Pool *pgxpool.Pool

	rows    rowQuerier
	logger  *zap.SugaredLogger
	metrics *observability.Metrics
}

// New connects to the climate database described by cfg. When
// cfg.AutoMigrate is set the embedded migrations are applied.
func New(ctx context.Context, cfg *config.PostgresData, metrics *observability.Metrics) (*Storage, error) {
	if cfg == nil || cfg.ConnectionString == "" {
		return nil, errors.New("climatedb: no connection string configured")
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}

	s := &Storage{
		logger:  log.Named("climatedb"),
		metrics: metrics,
	}

	var err error
	s.DB, err = database.CreateConnection(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("climatedb: %w", err)
	}

	s.Pool, err = database.CreatePool(ctx, cfg.ConnectionString, cfg.MaxConns)
	if err != nil {
		s.closeDB()
		return nil, fmt.Errorf("climatedb: %w", err)
	}
	s.rows = s.Pool

	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Migrate applies any pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	m, err := s.Migrator()
	if err != nil {
		return err
	}
	if err := m.MigrateUp(ctx); err != nil {
		return fmt.Errorf("climatedb: migrate: %w", err)
	}
	return nil
}

// Migrator returns a migrator over the embedded migrations bound to this
// database.
func (s *Storage) Migrator() (*migrate.Migrator, error) {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("climatedb: %w", err)
	}
	provider := migrate.NewFSProvider(Migrations(), MigrationTable, "postgres")
	return migrate.NewMigrator(sqlDB, provider, s.logger), nil
}

// Close releases both connection pools.
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
	s.closeDB()
}

func (s *Storage) closeDB() {
	if s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
