// Package db provides database connectivity and migration functionality for the CookEase API.
// It handles establishing connection pools, running schema migrations embedded in the
// binary, and reporting the current schema version. The rest of the application only
// ever sees a *pgxpool.Pool.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	// `golang-migrate` applies the versioned SQL files from the migrations package.
	"github.com/golang-migrate/migrate/v4"
	// The postgres database driver registers the "postgres://" scheme with migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// `iofs` reads migrations from an fs.FS, here the embed.FS compiled into the binary.
	"github.com/golang-migrate/migrate/v4/source/iofs"
	// `pgxpool` is the connection pool every service uses.
	"github.com/jackc/pgx/v5/pgxpool"
	// lib/pq is the database/sql driver migrate's postgres driver opens connections with.
	_ "github.com/lib/pq"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/config"
	"github.com/akshayUniverse/cook-ease-sub001/migrations"
)

// NewDBPools establishes the application and maintenance pools.
// If the second pool cannot be created the first is closed before returning.
func NewDBPools(cfg *config.DatabasePools) (*pgxpool.Pool, *pgxpool.Pool, error) {
	appPool, err := createPgxPool(cfg.AppPool)
	if err != nil {
		return nil, nil, apperror.NewDatabaseError("failed to create application pool", err)
	}

	maintenancePool, err := createPgxPool(cfg.MaintenancePool)
	if err != nil {
		appPool.Close()
		return nil, nil, apperror.NewDatabaseError("failed to create maintenance pool", err)
	}

	return appPool, maintenancePool, nil
}

// createPgxPool establishes a single pgxpool connection pool and pings it.
func createPgxPool(cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s with pgxpool", cfg.DBName), err)
	}

	return pool, nil
}

// MigrationStatus describes the schema after a migration run.
type MigrationStatus struct {
	Version uint `json:"migration_version"`
	Dirty   bool `json:"dirty"`
	// Applied is false when the schema was already current.
	Applied bool `json:"applied"`
}

// newMigrator builds a migrate instance over the embedded SQL files.
func newMigrator(cfg *config.PoolConfig) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, apperror.NewMigrationError("failed to open embedded migrations", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DSN())
	if err != nil {
		return nil, apperror.NewMigrationError("failed to create migrator", err)
	}
	return m, nil
}

// closeMigrator releases the source and database handles migrate opened.
func closeMigrator(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		log.Printf("Warning: error closing migrator (source: %v, database: %v)", srcErr, dbErr)
	}
}

// RunMigrations applies every pending up migration.
// migrate.ErrNoChange is success: the schema is simply already current.
func RunMigrations(cfg *config.PoolConfig) (*MigrationStatus, error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return nil, err
	}
	defer closeMigrator(m)

	status := &MigrationStatus{Applied: true}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return nil, apperror.NewMigrationError("failed to run migrations", err)
		}
		status.Applied = false
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, apperror.NewMigrationError("failed to read migration version", err)
	}
	status.Version = version
	status.Dirty = dirty
	return status, nil
}

// RollbackMigrations reverts the given number of migration steps.
func RollbackMigrations(cfg *config.PoolConfig, steps int) error {
	if steps <= 0 {
		return apperror.NewBadRequestError("rollback steps must be positive", nil)
	}
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to roll back migrations", err)
	}
	return nil
}
