// Package db provides database connectivity and migration functionality for the inkwell application.
// It establishes the pgx connection pool used by the stores and applies the SQL
// migrations under migrations/ with golang-migrate.
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// postgres database driver for golang-migrate; it talks to the server through lib/pq.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // For file-based migrations
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/config"
)

// NewPool establishes the application's PostgreSQL connection pool.
// It configures max connections, connection lifetime and idle time, then pings
// the server so that a bad configuration fails at startup rather than on the first request.
func NewPool(ctx context.Context, cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(getDSN(cfg))
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(createCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s with pgxpool", cfg.DBName), err)
	}

	return pool, nil
}

// getDSN builds a URL DSN understood by both pgx and golang-migrate's postgres driver.
func getDSN(cfg *config.PoolConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RunMigrations applies any pending database migrations from migrationsPath.
// Files follow golang-migrate naming: {version}_{title}.up.sql / .down.sql.
func RunMigrations(cfg *config.PoolConfig, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, getDSN(cfg))
	if err != nil {
		return apperror.NewMigrationError("failed to create migrator", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			if srcErr != nil {
				log.Printf("Warning: error closing migration source: %v", srcErr)
			}
			if dbErr != nil {
				log.Printf("Warning: error closing migration database instance: %v", dbErr)
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No database schema migration ran. Database schema already in latest version")
			return nil
		}
		return apperror.NewMigrationError("failed to run migrations", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		log.Printf("Database schema migrated to version %d (dirty=%t)", version, dirty)
	}
	return nil
}
