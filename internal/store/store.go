// Package store persists crop phase samples and extracted crop calendars in
// SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/ctsmpost/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrUnsupportedDriver = errors.New("store: unsupported database driver")
	ErrCaseNotFound      = errors.New("store: no phase samples for case")
	ErrIncompleteSeries  = errors.New("store: phase samples do not form a complete time x column grid")
	ErrRunNotFound       = errors.New("store: run not found")
)

// Store holds the connection to the calendar database
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.SugaredLogger
}

// Open connects to the database and brings the schema up to date. driver is
// "sqlite", "postgres" or "pgx".
func Open(ctx context.Context, driver, dsn string, logger *zap.SugaredLogger) (*Store, error) {
	s, err := Connect(ctx, driver, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Connect opens the database and checks it is reachable without touching
// the schema.
func Connect(ctx context.Context, driver, dsn string, logger *zap.SugaredLogger) (*Store, error) {
	switch driver {
	case "sqlite", "postgres", "pgx":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	logger.Infow("connecting to database", "driver", driver)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer; also keeps a :memory: database alive and shared
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return &Store{db: db, driver: driver, logger: logger}, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.Migrator().MigrateUp(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Migrator exposes the schema migrator for maintenance tools.
func (s *Store) Migrator() *migrate.Migrator {
	return migrate.NewMigrator(s.db, migrate.NewFSProvider(migrations, "migrations", "schema_migrations", s.driver), s.logger)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for the postgres drivers.
func (s *Store) rebind(query string) string {
	if s.driver == "sqlite" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
