package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kanmind/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 15 * time.Second

// Storage is the Postgres entity store. Cascade and set-null rules live in
// the schema (see migrations/).
type Storage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStorage opens a pool for connStr and verifies it with a ping.
func NewStorage(ctx context.Context, connStr string, logger *slog.Logger) (*Storage, error) {
	if connStr == "" {
		return nil, errors.ErrEmptyDSN
	}
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	config.MaxConns = 25
	config.MinConns = 2

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrDatabaseConnection, err)
	}

	logger.Info("database connection established", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	return &Storage{pool: pool, logger: logger}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() {
	s.pool.Close()
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// foreignKeyConstraint returns the violated constraint name, or "" when err
// is not a foreign key violation.
func foreignKeyConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgErr.ConstraintName
	}
	return ""
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// validID reports whether id can be bound to a UUID column. Malformed IDs
// cannot match any row, so lookups treat them as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) bool {
	for _, id := range ids {
		if !validID(id) {
			return false
		}
	}
	return true
}

func validRef(id *string) bool {
	return id == nil || validID(*id)
}
