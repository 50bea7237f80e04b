// Package db is the storage layer of the tasks CLI.
//
// It talks to sqlite, MySQL or PostgreSQL through database/sql. Use Open() to
// prepare a handle and EnsureSchema() to create the database and the tasks table.
// Every operation acquires its own connection and releases it before returning.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"github.com/baiirun/tasks/internal/config"
	"github.com/baiirun/tasks/internal/telemetry"
)

// DB is the storage gateway for tasks.
type DB struct {
	cfg     config.Config
	dialect dialect
	pool    *sql.DB

	logger *slog.Logger
	tracer trace.Tracer
	ops    metric.Int64Counter
}

// Open prepares a handle for the configured store. No connection is made until
// an operation needs one, so an unreachable store is reported per operation.
func Open(cfg config.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(d.driverName(), d.dsn(cfg, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Released connections are closed, not parked in the pool.
	pool.SetMaxIdleConns(0)

	ops, err := telemetry.Meter().Int64Counter("tasks.db.operations",
		metric.WithDescription("Task store operations by outcome"),
		metric.WithUnit("{operation}"))
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}

	return &DB{
		cfg:     cfg,
		dialect: d,
		pool:    pool,
		logger:  telemetry.Logger().With("driver", cfg.Driver, "database", cfg.Database),
		tracer:  telemetry.Tracer(),
		ops:     ops,
	}, nil
}

// Close releases the underlying handle.
func (db *DB) Close() error {
	return db.pool.Close()
}

// EnsureSchema creates the database and the tasks table if they are missing,
// then checks that the table is really there. It is safe to call repeatedly.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if err := db.ensureDatabase(ctx); err != nil {
		db.logger.Error("failed to create database", "error", err)
		return err
	}

	err := db.withConn(ctx, "create schema", func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, db.dialect.createTable()); err != nil {
			return &StoreError{Op: "create tasks table", Err: err}
		}

		var count int
		if err := conn.QueryRowContext(ctx, db.dialect.tableExists()).Scan(&count); err != nil {
			return &StoreError{Op: "verify tasks table", Err: err}
		}
		if count == 0 {
			return &StoreError{Op: "verify tasks table", Err: errors.New("table tasks not found after creation")}
		}
		return nil
	})
	if err != nil {
		db.logger.Error("tasks table is not available", "error", err)
		return err
	}

	db.logger.Info("tasks table created or already exists")
	return nil
}

// ensureDatabase creates the target database when the store needs it explicitly.
func (db *DB) ensureDatabase(ctx context.Context) error {
	if db.cfg.Driver == config.DriverSQLite {
		if err := os.MkdirAll(db.cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create directory: %w", ErrConnection, err)
		}
		return nil
	}

	server, err := sql.Open(db.dialect.driverName(), db.dialect.dsn(db.cfg, false))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer func() { _ = server.Close() }()

	conn, err := server.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer func() { _ = conn.Close() }()

	if query := db.dialect.databaseExists(); query != "" {
		var count int
		if err := conn.QueryRowContext(ctx, query, db.cfg.Database).Scan(&count); err != nil {
			return &StoreError{Op: "look up database", Err: err}
		}
		if count > 0 {
			return nil
		}
	}

	for _, stmt := range db.dialect.createDatabase(db.cfg.Database) {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return &StoreError{Op: "create database", Err: err}
		}
	}
	db.logger.Info("database ready")
	return nil
}

// acquire opens a dedicated connection for a single operation.
func (db *DB) acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return conn, nil
}

// withConn runs fn on a freshly acquired connection and always releases it.
func (db *DB) withConn(ctx context.Context, op string, fn func(context.Context, *sql.Conn) error) (err error) {
	ctx, span := db.tracer.Start(ctx, op)
	defer func() {
		outcome := outcomeOf(err)
		db.ops.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			db.logger.Debug("operation failed", "op", op, "outcome", outcome, "error", err)
		}
		span.End()
	}()

	conn, err := db.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, conn)
}

// withTx runs fn inside a transaction that is committed only if fn succeeds.
func (db *DB) withTx(ctx context.Context, op string, fn func(context.Context, *sql.Tx) error) error {
	return db.withConn(ctx, op, func(ctx context.Context, conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return &StoreError{Op: op, Err: err}
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return &StoreError{Op: "commit " + op, Err: err}
		}
		return nil
	})
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConnection):
		return "connection"
	}
	return "error"
}
