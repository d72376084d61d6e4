package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Repositories: newRepositories(db),
	}
}

func newRepositories(q DBTX) repository.Repositories {
	return repository.Repositories{
		Tenants:       NewTenantRepository(q),
		Vehicles:      NewVehicleRepository(q),
		Bookings:      NewBookingRepository(q),
		Activities:    NewActivityRepository(q),
		Sequences:     NewSequenceRepository(q),
		Ledger:        NewLedgerRepository(q),
		Documents:     NewDocumentRepository(q),
		Outbox:        NewOutboxRepository(q),
		Notifications: NewNotificationRepository(q),
	}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// WithinTx implements repository.TxManager. The connection wait is bounded by
// opts.MaxWait and the body by opts.Timeout, both in the context and as a
// server-side statement timeout.
func (s *Store) WithinTx(ctx context.Context, opts repository.TxOptions, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	waitCtx, cancelWait := ctx, context.CancelFunc(func() {})
	if opts.MaxWait > 0 {
		waitCtx, cancelWait = context.WithTimeout(ctx, opts.MaxWait)
	}
	conn, err := s.db.Conn(waitCtx)
	cancelWait()
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	txCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	tx, err := conn.BeginTx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if opts.Timeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.Timeout.Milliseconds())
		if _, err := tx.ExecContext(txCtx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	if err := fn(txCtx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}
