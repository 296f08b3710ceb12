// Package txscope carries database transactions in a context namespace frame
// so that wrapped objects can reach the caller's transaction without it being
// passed through every method signature.
package txscope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/conduit-lang/clsproxy/pkg/cls"
)

// frameKey is a type for frame keys to avoid collisions
type frameKey string

const (
	// frameKeyTransaction is the key for storing a transaction in a frame
	frameKeyTransaction frameKey = "clsproxy:transaction"
)

var (
	// ErrNoTransaction is returned when no transaction is active
	ErrNoTransaction = errors.New("no transaction in active context")
)

// scope is the frame value for one transaction. Frames outlive the
// WithTransaction call that created them (bound functions keep them), so the
// scope is marked finished once the transaction commits or rolls back.
type scope struct {
	tx       *sql.Tx
	finished atomic.Bool
}

// Manager runs functions inside transactions scoped to a namespace frame
type Manager struct {
	db   *sql.DB
	ns   *cls.Namespace
	opts *sql.TxOptions
}

// NewManager creates a new transaction manager
func NewManager(db *sql.DB, ns *cls.Namespace) *Manager {
	return &Manager{db: db, ns: ns}
}

// WithOptions returns a manager that begins transactions with opts
func (m *Manager) WithOptions(opts *sql.TxOptions) *Manager {
	return &Manager{db: m.db, ns: m.ns, opts: opts}
}

// Namespace returns the namespace transactions are stored in
func (m *Manager) Namespace() *cls.Namespace {
	return m.ns
}

// WithTransaction executes fn in a new frame holding a transaction.
// Commits on success, rolls back on error or panic. A call made while a
// transaction is already active joins it instead of starting another.
func (m *Manager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := Current(ctx, m.ns); ok {
		return fn(ctx)
	}

	return m.ns.Run(ctx, func(ctx context.Context) error {
		tx, err := m.db.BeginTx(ctx, m.opts)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		sc := &scope{tx: tx}
		if err := m.ns.Set(ctx, frameKeyTransaction, sc); err != nil {
			_ = tx.Rollback()
			return err
		}
		defer sc.finished.Store(true)

		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p) // Re-throw panic after rollback
			}
		}()

		if err := fn(ctx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// ExecContext executes a statement on the active transaction, or directly on
// the database when none is active
func (m *Manager) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx, ok := Current(ctx, m.ns); ok {
		return tx.ExecContext(ctx, query, args...)
	}
	return m.db.ExecContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the active transaction, or
// directly on the database when none is active
func (m *Manager) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if tx, ok := Current(ctx, m.ns); ok {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return m.db.QueryRowContext(ctx, query, args...)
}

// Current returns the transaction visible from the active ns frame. A
// transaction that has already committed or rolled back is not current.
func Current(ctx context.Context, ns *cls.Namespace) (*sql.Tx, bool) {
	v, ok := ns.Get(ctx, frameKeyTransaction)
	if !ok {
		return nil, false
	}
	sc, ok := v.(*scope)
	if !ok || sc.finished.Load() {
		return nil, false
	}
	return sc.tx, true
}

// MustCurrent returns the active transaction.
// Panics if no transaction is active (use only when a transaction is guaranteed)
func MustCurrent(ctx context.Context, ns *cls.Namespace) *sql.Tx {
	tx, ok := Current(ctx, ns)
	if !ok {
		panic(ErrNoTransaction)
	}
	return tx
}
