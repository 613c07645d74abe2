package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prperemyshlev/starterkit-auth/pkg/database"
)

// DBTX is the subset of database/sql the repositories use.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Token   TokenRepository
	Payment PaymentRepository
	Tx      Transactor
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	repos := newRepositories(db.DB)
	repos.Tx = &postgresTransactor{db: db.DB}
	return repos
}

func newRepositories(db DBTX) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Token:   NewTokenRepository(db),
		Payment: NewPaymentRepository(db),
	}
}

type postgresTransactor struct {
	db *sql.DB
}

// WithinTransaction implements Transactor
func (t *postgresTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return WithTx(ctx, t.db, nil, func(ctx context.Context, tx DBTX) error {
		repos := newRepositories(tx)
		repos.Tx = nestedTransactor{repos: repos}
		return fn(ctx, repos)
	})
}

// nestedTransactor reuses the enclosing transaction.
type nestedTransactor struct {
	repos *Repositories
}

func (n nestedTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return fn(ctx, n.repos)
}

// WithTx begins a transaction, runs fn with it and commits on success.
// It rolls back when fn returns an error or panics; panics are rethrown.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}
