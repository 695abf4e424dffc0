package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Conn is the minimal query surface stores depend on. Satisfied by *sqlx.DB
// and by the disabled connection, so call sites fail fast with
// ErrSQLiteDisabled instead of nil panicking when the ledger database is not
// configured.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Rebind(query string) string
}
