package core

import (
	"context"
	"database/sql"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx, so repositories
	// can run either standalone or inside a caller-owned transaction.
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	// Atomic runs fn inside a single database transaction; fn's executor must be
	// passed down to every repository call that should commit or roll back together.
	Atomic interface {
		RunInTx(ctx context.Context, fn func(exec DBExecutor) error) error
	}
)

