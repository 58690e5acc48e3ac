// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Options selects the engine and location of the database.
type Options struct {
	Driver string // "sqlite" (default) or "postgres"
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Handle owns one database connection pool and its dialect.
type Handle struct {
	sqlDB   *sql.DB
	dialect Dialect
}

// Open opens (or creates) the database described by opts and pings it.
func Open(opts Options) (*Handle, error) {
	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch dialect.Name {
	case "sqlite":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		dsn = filepath.Clean(opts.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case "postgres":
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		dsn = opts.DSN
	}

	sqlDB, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect.Name, err)
	}
	if dialect.Name == "sqlite" {
		// one connection: transactions are serialized by the engine
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect.Name, err)
	}

	log.Printf("✅ Connected to %s database", dialect.Name)
	return &Handle{sqlDB: sqlDB, dialect: dialect}, nil
}

// Close closes the handle. It is safe to call on a nil handle.
func (h *Handle) Close() error {
	if h == nil || h.sqlDB == nil {
		return nil
	}
	return h.sqlDB.Close()
}

func (h *Handle) Dialect() Dialect {
	return h.dialect
}

// Transaction runs work inside one transaction. It commits when work returns
// nil and rolls back otherwise; the caller sees exactly one outcome.
func (h *Handle) Transaction(ctx context.Context, work func(tx *Tx) error) error {
	if h == nil || h.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sqlTx, err := h.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	// a panicking work func must not leave the only connection inside a transaction
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()
	tx := &Tx{tx: sqlTx, ctx: ctx, dialect: h.dialect}

	if err := work(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// Tx executes parameterized statements, in submission order, inside a
// Transaction. Statements use ? placeholders regardless of engine.
type Tx struct {
	tx      *sql.Tx
	ctx     context.Context
	dialect Dialect
}

func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, t.dialect.Rebind(query), args...)
}
