package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avstrong/studio/internal/logger"
)

const (
	memoryPath         = ":memory:"
	defaultBusyTimeout = 5 * time.Second
)

var (
	ErrTransactionNotFoundInCtx = errors.New("no transaction found in ctx")
	ErrTransactionInProgress    = errors.New("transaction already in progress")
)

type Config struct {
	L           *logger.Logger
	Path        string
	BusyTimeout time.Duration
}

// DB is the durable booking store. Every transaction starts with BEGIN IMMEDIATE,
// so writers are serialized by SQLite itself and wait up to BusyTimeout for the lock.
type DB struct {
	l  *logger.Logger
	db *sql.DB
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(conf Config) (*DB, error) {
	busy := conf.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	if conf.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(conf.Path), 0o755); err != nil { //nolint:gomnd
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d&_txlock=immediate&_journal_mode=WAL",
		conf.Path, busy.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", conf.Path, err)
	}

	if conf.Path == memoryPath {
		// each connection of an in-memory database sees its own empty schema
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite database %s: %w", conf.Path, err)
	}

	return &DB{l: conf.L, db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

type contextKey string

const transactionKey contextKey = "sqliteTransaction"

func transactionFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(transactionKey).(*sql.Tx)

	return tx, ok && tx != nil
}

// conn returns the transaction of ctx or, outside of one, the connection pool.
func (db *DB) conn(ctx context.Context) querier {
	if tx, ok := transactionFromContext(ctx); ok {
		return tx
	}

	return db.db
}

func (db *DB) BeginTransaction(ctx context.Context) (context.Context, error) {
	if _, ok := transactionFromContext(ctx); ok {
		return ctx, ErrTransactionInProgress
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, fmt.Errorf("begin sqlite transaction: %w", err)
	}

	return context.WithValue(ctx, transactionKey, tx), nil
}

func (db *DB) CommitTransaction(ctx context.Context) error {
	tx, ok := transactionFromContext(ctx)
	if !ok {
		return ErrTransactionNotFoundInCtx
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite transaction: %w", err)
	}

	return nil
}

func (db *DB) RollbackTransaction(ctx context.Context) error {
	tx, ok := transactionFromContext(ctx)
	if !ok {
		return ErrTransactionNotFoundInCtx
	}

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback sqlite transaction: %w", err)
	}

	return nil
}
