package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skreaver/skreaver/internal/memory"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLite is a memory.Store backed by a single flat table, grounded on the
// teacher's sqlitevec backend's transaction style (BeginTx/PrepareContext/
// deferred safe-Rollback), generalized from its vector-embedding schema to
// a plain key/value table.
type SQLite struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path, or ":memory:" for an ephemeral store.
	Path string
}

// NewSQLite opens (and migrates) a SQLite-backed memory store.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	b := &SQLite{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLite) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS memory (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for i, stmt := range migrations {
		version := i + 1
		var exists int
		if err := b.db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
		if exists > 0 {
			continue
		}
		tx, err := b.db.Begin()
		if err != nil {
			return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
		if err := tx.Commit(); err != nil {
			return &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
	}
	return nil
}

// SchemaVersion reports the highest applied schema_migrations version,
// for the CLI's `migrate` subcommand to report status with.
func (b *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := b.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, &memory.Error{Op: memory.OpConnect, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	return version, nil
}

func (b *SQLite) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM memory WHERE key = ?`, key.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &memory.Error{Op: memory.OpLoad, Key: key.String(), Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	return value, true, nil
}

func (b *SQLite) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		v, ok, err := b.Load(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

func (b *SQLite) Store(ctx context.Context, update memory.Update) error {
	return b.StoreMany(ctx, []memory.Update{update})
}

func (b *SQLite) StoreMany(ctx context.Context, updates []memory.Update) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &memory.Error{Op: memory.OpStore, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			_ = err
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memory (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return &memory.Error{Op: memory.OpStore, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Key.String(), u.Value); err != nil {
			return &memory.Error{Op: memory.OpStore, Key: u.Key.String(), Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &memory.Error{Op: memory.OpStore, Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	return nil
}

func (b *SQLite) Delete(ctx context.Context, key memory.Key) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM memory WHERE key = ?`, key.String())
	if err != nil {
		return &memory.Error{Op: memory.OpDelete, Key: key.String(), Backend: memory.BackendSQLite, Kind: memory.KindIO, Err: err}
	}
	return nil
}

func (b *SQLite) Close() error { return b.db.Close() }

// Transaction runs f inside a single SQL transaction, bound to a Writer
// that issues statements against that transaction.
func (b *SQLite) Transaction(ctx context.Context, f memory.TxFunc) error {
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		if isBusy(err) {
			return &memory.TransactionError{Kind: memory.TxDeadlock, TimeoutMs: int64(5 * time.Second / time.Millisecond)}
		}
		return &memory.TransactionError{Kind: memory.TxFailed, Reason: err.Error(), Err: err}
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			_ = err
		}
	}()

	w := &sqlTxWriter{tx: tx}
	if ferr := f(ctx, w); ferr != nil {
		return &memory.TransactionError{Kind: memory.TxFailed, Reason: ferr.Error(), Err: ferr}
	}
	if err := tx.Commit(); err != nil {
		return &memory.TransactionError{Kind: memory.TxFailed, Reason: fmt.Sprintf("commit failed: %v", err), Err: err}
	}
	return nil
}

func isBusy(err error) bool {
	return err != nil && err.Error() == "database is locked"
}

type sqlTxWriter struct {
	tx *sql.Tx
}

func (w *sqlTxWriter) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	var value string
	err := w.tx.QueryRowContext(ctx, `SELECT value FROM memory WHERE key = ?`, key.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (w *sqlTxWriter) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		v, ok, err := w.Load(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			val := v
			out[i] = &val
		}
	}
	return out, nil
}

func (w *sqlTxWriter) Store(ctx context.Context, update memory.Update) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO memory (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, update.Key.String(), update.Value)
	return err
}

func (w *sqlTxWriter) StoreMany(ctx context.Context, updates []memory.Update) error {
	for _, u := range updates {
		if err := w.Store(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (w *sqlTxWriter) Delete(ctx context.Context, key memory.Key) error {
	_, err := w.tx.ExecContext(ctx, `DELETE FROM memory WHERE key = ?`, key.String())
	return err
}
