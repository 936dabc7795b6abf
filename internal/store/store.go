package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/roach88/settler/internal/ledger"
	"github.com/roach88/settler/internal/tx"
)

//go:embed schema.sql
var schemaSQL string

// Index is a SQLite-backed implementation of ledger.Index.
// Records are written once on Register and re-read on every Lookup.
type Index struct {
	db *sql.DB
}

// Compile-time interface check.
var _ ledger.Index = (*Index)(nil)

// Open creates or opens the index database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing file.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// Register implements ledger.Index. Duplicate ids surface as a fatal
// ProcessError, detected via the primary-key conflict rather than a
// read-then-write pair.
func (i *Index) Register(rec tx.Record) error {
	var amount any
	if rec.Amount != nil {
		amount = rec.Amount.String()
	}

	res, err := i.db.Exec(`
		INSERT INTO transactions (tx, client, kind, amount, line, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tx) DO NOTHING
	`, rec.Tx, rec.Client, string(rec.Kind), amount, rec.Line, string(ledger.StatusAccepted))
	if err != nil {
		return &ledger.ProcessError{
			Code:    ledger.ErrCodeLookupFailed,
			Message: "index write failed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
			Err:     err,
		}
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		return &ledger.ProcessError{
			Code:    ledger.ErrCodeDuplicateTx,
			Message: "transaction id already processed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
	return nil
}

// Lookup implements ledger.Index. The row is re-read on every call; the
// same id always yields the same record.
func (i *Index) Lookup(id uint32) (tx.Record, ledger.DisputeStatus, bool, error) {
	var (
		client uint16
		kind   string
		amount sql.NullString
		line   int
		status string
	)
	err := i.db.QueryRow(`
		SELECT client, kind, amount, line, status
		FROM transactions WHERE tx = ?
	`, id).Scan(&client, &kind, &amount, &line, &status)
	if err == sql.ErrNoRows {
		return tx.Record{}, "", false, nil
	}
	if err != nil {
		return tx.Record{}, "", false, fmt.Errorf("read transaction %d: %w", id, err)
	}

	rec := tx.Record{
		Kind:   tx.Kind(kind),
		Client: client,
		Tx:     id,
		Line:   line,
	}
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return tx.Record{}, "", false, fmt.Errorf("stored amount for tx %d is corrupt: %w", id, err)
		}
		rec.Amount = &d
	}
	return rec, ledger.DisputeStatus(status), true, nil
}

// SetStatus implements ledger.Index.
func (i *Index) SetStatus(id uint32, status ledger.DisputeStatus) error {
	res, err := i.db.Exec(`UPDATE transactions SET status = ? WHERE tx = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update status for tx %d: %w", id, err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if updated == 0 {
		return &ledger.ProcessError{
			Code:    ledger.ErrCodeLookupFailed,
			Message: "status update for unregistered transaction",
			Tx:      id,
		}
	}
	return nil
}

// Len returns the number of registered entries.
// Used for testing and diagnostics.
func (i *Index) Len() (int, error) {
	var n int
	if err := i.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
