package ledger

import (
	"github.com/roach88/settler/internal/tx"
)

// DisputeStatus tracks where a registered transaction sits in the dispute
// lifecycle. Transitions: accepted -> disputed -> accepted (resolve) or
// accepted -> disputed -> charged_back (terminal, may not reopen).
type DisputeStatus string

const (
	// StatusAccepted means the transaction has no open dispute.
	StatusAccepted DisputeStatus = "accepted"

	// StatusDisputed means a dispute is open and funds are held.
	StatusDisputed DisputeStatus = "disputed"

	// StatusChargedBack is terminal: the dispute closed with a chargeback
	// and the entry may never be disputed again.
	StatusChargedBack DisputeStatus = "charged_back"
)

// Index tracks every accepted deposit/withdrawal by transaction id so a
// later dispute can re-derive the original record, plus the dispute status
// of each entry.
//
// Implementations must make Lookup idempotent: looking up the same id
// repeatedly always yields the same record. Entries are never removed,
// only status-flipped — a resolved dispute may legally be reopened.
//
// Two implementations exist: MemoryIndex (full records cached in memory)
// and store.Index (records spilled to a SQLite file and re-fetched on
// demand). Both are exercised by the engine through this interface.
type Index interface {
	// Register records an accepted transaction under its id.
	// A reused id is a fatal ProcessError with ErrCodeDuplicateTx.
	Register(rec tx.Record) error

	// Lookup retrieves a registered record and its dispute status.
	// ok is false when the id was never registered. A non-nil error means
	// the lookup mechanism itself failed, which is fatal.
	Lookup(id uint32) (rec tx.Record, status DisputeStatus, ok bool, err error)

	// SetStatus flips the dispute status of a registered entry.
	SetStatus(id uint32, status DisputeStatus) error

	// Close releases any resources backing the index.
	Close() error
}

// MemoryIndex caches full records in memory. This is the default backend:
// no re-read I/O, memory proportional to the number of accepted
// transactions.
type MemoryIndex struct {
	entries map[uint32]*memEntry
}

type memEntry struct {
	rec    tx.Record
	status DisputeStatus
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[uint32]*memEntry)}
}

// Register implements Index.
func (m *MemoryIndex) Register(rec tx.Record) error {
	if _, exists := m.entries[rec.Tx]; exists {
		return &ProcessError{
			Code:    ErrCodeDuplicateTx,
			Message: "transaction id already processed",
			Client:  rec.Client,
			Tx:      rec.Tx,
			Op:      string(rec.Kind),
		}
	}
	m.entries[rec.Tx] = &memEntry{rec: rec, status: StatusAccepted}
	return nil
}

// Lookup implements Index. Never fails: the cache cannot lose entries.
func (m *MemoryIndex) Lookup(id uint32) (tx.Record, DisputeStatus, bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return tx.Record{}, "", false, nil
	}
	return e.rec, e.status, true, nil
}

// SetStatus implements Index.
func (m *MemoryIndex) SetStatus(id uint32, status DisputeStatus) error {
	e, ok := m.entries[id]
	if !ok {
		return &ProcessError{
			Code:    ErrCodeLookupFailed,
			Message: "status update for unregistered transaction",
			Tx:      id,
		}
	}
	e.status = status
	return nil
}

// Close implements Index. No-op for the in-memory backend.
func (m *MemoryIndex) Close() error {
	return nil
}

// Len returns the number of registered entries.
// Used for testing and diagnostics.
func (m *MemoryIndex) Len() int {
	return len(m.entries)
}
