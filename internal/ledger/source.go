package ledger

import (
	"io"

	"github.com/roach88/settler/internal/tx"
)

// RecordSource yields transaction records in arrival order.
// Next returns io.EOF after the final record. Any other error is treated
// by the engine as a fatal source failure.
//
// Implemented by csvio.Decoder (production) and SliceSource (tests).
type RecordSource interface {
	Next() (tx.Record, error)
}

// SliceSource serves records from a slice. Used by tests and the harness
// where the input is already materialized.
type SliceSource struct {
	records []tx.Record
	idx     int
}

// NewSliceSource creates a source over the given records.
func NewSliceSource(records ...tx.Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements RecordSource.
func (s *SliceSource) Next() (tx.Record, error) {
	if s.idx >= len(s.records) {
		return tx.Record{}, io.EOF
	}
	rec := s.records[s.idx]
	s.idx++
	return rec, nil
}
