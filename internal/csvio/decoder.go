// Package csvio implements the tabular input/output boundary: a decoder
// that turns raw CSV rows into typed transaction records, and an encoder
// that serializes final account state.
//
// The decoder is deliberately forgiving: rows that fail to decode into a
// well-formed record are dropped (and reported via Skipped) before they
// reach the engine. Structural failures — a broken header, an I/O error —
// are returned to the caller and abort the run.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/settler/internal/tx"
)

// Column names of the input table.
const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// SkippedRow describes one dropped input row.
type SkippedRow struct {
	Line   int
	Reason string
}

// Decoder reads transaction records from CSV input.
// Implements ledger.RecordSource.
type Decoder struct {
	r          *csv.Reader
	cols       map[string]int
	line       int
	skipped    []SkippedRow
	headerRead bool
}

// NewDecoder creates a decoder over r. The header row is validated lazily
// on the first Next call.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // rows are validated per-column, not by arity
	return &Decoder{r: cr}
}

// Next returns the next well-formed record, silently dropping rows that
// fail to decode. Returns io.EOF at end of input. Any other error is a
// structural failure of the source.
func (d *Decoder) Next() (tx.Record, error) {
	if !d.headerRead {
		if err := d.readHeader(); err != nil {
			return tx.Record{}, err
		}
	}

	for {
		row, err := d.r.Read()
		if errors.Is(err, io.EOF) {
			return tx.Record{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			d.line = parseErr.Line
			d.skip("malformed CSV row")
			continue
		}
		if err != nil {
			return tx.Record{}, fmt.Errorf("read input row: %w", err)
		}

		// Physical line of the row's first field. Quoted fields may span
		// lines, so counting records would drift from the file.
		d.line, _ = d.r.FieldPos(0)

		rec, reason := d.decodeRow(row)
		if reason != "" {
			d.skip(reason)
			continue
		}
		return rec, nil
	}
}

// Skipped returns the rows dropped so far, in input order.
func (d *Decoder) Skipped() []SkippedRow {
	return d.skipped
}

func (d *Decoder) skip(reason string) {
	d.skipped = append(d.skipped, SkippedRow{Line: d.line, Reason: reason})
}

// readHeader parses the header row and resolves column positions.
// type, client and tx are required; amount is optional since dispute-only
// inputs may omit the column entirely.
func (d *Decoder) readHeader() error {
	header, err := d.r.Read()
	if err != nil {
		return fmt.Errorf("read input header: %w", err)
	}
	d.headerRead = true

	d.cols = make(map[string]int, len(header))
	for i, name := range header {
		d.cols[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := d.cols[required]; !ok {
			return fmt.Errorf("input header is missing the %q column", required)
		}
	}
	return nil
}

// decodeRow turns one raw row into a record.
// A non-empty reason means the row is dropped.
func (d *Decoder) decodeRow(row []string) (tx.Record, string) {
	rawKind, ok := d.field(row, colType)
	if !ok {
		return tx.Record{}, "missing type field"
	}
	kind, err := tx.ParseKind(rawKind)
	if err != nil {
		return tx.Record{}, err.Error()
	}

	rawClient, ok := d.field(row, colClient)
	if !ok {
		return tx.Record{}, "missing client field"
	}
	client, err := strconv.ParseUint(rawClient, 10, 16)
	if err != nil {
		return tx.Record{}, fmt.Sprintf("invalid client %q", rawClient)
	}

	rawTx, ok := d.field(row, colTx)
	if !ok {
		return tx.Record{}, "missing tx field"
	}
	id, err := strconv.ParseUint(rawTx, 10, 32)
	if err != nil {
		return tx.Record{}, fmt.Sprintf("invalid tx %q", rawTx)
	}

	rec := tx.Record{
		Kind:   kind,
		Client: uint16(client),
		Tx:     uint32(id),
		Line:   d.line,
	}

	// An absent amount on a deposit/withdrawal is not dropped here: the
	// engine treats it as malformed accepted-kind input, which is fatal.
	if rawAmount, ok := d.field(row, colAmount); ok && rawAmount != "" {
		amount, err := tx.ParseAmount(rawAmount)
		if err != nil {
			return tx.Record{}, err.Error()
		}
		rec.Amount = &amount
	}

	return rec, ""
}

// field returns the trimmed value of a named column, if the row has it.
func (d *Decoder) field(row []string, name string) (string, bool) {
	idx, ok := d.cols[name]
	if !ok || idx >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}
