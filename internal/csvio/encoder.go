package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/roach88/settler/internal/ledger"
	"github.com/roach88/settler/internal/tx"
)

// WriteAccounts serializes the final account map as CSV.
//
// Clients are emitted in ascending id order so the same input always
// produces byte-identical output. Decimal fields are truncated, not
// rounded, to four fractional digits.
func WriteAccounts(w io.Writer, accounts map[uint16]*ledger.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("write output header: %w", err)
	}

	clients := make([]uint16, 0, len(accounts))
	for client := range accounts {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	for _, client := range clients {
		a := accounts[client]
		row := []string{
			strconv.FormatUint(uint64(client), 10),
			tx.Format(a.Available),
			tx.Format(a.Held),
			tx.Format(a.Total),
			strconv.FormatBool(a.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write account row for client %d: %w", client, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
