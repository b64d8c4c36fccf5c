package sheets

import (
	"context"
)

// Entry is one row of the append-only backup journal. Upserts snapshot the
// current ledger row; deletes record that the row was removed.
type Entry struct {
	TransactionID int64
	Event         string // "upsert" or "delete"
	Date          string // YYYY-MM-DD
	Kind          string
	AmountCents   int64
	Category      string
	Description   string
}

// Ports for outbound adapters.
type (
	JournalWriter interface {
		Append(ctx context.Context, e Entry) (rowRef string, err error)
	}
)
