package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one immutable ledger entry. Records are appended once and
// never mutated or deleted; display queries may truncate to a recent window
// but spend totals always come from the full record set.
type Transaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Tier      string    `db:"tier" json:"tier"`
	Cost      float64   `db:"cost" json:"cost"`
	Charged   bool      `db:"charged" json:"charged"`
	Quality   float64   `db:"quality" json:"quality"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}

// Date returns the UTC calendar date key the transaction belongs to.
func (t Transaction) Date() string {
	return t.Timestamp.UTC().Format(DateLayout)
}
