package ledger

import (
	"context"

	"vision_gateway/internal/models"
)

// Ledger is the append-only record of transactions plus per-day aggregates.
// Appends must be atomic with their daily-stat increments so concurrent
// requests on the same UTC date cannot lose updates; reads for display may
// be eventually consistent.
type Ledger interface {
	// Append records one completed request. Exactly one call per
	// completed (non-rejected) request.
	Append(ctx context.Context, tx models.Transaction) error

	// Daily returns the aggregates for a UTC date key, zero-valued if no
	// activity was recorded on that date.
	Daily(ctx context.Context, date string) (models.DailyStats, error)

	// Recent returns up to limit transactions, newest first. The window
	// is bounded for display; truncation never alters recorded totals.
	Recent(ctx context.Context, limit int) ([]models.Transaction, error)
}
