package ledger

import (
	"context"
	"fmt"

	"vision_gateway/internal/billing"
	"vision_gateway/internal/models"
	"vision_gateway/internal/queue"
	"vision_gateway/internal/storage"
)

// StoreLedger backs the ledger with Postgres. Appends go through the
// ledger queue so the request path never blocks on the database; the
// queue worker applies each append atomically. Charged costs are also
// mirrored into the Redis spend tracker for fast display reads.
type StoreLedger struct {
	queue queue.Queue
	repo  *storage.LedgerRepository
	spend billing.SpendTracker
}

// NewStoreLedger creates a store-backed ledger.
func NewStoreLedger(q queue.Queue, repo *storage.LedgerRepository, spend billing.SpendTracker) *StoreLedger {
	if spend == nil {
		spend = billing.NewNoopSpendTracker()
	}
	return &StoreLedger{queue: q, repo: repo, spend: spend}
}

// Append enqueues one completed request for durable storage.
func (l *StoreLedger) Append(ctx context.Context, tx models.Transaction) error {
	if err := l.queue.Enqueue(ctx, tx); err != nil {
		return fmt.Errorf("failed to enqueue transaction: %w", err)
	}

	if tx.Charged {
		// Best-effort: the Postgres aggregate is the source of truth.
		_ = l.spend.AddSpend(ctx, tx.Date(), tx.Cost)
	}

	return nil
}

// Daily returns the aggregates for a UTC date key.
func (l *StoreLedger) Daily(ctx context.Context, date string) (models.DailyStats, error) {
	return l.repo.GetDailyStats(ctx, date)
}

// Recent returns up to limit transactions, newest first.
func (l *StoreLedger) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	return l.repo.RecentTransactions(ctx, limit)
}
