package ledger

import (
	"context"
	"sync"

	"vision_gateway/internal/models"
)

// recentWindow bounds how many transactions the memory ledger keeps for
// display. Daily aggregates are tracked separately and survive truncation.
const recentWindow = 1000

// MemoryLedger is an in-process Ledger for standalone deployments and
// tests.
type MemoryLedger struct {
	mu     sync.RWMutex
	recent []models.Transaction
	daily  map[string]models.DailyStats
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		daily: make(map[string]models.DailyStats),
	}
}

// Append records one completed request.
func (l *MemoryLedger) Append(ctx context.Context, tx models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recent = append(l.recent, tx)
	if len(l.recent) > recentWindow {
		l.recent = l.recent[len(l.recent)-recentWindow:]
	}

	day := tx.Date()
	stats := l.daily[day]
	stats.Date = day
	stats.RequestsToday++
	if tx.Charged {
		stats.ChargedRequests++
		stats.TotalSpent += tx.Cost
	} else {
		stats.FreeRequests++
	}
	l.daily[day] = stats

	return nil
}

// Daily returns the aggregates for a UTC date key.
func (l *MemoryLedger) Daily(ctx context.Context, date string) (models.DailyStats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if stats, ok := l.daily[date]; ok {
		return stats, nil
	}
	return models.DailyStats{Date: date}, nil
}

// Recent returns up to limit transactions, newest first.
func (l *MemoryLedger) Recent(ctx context.Context, limit int) ([]models.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.recent) {
		limit = len(l.recent)
	}

	out := make([]models.Transaction, 0, limit)
	for i := len(l.recent) - 1; i >= len(l.recent)-limit; i-- {
		out = append(out, l.recent[i])
	}
	return out, nil
}
