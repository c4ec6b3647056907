package storage

import (
	"context"
	"database/sql"
	"fmt"

	"vision_gateway/internal/models"
)

// LedgerRepository handles transaction and daily-stats database operations.
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Record appends one transaction and applies its daily-stats increments in
// a single database transaction, so concurrent appends on the same date
// cannot lose updates.
func (r *LedgerRepository) Record(ctx context.Context, tx models.Transaction) error {
	dbTx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := r.insert(ctx, dbTx, tx); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// RecordBatch appends several transactions atomically. Used by the queue
// worker to drain batches.
func (r *LedgerRepository) RecordBatch(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, tx := range txs {
		if err := r.insert(ctx, dbTx, tx); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (r *LedgerRepository) insert(ctx context.Context, dbTx sqlxExecer, tx models.Transaction) error {
	res, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, tier, cost, charged, quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, tx.ID, tx.Tier, tx.Cost, tx.Charged, tx.Quality, tx.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	// A duplicate append must not double-count the daily stats.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTransactionExists
	}

	charged := 0
	free := 1
	spent := 0.0
	if tx.Charged {
		charged = 1
		free = 0
		spent = tx.Cost
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_spent, requests_today, charged_requests, free_requests)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (date) DO UPDATE SET
			total_spent      = daily_stats.total_spent + EXCLUDED.total_spent,
			requests_today   = daily_stats.requests_today + 1,
			charged_requests = daily_stats.charged_requests + EXCLUDED.charged_requests,
			free_requests    = daily_stats.free_requests + EXCLUDED.free_requests
	`, tx.Date(), spent, charged, free)
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}

	return nil
}

// GetDailyStats returns the aggregates for a UTC date key, zero-valued
// when no activity was recorded.
func (r *LedgerRepository) GetDailyStats(ctx context.Context, date string) (models.DailyStats, error) {
	var stats models.DailyStats
	err := r.db.conn.GetContext(ctx, &stats, `
		SELECT date, total_spent, requests_today, charged_requests, free_requests
		FROM daily_stats
		WHERE date = $1
	`, date)
	if err == sql.ErrNoRows {
		return models.DailyStats{Date: date}, nil
	}
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("failed to get daily stats: %w", err)
	}

	return stats, nil
}

// RecentTransactions returns up to limit transactions, newest first.
func (r *LedgerRepository) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	var txs []models.Transaction
	err := r.db.conn.SelectContext(ctx, &txs, `
		SELECT id, tier, cost, charged, quality, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}

// sqlxExecer is the subset of sqlx.Tx the repository needs.
type sqlxExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
