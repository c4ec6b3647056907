package storage

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"vision_gateway/internal/models"
	"vision_gateway/internal/queue"
)

// LedgerQueueWorker drains queued ledger transactions into the database in
// batches, retrying failed batches item by item and parking exhausted
// items in the dead-letter queue.
type LedgerQueueWorker struct {
	queue       queue.Queue
	dlq         queue.DeadLetterQueue
	repo        *LedgerRepository
	config      *queue.Config
	log         *logrus.Entry
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewLedgerQueueWorker creates a new ledger queue worker.
func NewLedgerQueueWorker(q queue.Queue, dlq queue.DeadLetterQueue, repo *LedgerRepository, config *queue.Config, log *logrus.Logger) *LedgerQueueWorker {
	if config == nil {
		config = queue.DefaultConfig("ledger")
	}

	return &LedgerQueueWorker{
		queue:       q,
		dlq:         dlq,
		repo:        repo,
		config:      config,
		log:         log.WithField("component", "ledger-worker"),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine.
func (w *LedgerQueueWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *LedgerQueueWorker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

func (w *LedgerQueueWorker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.log.Info("ledger worker stopping")
			return
		case <-ctx.Done():
			w.log.Info("ledger worker context cancelled")
			return
		default:
			w.processBatch(ctx)
		}
	}
}

func (w *LedgerQueueWorker) processBatch(ctx context.Context) {
	txs, err := w.queue.DequeueWithTimeout(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil {
		w.log.WithError(err).Error("failed to dequeue transactions")
		time.Sleep(1 * time.Second) // back off on error
		return
	}

	if len(txs) == 0 {
		return
	}

	w.log.WithField("count", len(txs)).Debug("storing transaction batch")

	if err := w.repo.RecordBatch(ctx, txs); err == nil {
		return
	} else if err == ErrTransactionExists {
		// A duplicate poisons the whole batch; fall through and store
		// the rest individually.
		w.log.Warn("duplicate transaction in batch")
	} else {
		w.log.WithError(err).Error("batch insert failed, retrying individually")
	}

	for _, tx := range txs {
		if err := w.storeWithRetry(ctx, tx); err != nil {
			w.log.WithError(err).WithField("transaction_id", tx.ID).Error("transaction sent to dead letter queue")
			if dlqErr := w.dlq.Add(ctx, tx, err); dlqErr != nil {
				w.log.WithError(dlqErr).Error("failed to store dead letter item")
			}
		}
	}
}

func (w *LedgerQueueWorker) storeWithRetry(ctx context.Context, tx models.Transaction) error {
	backoff := w.config.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		lastErr = w.repo.Record(ctx, tx)
		if lastErr == nil {
			return nil
		}
		if lastErr == ErrTransactionExists {
			// Already recorded; the append-once contract holds.
			return nil
		}
	}

	return lastErr
}
