package queue

import (
	"context"
	"errors"
	"time"

	"vision_gateway/internal/models"
)

// Package queue buffers ledger appends between the request pipeline and the
// transactional store, with two backends:
//
//  1. Memory queue (channel-based): no persistence, no external deps;
//     fits standalone deployments and tests.
//  2. Redis queue (list-based): persistent across restarts and shared by
//     distributed workers.
//
// A batch worker in the storage package drains the queue into Postgres;
// transactions that exhaust their retries land in the dead-letter queue.

var (
	// ErrQueueClosed is returned when operating on a closed queue
	ErrQueueClosed = errors.New("queue is closed")

	// ErrItemNotFound is returned when a dead-letter item is not found
	ErrItemNotFound = errors.New("item not found")
)

// Queue carries ledger transactions awaiting durable storage.
type Queue interface {
	// Enqueue adds a transaction to the queue
	Enqueue(ctx context.Context, tx models.Transaction) error

	// DequeueWithTimeout retrieves up to maxItems transactions, returning
	// an empty slice if none arrive before the timeout
	DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]models.Transaction, error)

	// Length returns the current queue length
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue gracefully
	Close() error
}

// DeadLetterQueue holds transactions that could not be stored.
type DeadLetterQueue interface {
	// Add records a failed transaction with its error
	Add(ctx context.Context, tx models.Transaction, err error) error

	// List retrieves up to maxItems dead-letter entries
	List(ctx context.Context, maxItems int) ([]DeadLetterItem, error)

	// Remove deletes an entry by ID
	Remove(ctx context.Context, id string) error

	// Close shuts down the dead letter queue
	Close() error
}

// DeadLetterItem is one failed transaction with its error context.
type DeadLetterItem struct {
	ID          string             `json:"id"`
	Transaction models.Transaction `json:"transaction"`
	Error       string             `json:"error"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Config holds queue configuration.
type Config struct {
	// BatchSize is the maximum number of transactions per worker batch
	BatchSize int

	// BatchTimeout is how long the worker waits before draining a partial batch
	BatchTimeout time.Duration

	// MaxRetries is the maximum number of store attempts per batch item
	MaxRetries int

	// RetryBackoff is the initial backoff between attempts
	RetryBackoff time.Duration

	// QueueName is the name/key for the queue
	QueueName string
}

// DefaultConfig returns default queue configuration.
func DefaultConfig(queueName string) *Config {
	return &Config{
		BatchSize:    100,
		BatchTimeout: 5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
		QueueName:    queueName,
	}
}
