package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestRedisQueueEnqueueDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q, err := NewRedisQueue(client, DefaultConfig("ledger"))
	require.NoError(t, err)
	ctx := context.Background()

	first := testTx("premium")
	second := testTx("standard")
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	items, err := q.DequeueWithTimeout(ctx, 10, time.Second)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// FIFO order and full round-trip of the transaction fields.
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
	assert.Equal(t, "premium", items[0].Tier)
	assert.Equal(t, 0.03, items[0].Cost)
	assert.True(t, items[0].Charged)
}

func TestRedisQueueSurvivesReconnect(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	cfg := DefaultConfig("ledger")
	q, err := NewRedisQueue(client, cfg)
	require.NoError(t, err)

	tx := testTx("enterprise")
	require.NoError(t, q.Enqueue(context.Background(), tx))

	// A second queue over a fresh client sees the same backlog.
	client2 := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client2.Close()
	q2, err := NewRedisQueue(client2, cfg)
	require.NoError(t, err)

	items, err := q2.DequeueWithTimeout(context.Background(), 10, time.Second)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, tx.ID, items[0].ID)
}

func TestRedisQueueRequiresConfig(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	_, err := NewRedisQueue(client, nil)
	assert.Error(t, err)
}

func TestRedisDeadLetterQueue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	dlq, err := NewRedisDeadLetterQueue(client, DefaultConfig("ledger"))
	require.NoError(t, err)
	ctx := context.Background()

	tx := testTx("premium")
	require.NoError(t, dlq.Add(ctx, tx, errors.New("database unavailable")))

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, tx.ID, items[0].Transaction.ID)
	assert.Equal(t, "database unavailable", items[0].Error)

	require.NoError(t, dlq.Remove(ctx, items[0].ID))
	items, err = dlq.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, dlq.Remove(ctx, "missing-id"), ErrItemNotFound)
}
