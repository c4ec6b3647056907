package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vision_gateway/internal/models"
)

// SpendTracker keeps fast per-day spend counters. They back the display
// of progress against the configured daily limit; the Postgres ledger
// remains the source of truth.
type SpendTracker interface {
	AddSpend(ctx context.Context, day string, costSTX float64) error
	DailySpend(ctx context.Context, day string) (float64, error)
}

// NoopSpendTracker discards spend updates. Used when Redis is not
// configured.
type NoopSpendTracker struct{}

func NewNoopSpendTracker() *NoopSpendTracker {
	return &NoopSpendTracker{}
}

func (t *NoopSpendTracker) AddSpend(ctx context.Context, day string, costSTX float64) error {
	return nil
}

func (t *NoopSpendTracker) DailySpend(ctx context.Context, day string) (float64, error) {
	return 0, nil
}

// RedisSpendTracker tracks daily spend in Redis.
type RedisSpendTracker struct {
	redis *redis.Client
}

// NewRedisSpendTracker creates a Redis-backed spend tracker.
func NewRedisSpendTracker(client *redis.Client) *RedisSpendTracker {
	return &RedisSpendTracker{redis: client}
}

// addSpendScript increments the daily total atomically so that concurrent
// requests on the same calendar date cannot lose updates.
var addSpendScript = redis.NewScript(`
	local key = KEYS[1]
	local cost = tonumber(ARGV[1])
	local ttl = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key)) or 0
	local new_total = current + cost

	redis.call('SET', key, new_total, 'EX', ttl)
	return tostring(new_total)
`)

// AddSpend adds cost to the running total for a UTC date key.
func (t *RedisSpendTracker) AddSpend(ctx context.Context, day string, costSTX float64) error {
	// Keep counters for two days past their date; history lives in Postgres.
	ttl := int((48 * time.Hour).Seconds())

	_, err := addSpendScript.Run(ctx, t.redis, []string{t.dailyKey(day)}, costSTX, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to add spend: %w", err)
	}

	return nil
}

// DailySpend returns the running charged total for a UTC date key.
func (t *RedisSpendTracker) DailySpend(ctx context.Context, day string) (float64, error) {
	val, err := t.redis.Get(ctx, t.dailyKey(day)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get daily spend: %w", err)
	}

	return val, nil
}

// Today returns the current UTC date key.
func Today() string {
	return models.DateKey(time.Now())
}

func (t *RedisSpendTracker) dailyKey(day string) string {
	return fmt.Sprintf("spend:%s", day)
}
