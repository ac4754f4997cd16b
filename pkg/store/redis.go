package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long reports are retained.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound indicates the report does not exist or has expired.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidEntry indicates a stored report that cannot be decoded.
	ErrInvalidEntry = errors.New("invalid report entry")
)

// Redis stores reports in Redis.
type Redis struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedis creates a report store. A ttl of zero or less uses DefaultTTL.
func NewRedis(redisClient *redis.Client, ttl time.Duration) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{redis: redisClient, ttl: ttl}
}

// TTL returns the retention period.
func (s *Redis) TTL() time.Duration {
	return s.ttl
}

// Save stores result under its ID, replacing any previous report.
func (s *Redis) Save(ctx context.Context, result *report.BatchResult) error {
	if result == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if result.ID == "" {
		return fmt.Errorf("report id is required")
	}

	data, err := json.Marshal(result)
	if err != nil {
		StoreOperations.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := s.redis.Set(ctx, Key(result.ID), data, s.ttl).Err(); err != nil {
		StoreOperations.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	StoreOperations.WithLabelValues("save", "ok").Inc()
	StoredBytes.Observe(float64(len(data)))
	return nil
}

// Get returns the report with the given ID.
// Returns ErrNotFound if it doesn't exist or has expired.
func (s *Redis) Get(ctx context.Context, id string) (*report.BatchResult, error) {
	data, err := s.redis.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			StoreOperations.WithLabelValues("get", "miss").Inc()
			return nil, ErrNotFound
		}
		StoreOperations.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var result report.BatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		StoreOperations.WithLabelValues("get", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	StoreOperations.WithLabelValues("get", "ok").Inc()
	return &result, nil
}

// Delete removes a report. Deleting a missing report is not an error.
func (s *Redis) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, Key(id)).Err(); err != nil {
		StoreOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	StoreOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// Ping checks connectivity.
func (s *Redis) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
