package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atinyakov/loancalc/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loancalc:calculators:active:"

// Redis stores active configurations as JSON values with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects a cache to the server at addr.
func NewRedis(addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return NewRedisWithClient(rdb, ttl)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(t models.CalculatorType) string {
	return keyPrefix + string(t)
}

// Get reports a miss on any error so that callers fall back to the store.
func (r *Redis) Get(ctx context.Context, t models.CalculatorType) ([]models.Calculator, bool) {
	val, err := r.client.Get(ctx, key(t)).Bytes()
	if err != nil {
		return nil, false
	}
	var cs []models.Calculator
	if err := json.Unmarshal(val, &cs); err != nil {
		return nil, false
	}
	return cs, true
}

func (r *Redis) Set(ctx context.Context, t models.CalculatorType, cs []models.Calculator) error {
	val, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if err := r.client.Set(ctx, key(t), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, types ...models.CalculatorType) error {
	if len(types) == 0 {
		return nil
	}
	keys := make([]string, 0, len(types))
	for _, t := range types {
		keys = append(keys, key(t))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// Ping checks the connection to the server.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
