package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront-cart/internal/port"
)

const (
	stateKeyPrefix    = "storefront:"
	idempotencyKeyTTL = 24 * time.Hour
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Refuses values over the per-key quota, otherwise stores with a sliding TTL.
var setWithQuotaScript = redis.NewScript(`
local key = KEYS[1]
local value = ARGV[1]
local quota = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

if quota > 0 and string.len(value) > quota then
	return 0
end

if ttl > 0 then
	redis.call('SET', key, value, 'EX', ttl)
else
	redis.call('SET', key, value)
end
return 1
`)

type RedisAdapter struct {
	client *redis.Client
	quota  int
	ttl    time.Duration
}

// NewRedisAdapter stores session state with the given per-value byte quota
// and TTL. Zero disables either limit.
func NewRedisAdapter(client *redis.Client, quota int, ttl time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, quota: quota, ttl: ttl}
}

// Scope returns the key-value store for one session.
func (r *RedisAdapter) Scope(sessionID string) port.KeyValueStore {
	return &redisScope{adapter: r, prefix: stateKeyPrefix + sessionID + ":"}
}

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key, value string) error {
	result, err := setWithQuotaScript.Run(ctx, r.client, []string{key}, value, r.quota, int64(r.ttl/time.Second)).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrQuotaExceeded
	}
	return nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type redisScope struct {
	adapter *RedisAdapter
	prefix  string
}

func (s *redisScope) Get(ctx context.Context, key string) (string, bool, error) {
	return s.adapter.Get(ctx, s.prefix+key)
}

func (s *redisScope) Set(ctx context.Context, key, value string) error {
	return s.adapter.Set(ctx, s.prefix+key, value)
}
