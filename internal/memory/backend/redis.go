package backend

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/skreaver/skreaver/internal/memory"
)

// Redis is a memory.Store backed by a Redis key space. It does not
// implement Snapshotable or Transactional: Redis transactions (MULTI/EXEC)
// provide no read-your-writes isolation across concurrent clients without
// WATCH-based optimistic locking, which this backend does not attempt —
// callers needing transactional semantics should use SQLite or Postgres.
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, e.g. "skreaver:memory:".
	Prefix string
}

// NewRedis opens a Redis-backed memory store using the client's default
// connection pool (bounded by PoolSize), per Open Question (a): a shared
// pool rather than a single mutexed connection.
func NewRedis(cfg RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, prefix: cfg.Prefix}
}

func (b *Redis) rk(key memory.Key) string {
	return b.prefix + key.String()
}

func (b *Redis) Load(ctx context.Context, key memory.Key) (string, bool, error) {
	v, err := b.client.Get(ctx, b.rk(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &memory.Error{Op: memory.OpLoad, Key: key.String(), Backend: memory.BackendRedis, Kind: memory.KindNetworkError, Err: err}
	}
	return v, true, nil
}

func (b *Redis) LoadMany(ctx context.Context, keys []memory.Key) ([]*string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = b.rk(k)
	}
	vals, err := b.client.MGet(ctx, raw...).Result()
	if err != nil {
		return nil, &memory.Error{Op: memory.OpLoad, Backend: memory.BackendRedis, Kind: memory.KindNetworkError, Err: err}
	}
	out := make([]*string, len(keys))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = &s
		}
	}
	return out, nil
}

func (b *Redis) Store(ctx context.Context, update memory.Update) error {
	if err := b.client.Set(ctx, b.rk(update.Key), update.Value, 0).Err(); err != nil {
		return &memory.Error{Op: memory.OpStore, Key: update.Key.String(), Backend: memory.BackendRedis, Kind: memory.KindNetworkError, Err: err}
	}
	return nil
}

func (b *Redis) StoreMany(ctx context.Context, updates []memory.Update) error {
	pipe := b.client.Pipeline()
	for _, u := range updates {
		pipe.Set(ctx, b.rk(u.Key), u.Value, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &memory.Error{Op: memory.OpStore, Backend: memory.BackendRedis, Kind: memory.KindNetworkError, Err: err}
	}
	return nil
}

func (b *Redis) Delete(ctx context.Context, key memory.Key) error {
	if err := b.client.Del(ctx, b.rk(key)).Err(); err != nil {
		return &memory.Error{Op: memory.OpDelete, Key: key.String(), Backend: memory.BackendRedis, Kind: memory.KindNetworkError, Err: err}
	}
	return nil
}

func (b *Redis) Close() error { return b.client.Close() }
