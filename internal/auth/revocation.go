package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Revocations remembers logged-out session ids until their tokens expire.
type Revocations interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// MemoryRevocations keeps revoked ids in process memory. Revocations are lost
// on restart, which only matters for tokens that have not yet expired.
type MemoryRevocations struct {
	cache *cache.Cache
}

func NewMemoryRevocations() *MemoryRevocations {
	// Entries carry their own expiration; purge every 10 minutes.
	return &MemoryRevocations{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	m.cache.Set(id, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, found := m.cache.Get(id)
	return found, nil
}

const redisRevokedPrefix = "portfolio:revoked:"

// RedisRevocations shares revocations between server instances.
type RedisRevocations struct {
	rdb *redis.Client
}

func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

// NewRedisClient parses url and falls back to treating it as a plain address.
func NewRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}

func (r *RedisRevocations) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, redisRevokedPrefix+id, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Exists(ctx, redisRevokedPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
