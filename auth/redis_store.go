package auth

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore shares a cached token across every proxy process that holds
// the same credential, so a fleet of proxies behind one MCP server does
// not each mint its own OAuth token.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed token cache. prefix defaults to
// "mcpproxy:oauth:" when empty.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mcpproxy:oauth:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(cacheKey string) string { return s.prefix + cacheKey }

func (s *RedisStore) Token(ctx context.Context, key string, fetch Fetcher) (Token, error) {
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == nil {
		var cached Token
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil && !cached.expired(time.Now()) {
			return cached, nil
		}
	} else if err != redis.Nil {
		return Token{}, err
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return Token{}, err
	}
	data, err := json.Marshal(fresh)
	if err != nil {
		return Token{}, err
	}
	ttl := time.Until(fresh.ExpiresAt)
	if fresh.ExpiresAt.IsZero() || ttl <= 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return Token{}, err
	}
	return fresh, nil
}
