package auth

import (
	"context"
	"time"
)

// Token is a cached OAuth access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (t Token) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt.Add(-tokenRefreshSkew))
}

// tokenRefreshSkew refreshes a cached token this long before it actually
// expires, so an in-flight request never races a just-expired token.
const tokenRefreshSkew = 30 * time.Second

// Fetcher mints a fresh token; it is only called on a cache miss or when
// the cached token is within tokenRefreshSkew of expiring.
type Fetcher func(ctx context.Context) (Token, error)

// Store caches OAuth tokens across requests (and, for RedisStore, across
// proxy processes sharing the same credential).
type Store interface {
	// Token returns a cached token for key if still fresh, else calls
	// fetch, caches the result, and returns it.
	Token(ctx context.Context, key string, fetch Fetcher) (Token, error)
}

// defaultTokenStore backs any OAuth credential that doesn't set Store
// explicitly, so a bare OAuth{} still caches across repeated Apply calls
// within one process.
var defaultTokenStore Store = NewMemoryStore()
