/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package playback

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// safetyMargin is subtracted from a provider token's reported expiry so
// refreshes happen before the upstream actually invalidates the token.
const safetyMargin = 30 * time.Second

// TokenCache holds short-lived provider auth tokens process-wide, keyed by
// provider name, refreshing them through fetch on miss or expiry. Refresh is
// serialized per provider to avoid a thundering herd of concurrent fetches.
type TokenCache struct {
	cache *gocache.Cache
	locks sync.Map // provider name -> *sync.Mutex
}

// NewTokenCache builds an empty TokenCache; cleanupInterval controls how
// often expired entries are swept.
func NewTokenCache(cleanupInterval time.Duration) *TokenCache {
	return &TokenCache{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// FetchFunc retrieves a fresh token and its remaining time-to-live.
type FetchFunc func() (token string, ttl time.Duration, err error)

// Get returns the cached token for provider, fetching (and caching) a fresh
// one if absent or expired. Concurrent callers for the same provider block
// on one another rather than issuing redundant fetches.
func (c *TokenCache) Get(provider string, fetch FetchFunc) (string, error) {
	if token, ok := c.cache.Get(provider); ok {
		return token.(string), nil
	}

	lockAny, _ := c.locks.LoadOrStore(provider, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	// Another goroutine may have refreshed it while we waited for the lock.
	if token, ok := c.cache.Get(provider); ok {
		return token.(string), nil
	}

	token, ttl, err := fetch()
	if err != nil {
		return "", err
	}

	expiry := ttl - safetyMargin
	if expiry <= 0 {
		expiry = ttl
	}
	c.cache.Set(provider, token, expiry)

	return token, nil
}
