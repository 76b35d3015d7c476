package jwks

import (
	"context"
	"crypto"
	"errors"
	"sync"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrKeyNotFound is returned when no key in the issuer's set matches a kid.
var ErrKeyNotFound = errors.New("jwks: signing key not found")

const (
	defaultKeySetTTL = 10 * time.Minute
	// fetchTimeout bounds a shared fetch once it no longer follows a caller.
	fetchTimeout = 30 * time.Second
)

type cacheEntry struct {
	keys      auth.KeySet
	fetchedAt time.Time
}

// CachingKeySetProvider caches key sets per issuer. Concurrent refreshes of
// the same issuer share one upstream fetch, and refreshes triggered by an
// unknown kid are throttled.
type CachingKeySetProvider struct {
	next    auth.KeySetProvider
	ttl     time.Duration
	limiter *rate.Limiter
	now     func() time.Time
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCachingKeySetProvider(next auth.KeySetProvider, ttl, minRefreshInterval time.Duration) *CachingKeySetProvider {
	if ttl <= 0 {
		ttl = defaultKeySetTTL
	}
	limit := rate.Inf
	if minRefreshInterval > 0 {
		limit = rate.Every(minRefreshInterval)
	}
	return &CachingKeySetProvider{
		next:    next,
		ttl:     ttl,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns the cached key set, refreshing it once the TTL has passed.
// A stale set is served if the refresh fails.
func (c *CachingKeySetProvider) Fetch(ctx context.Context, issuer string) (auth.KeySet, error) {
	keys, _, err := c.load(ctx, issuer)
	return keys, err
}

// Lookup returns the key for kid. On a miss the set is refetched, at most
// once per minimum refresh interval.
func (c *CachingKeySetProvider) Lookup(ctx context.Context, issuer, kid string) (crypto.PublicKey, error) {
	keys, fetched, err := c.load(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if key, ok := keys[kid]; ok {
		return key, nil
	}
	if fetched || !c.limiter.Allow() {
		return nil, ErrKeyNotFound
	}
	keys, err = c.refresh(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if key, ok := keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (c *CachingKeySetProvider) load(ctx context.Context, issuer string) (auth.KeySet, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[issuer]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.keys, false, nil
	}

	keys, err := c.refresh(ctx, issuer)
	if err != nil {
		if ok {
			return entry.keys, false, nil
		}
		return nil, false, err
	}
	return keys, true, nil
}

// refresh runs one shared upstream fetch per issuer. The fetch is detached
// from the caller's cancellation so one aborted request cannot fail the
// others waiting on it. Each caller still returns when its own ctx ends.
func (c *CachingKeySetProvider) refresh(ctx context.Context, issuer string) (auth.KeySet, error) {
	ch := c.group.DoChan(issuer, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		keys, err := c.next.Fetch(fetchCtx, issuer)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[issuer] = cacheEntry{keys: keys, fetchedAt: c.now()}
		c.mu.Unlock()
		return keys, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(auth.KeySet), nil
	}
}
