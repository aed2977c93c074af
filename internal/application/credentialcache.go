// Package application contains use-case orchestration services and the
// process-lifetime caches in front of the data service.
package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// DefaultRefreshMargin is how long before actual expiry a cached credential
// is renewed. A request issued with a nearly-expired token can fail mid-call,
// so tokens stop being handed out well ahead of the deadline.
const DefaultRefreshMargin = 5 * time.Minute

// CredentialCache amortizes the identity provider's token exchange across
// many calls. It holds at most one live credential and refreshes it
// proactively; concurrent callers that arrive during a refresh share the
// same outstanding exchange.
type CredentialCache struct {
	exchanger driven.TokenExchanger
	margin    time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	current model.Credential

	group singleflight.Group
}

// NewCredentialCache creates a cache around the given exchanger. A
// non-positive margin falls back to DefaultRefreshMargin.
func NewCredentialCache(exchanger driven.TokenExchanger, margin time.Duration) *CredentialCache {
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	return &CredentialCache{
		exchanger: exchanger,
		margin:    margin,
		now:       time.Now,
	}
}

// Token returns a bearer token, exchanging for a fresh one when none is
// cached or the cached one is inside the refresh margin. A failed refresh
// does not poison the cache: the previous credential keeps being served
// until it actually expires, and only then does the exchange error
// (a *model.CredentialError) propagate.
func (c *CredentialCache) Token(ctx context.Context) (string, error) {
	if cred, ok := c.cached(); ok {
		return cred.Value, nil
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// A waiter queued behind a completed refresh sees the fresh
		// credential here instead of triggering another exchange.
		if cred, ok := c.cached(); ok {
			return cred.Value, nil
		}

		cred, err := c.exchanger.Exchange(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.current = cred
		c.mu.Unlock()

		return cred.Value, nil
	})
	if err != nil {
		c.mu.RLock()
		stale := c.current
		c.mu.RUnlock()
		if stale.UsableAt(c.now()) {
			return stale.Value, nil
		}
		return "", err
	}

	return v.(string), nil
}

// Reset discards the cached credential. Intended for tests.
func (c *CredentialCache) Reset() {
	c.mu.Lock()
	c.current = model.Credential{}
	c.mu.Unlock()
}

// cached returns the current credential when it is still outside the refresh
// margin.
func (c *CredentialCache) cached() (model.Credential, bool) {
	c.mu.RLock()
	cred := c.current
	c.mu.RUnlock()

	if cred.FreshAt(c.now(), c.margin) {
		return cred, true
	}
	return model.Credential{}, false
}
