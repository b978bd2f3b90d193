package scb

import (
	"context"
	"sync"
	"time"

	"civic-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// expirySkew is subtracted from the credential lifetime so a token is
// refreshed before the gateway actually rejects it.
const expirySkew = 30 * time.Second

// TokenCache is a process-wide single-slot cache of the gateway credential.
// It implements ports.CredentialSource on top of a ports.GatewayClient.
type TokenCache struct {
	client ports.GatewayClient
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.Mutex
	current *ports.GatewayCredential
}

// NewTokenCache creates a credential cache over the gateway client.
func NewTokenCache(client ports.GatewayClient, log zerolog.Logger) *TokenCache {
	return &TokenCache{
		client: client,
		now:    time.Now,
		log:    log,
	}
}

// NewTokenCacheWithClock creates a cache with an injected clock.
func NewTokenCacheWithClock(client ports.GatewayClient, now func() time.Time, log zerolog.Logger) *TokenCache {
	c := NewTokenCache(client, log)
	c.now = now
	return c
}

// Credential returns the cached credential while it is still fresh,
// refreshing through the gateway otherwise. A failed refresh leaves any
// stale entry in place and returns the gateway error.
func (c *TokenCache) Credential(ctx context.Context) (*ports.GatewayCredential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.now().Before(c.current.ExpiresAt.Add(-expirySkew)) {
		return c.current, nil
	}

	cred, err := c.client.FetchCredential(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("gateway credential refresh failed")
		return nil, err
	}

	c.current = cred
	c.log.Info().
		Time("expires_at", cred.ExpiresAt).
		Msg("gateway credential refreshed")
	return c.current, nil
}
