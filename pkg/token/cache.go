package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Match selects how requested scopes are compared with granted scopes.
type Match string

const (
	// MatchAtLeast accepts entries granted a superset of the requested scopes.
	MatchAtLeast Match = "at_least"

	// MatchExact accepts entries granted exactly the requested scopes.
	MatchExact Match = "exact"
)

// Cache is the credential cache. Safe for concurrent use.
type Cache struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

var (
	defaultCache     *Cache
	defaultCacheOnce sync.Once
)

// Default returns the process-wide cache backed by a MemoryStore.
func Default() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewCache(NewMemoryStore(), log.With().Str("component", "token-cache").Logger())
	})
	return defaultCache
}

// NewCache creates a cache over store.
func NewCache(store Store, logger zerolog.Logger) *Cache {
	if store == nil {
		panic("token store cannot be nil")
	}
	return &Cache{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Put stores entry as the principal's current credential.
func (c *Cache) Put(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("credential entry cannot be nil")
	}
	if NormalizePrincipal(entry.PrincipalKey) == "" {
		return fmt.Errorf("credential entry has no principal key")
	}

	stored := *entry
	if stored.CachedAt.IsZero() {
		stored.CachedAt = c.now()
	}

	if err := c.store.Put(ctx, &stored); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	c.logger.Debug().
		Str("principal", NormalizePrincipal(entry.PrincipalKey)).
		Str("scopes", stored.ScopeString()).
		Msg("Credential cached")
	return nil
}

// FindAtLeast returns the principal's entry if it was granted every scope in required.
// It returns nil with a nil error when no entry matches.
func (c *Cache) FindAtLeast(ctx context.Context, principal string, required ...Scope) (*Entry, error) {
	return c.Find(ctx, principal, required, MatchAtLeast)
}

// FindExact returns the principal's entry if its scopes equal required.
// It returns nil with a nil error when no entry matches.
func (c *Cache) FindExact(ctx context.Context, principal string, required ...Scope) (*Entry, error) {
	return c.Find(ctx, principal, required, MatchExact)
}

// Find looks up the principal's entry and applies the match policy.
func (c *Cache) Find(ctx context.Context, principal string, required []Scope, match Match) (*Entry, error) {
	entry, err := c.store.Get(ctx, principal)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			TokenLookups.WithLabelValues(string(match), "miss").Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}

	var ok bool
	switch match {
	case MatchExact:
		ok = entry.HasExactly(required)
	case MatchAtLeast:
		ok = entry.HasAll(required)
	default:
		return nil, fmt.Errorf("unknown scope match %q", match)
	}

	if !ok {
		TokenLookups.WithLabelValues(string(match), "scope_mismatch").Inc()
		c.logger.Debug().
			Str("principal", NormalizePrincipal(principal)).
			Str("match", string(match)).
			Str("granted", entry.ScopeString()).
			Msg("Cached credential does not match requested scopes")
		return nil, nil
	}

	TokenLookups.WithLabelValues(string(match), "hit").Inc()
	return entry, nil
}

// Revoke removes the cached entry of the credential's principal.
func (c *Cache) Revoke(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return nil
	}

	if err := c.store.Delete(ctx, entry.PrincipalKey); err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}

	TokenRevocations.Inc()
	c.logger.Info().
		Str("principal", NormalizePrincipal(entry.PrincipalKey)).
		Msg("Credential revoked")
	return nil
}
