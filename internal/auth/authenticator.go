package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sumanuel/Auto-Guardian-sub000/internal/config"
)

// KeyLookup resolves an API key to a fleet id; "" means unknown.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, apiKey string) (string, error)
}

type cacheEntry struct {
	fleetID   string
	expiresAt time.Time
}

type Authenticator struct {
	localCache sync.Map
	lookup     KeyLookup
	ttl        time.Duration
	staticKeys map[string]string
	now        func() time.Time
}

// NewAuthenticator accepts static keys as "key" or "key:fleet". A bare key
// belongs to the fleet named after the key itself.
func NewAuthenticator(cfg *config.Config, lookup KeyLookup) *Authenticator {
	staticKeys := make(map[string]string, len(cfg.ValidAPIKeys))
	for _, k := range cfg.ValidAPIKeys {
		key, fleet, ok := strings.Cut(k, ":")
		if !ok {
			fleet = key
		}
		if key == "" || fleet == "" {
			continue
		}
		staticKeys[key] = fleet
	}

	return &Authenticator{
		lookup:     lookup,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
		now:        time.Now,
	}
}

// Resolve returns the fleet an API key belongs to.
func (a *Authenticator) Resolve(ctx context.Context, apiKey string) (string, bool) {
	// Level 0: static config keys
	if fleetID, ok := a.staticKeys[apiKey]; ok {
		return fleetID, true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if a.now().Before(entry.expiresAt) {
			return entry.fleetID, true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: Redis lookup
	if a.lookup == nil {
		return "", false
	}
	fleetID, err := a.lookup.GetAPIKey(ctx, apiKey)
	if err != nil || fleetID == "" {
		return "", false
	}

	a.localCache.Store(apiKey, cacheEntry{
		fleetID:   fleetID,
		expiresAt: a.now().Add(a.ttl),
	})

	return fleetID, true
}
