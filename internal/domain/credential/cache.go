package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultReuseWindow is how long a lease is reused after issuance.
// It stays one minute short of TokenLifetime so no request starts with a token about to expire.
const DefaultReuseWindow = 59 * time.Minute

// sharedRefreshTimeout bounds a single-flight refresh, which no single caller's context owns.
const sharedRefreshTimeout = 30 * time.Second

// ErrNoLease is returned when a source answers without a usable lease.
var ErrNoLease = errors.New("credential source returned no usable lease")

// RefreshPolicy decides what concurrent callers do when the cached lease is stale.
type RefreshPolicy string

const (
	// RefreshRedundant lets every caller that finds a stale lease fetch its own; last writer wins.
	RefreshRedundant RefreshPolicy = "redundant"
	// RefreshSingleFlight collapses concurrent refreshes into one exchange.
	RefreshSingleFlight RefreshPolicy = "single-flight"
)

// ParseRefreshPolicy parses a configured policy name. Empty means RefreshRedundant.
func ParseRefreshPolicy(value string) (RefreshPolicy, error) {
	switch RefreshPolicy(value) {
	case "", RefreshRedundant:
		return RefreshRedundant, nil
	case RefreshSingleFlight:
		return RefreshSingleFlight, nil
	default:
		return "", fmt.Errorf("unknown credential refresh policy %q", value)
	}
}

// Source produces fresh leases.
type Source interface {
	Fetch(ctx context.Context) (*Lease, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context) (*Lease, error)

func (f SourceFunc) Fetch(ctx context.Context) (*Lease, error) {
	return f(ctx)
}

// Cache holds at most one lease and replaces it once it leaves the reuse window.
type Cache struct {
	source Source
	policy RefreshPolicy
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger

	mu    sync.RWMutex
	lease *Lease

	group singleflight.Group
}

// NewCache creates a cache with the default reuse window.
func NewCache(source Source, policy RefreshPolicy, log zerolog.Logger) *Cache {
	return NewCacheWithWindow(source, policy, DefaultReuseWindow, log)
}

// NewCacheWithWindow creates a cache with a custom reuse window.
func NewCacheWithWindow(source Source, policy RefreshPolicy, window time.Duration, log zerolog.Logger) *Cache {
	if policy == "" {
		policy = RefreshRedundant
	}
	return &Cache{
		source: source,
		policy: policy,
		window: window,
		now:    time.Now,
		log:    log.With().Str("component", "credential-cache").Logger(),
	}
}

// Policy returns the refresh policy in force.
func (c *Cache) Policy() RefreshPolicy {
	return c.policy
}

// Get returns the cached lease while it is inside the reuse window, otherwise a fresh one.
// Fetch errors are returned as they are and never cached.
func (c *Cache) Get(ctx context.Context) (*Lease, error) {
	if lease := c.current(); lease != nil {
		return lease, nil
	}

	if c.policy != RefreshSingleFlight {
		return c.refresh(ctx)
	}

	// The flight is detached from the cancellation of the caller that started it.
	ch := c.group.DoChan("lease", func() (any, error) {
		if lease := c.current(); lease != nil {
			return lease, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRefreshTimeout)
		defer cancel()
		return c.refresh(flightCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.log.Debug().Msg("joined in-flight credential refresh")
		}
		return res.Val.(*Lease), nil
	}
}

func (c *Cache) current() *Lease {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lease != nil && c.lease.ValidAt(c.now(), c.window) {
		return c.lease
	}
	return nil
}

func (c *Cache) refresh(ctx context.Context) (*Lease, error) {
	lease, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !lease.Usable() {
		return nil, ErrNoLease
	}

	c.mu.Lock()
	c.lease = lease
	c.mu.Unlock()

	c.log.Debug().
		Time("issued_at", lease.IssuedAt).
		Str("policy", string(c.policy)).
		Msg("credential lease refreshed")

	return lease, nil
}
