package credential

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingSource issues a lease stamped with the clock time on every fetch.
type countingSource struct {
	clock *fakeClock
	calls atomic.Int32
	err   error
}

func (s *countingSource) Fetch(context.Context) (*Lease, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &Lease{Token: sampleToken(), IssuedAt: s.clock.Now()}, nil
}

func newTestCache(policy RefreshPolicy) (*Cache, *countingSource, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	source := &countingSource{clock: clock}
	cache := NewCache(source, policy, zerolog.Nop())
	cache.now = clock.Now
	return cache, source, clock
}

func TestCache_ReusesLeaseInsideWindow(t *testing.T) {
	cache, source, clock := newTestCache(RefreshRedundant)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, source.calls.Load())

	clock.Advance(58*time.Minute + 59*time.Second)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, source.calls.Load())
}

func TestCache_RefreshesAtFiftyNineMinutes(t *testing.T) {
	cache, source, clock := newTestCache(RefreshRedundant)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, source.calls.Load())
}

func TestCache_LeaseOlderThanAnHourIsExpired(t *testing.T) {
	cache, source, clock := newTestCache(RefreshRedundant)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)

	clock.Advance(60*time.Minute + time.Second)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, clock.Now(), second.IssuedAt)
	assert.EqualValues(t, 2, source.calls.Load())

	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, source.calls.Load())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	cache, source, _ := newTestCache(RefreshRedundant)
	ctx := context.Background()

	upstream := errors.New("broker unreachable")
	source.err = upstream

	_, err := cache.Get(ctx)
	assert.ErrorIs(t, err, upstream)

	source.err = nil
	lease, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, lease)
	assert.EqualValues(t, 2, source.calls.Load())
}

func TestCache_RejectsUnusableLease(t *testing.T) {
	cache := NewCache(SourceFunc(func(context.Context) (*Lease, error) {
		return &Lease{IssuedAt: time.Now()}, nil
	}), RefreshRedundant, zerolog.Nop())

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoLease)
}

func TestCache_SingleFlightSurvivesCancelledLeader(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	cache := NewCache(SourceFunc(func(ctx context.Context) (*Lease, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Lease{Token: sampleToken(), IssuedAt: clock.Now()}, nil
	}), RefreshSingleFlight, zerolog.Nop())
	cache.now = clock.Now

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(leaderCtx)
		leaderErr <- err
	}()
	<-entered

	type result struct {
		lease *Lease
		err   error
	}
	follower := make(chan result, 1)
	go func() {
		lease, err := cache.Get(context.Background())
		follower <- result{lease, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	got := <-follower
	require.NoError(t, got.err)
	assert.True(t, got.lease.Usable())
	assert.EqualValues(t, 1, calls.Load())
}

func TestCache_SingleFlightCollapsesConcurrentRefreshes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	release := make(chan struct{})
	var calls atomic.Int32

	cache := NewCache(SourceFunc(func(context.Context) (*Lease, error) {
		calls.Add(1)
		<-release
		return &Lease{Token: sampleToken(), IssuedAt: clock.Now()}, nil
	}), RefreshSingleFlight, zerolog.Nop())
	cache.now = clock.Now

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*Lease, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestCache_RedundantPolicyAllowsParallelRefreshes(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	var started sync.WaitGroup
	started.Add(2)
	var calls atomic.Int32

	cache := NewCache(SourceFunc(func(ctx context.Context) (*Lease, error) {
		calls.Add(1)
		started.Done()

		done := make(chan struct{})
		go func() {
			started.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &Lease{Token: sampleToken(), IssuedAt: clock.Now()}, nil
	}), RefreshRedundant, zerolog.Nop())
	cache.now = clock.Now

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, calls.Load())
}

func TestParseRefreshPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    RefreshPolicy
		wantErr bool
	}{
		{"", RefreshRedundant, false},
		{"redundant", RefreshRedundant, false},
		{"single-flight", RefreshSingleFlight, false},
		{"lock", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRefreshPolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvelope_Lease(t *testing.T) {
	t.Run("error field wins over status", func(t *testing.T) {
		_, err := Envelope{Token: sampleToken(), CreatedAt: 1, Error: "S3 Media: Missing ENVs S3_UPLOAD_KEY"}.Lease(200)

		var envErr *EnvelopeError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, 200, envErr.Status)
		assert.Equal(t, "S3 Media: Missing ENVs S3_UPLOAD_KEY", envErr.Message)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := Envelope{CreatedAt: 1}.Lease(200)
		assert.Error(t, err)
	})

	t.Run("success", func(t *testing.T) {
		createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		lease, err := Envelope{Token: sampleToken(), CreatedAt: createdAt.UnixMilli()}.Lease(200)
		require.NoError(t, err)
		assert.True(t, lease.IssuedAt.Equal(createdAt))
	})

	t.Run("key prefix round trip", func(t *testing.T) {
		issued := &Lease{Token: sampleToken(), IssuedAt: time.UnixMilli(1709294400000), Scope: Scope{Bucket: "cms-assets", KeyPrefix: "users/u1"}}
		envelope := issued.Envelope()
		assert.Equal(t, "users/u1", envelope.KeyPrefix)

		lease, err := envelope.Lease(200)
		require.NoError(t, err)
		assert.Equal(t, "users/u1", lease.Scope.KeyPrefix)
	})
}
