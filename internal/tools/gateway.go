// Package tools provides the cache-or-fetch gateway that every external data
// acquisition call goes through, plus the shared tool-usage metrics registry.
package tools

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// FetchFunc performs one underlying fetch for a registered tool. It is called
// only on cache miss and may be retried.
type FetchFunc func(ctx context.Context, params map[string]string) (string, error)

// DataAcquisitionError wraps a vendor fetch failure after retries are
// exhausted. Analyst branches absorb it into fallback reports; it never
// escapes the analysis stage.
type DataAcquisitionError struct {
	Tool string
	Err  error
}

func (e *DataAcquisitionError) Error() string {
	return fmt.Sprintf("data acquisition failed for tool %q: %v", e.Tool, e.Err)
}

func (e *DataAcquisitionError) Unwrap() error { return e.Err }

// RetryConfig bounds the retry loop around an underlying fetch.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

type cacheEntry struct {
	payload  string
	storedAt time.Time
}

// Gateway is the shared cache-or-fetch-with-retry primitive. It is safe for
// use from concurrently executing analyst branches. Two branches missing on
// the same key at the same time may both fetch; the gateway does not
// single-flight identical in-flight requests, last write wins.
type Gateway struct {
	mu    sync.RWMutex
	cache map[uint64]cacheEntry
	tools map[string]FetchFunc

	ttl     time.Duration
	retry   RetryConfig
	limiter *rate.Limiter
	metrics *Metrics
	log     zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Gateway)

// WithRateLimit throttles underlying fetches across all tools.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) { g.log = log.With().Str("module", "gateway").Logger() }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock and WithSleeper substitute time sources in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gateway) { g.sleep = sleep }
}

func NewGateway(ttl time.Duration, retry RetryConfig, opts ...Option) *Gateway {
	g := &Gateway{
		cache:   make(map[uint64]cacheEntry),
		tools:   make(map[string]FetchFunc),
		ttl:     ttl,
		retry:   retry,
		metrics: NewMetrics(),
		log:     zerolog.Nop(),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register binds a tool name to its underlying fetch. Later registrations
// replace earlier ones.
func (g *Gateway) Register(name string, fn FetchFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tools[name] = fn
}

func (g *Gateway) Metrics() *Metrics { return g.metrics }

// Fetch returns the cached payload for (tool, params) if a non-expired entry
// exists, otherwise invokes the tool's fetch under the retry policy and
// stores the result. Expired and absent entries behave identically.
func (g *Gateway) Fetch(ctx context.Context, tool string, params map[string]string) (string, error) {
	g.mu.RLock()
	fn, ok := g.tools[tool]
	g.mu.RUnlock()
	if !ok {
		return "", &DataAcquisitionError{Tool: tool, Err: fmt.Errorf("tool not registered")}
	}

	key := cacheKey(tool, params)

	if payload, hit := g.lookup(key); hit {
		g.log.Debug().Str("tool", tool).Msg("cache hit")
		return payload, nil
	}

	payload, err := g.fetchWithRetry(ctx, tool, fn, params)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.cache[key] = cacheEntry{payload: payload, storedAt: g.now()}
	g.mu.Unlock()

	return payload, nil
}

func (g *Gateway) lookup(key uint64) (string, bool) {
	g.mu.RLock()
	entry, ok := g.cache[key]
	g.mu.RUnlock()
	if !ok {
		return "", false
	}
	if g.now().Sub(entry.storedAt) >= g.ttl {
		g.mu.Lock()
		// Re-check under the write lock; a fresher entry may have landed.
		if cur, ok := g.cache[key]; ok && g.now().Sub(cur.storedAt) >= g.ttl {
			delete(g.cache, key)
		}
		g.mu.Unlock()
		return "", false
	}
	return entry.payload, true
}

func (g *Gateway) fetchWithRetry(ctx context.Context, tool string, fn FetchFunc, params map[string]string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := g.sleep(ctx, g.backoff(attempt)); err != nil {
				return "", err
			}
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		start := g.now()
		payload, err := fn(ctx, params)
		g.metrics.Record(tool, g.now().Sub(start), err == nil)

		if err == nil {
			return payload, nil
		}
		lastErr = err
		g.log.Warn().Str("tool", tool).Int("attempt", attempt).Err(err).Msg("fetch attempt failed")

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &DataAcquisitionError{Tool: tool, Err: lastErr}
}

// backoff computes the delay before the given attempt (attempt >= 2).
func (g *Gateway) backoff(attempt int) time.Duration {
	delay := g.retry.BaseDelay
	for i := 2; i < attempt; i++ {
		delay = time.Duration(float64(delay) * g.retry.Multiplier)
	}
	if delay > g.retry.MaxDelay {
		delay = g.retry.MaxDelay
	}
	if g.retry.Jitter && delay > 0 {
		// ±20% keeps concurrent branches from retrying in lockstep.
		spread := int64(float64(delay) * 0.2)
		delay += time.Duration(rand.Int63n(2*spread+1) - spread)
	}
	return delay
}

// cacheKey hashes the tool name plus the canonically ordered parameter set,
// so parameter map iteration order never changes the key.
func cacheKey(tool string, params map[string]string) uint64 {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(tool)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return xxhash.Sum64String(b.String())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
