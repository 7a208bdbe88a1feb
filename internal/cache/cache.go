// Package cache memoises segment sums in Redis so that repeated runs over the
// same plan, or peers asked for the same segment twice, skip the summation.
// A partial sum depends only on its segment bounds, so entries never go
// stale; the TTL only bounds memory use.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/agbru/picalc/internal/logging"
	"github.com/agbru/picalc/internal/plan"
	"github.com/agbru/picalc/internal/series"
)

// DefaultPrefix namespaces the cache keys.
const DefaultPrefix = "picalc:segment:"

// SegmentCache stores partial sums keyed by segment bounds.
type SegmentCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a SegmentCache.
type Option func(*SegmentCache)

// WithTTL sets the expiration of cached sums. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *SegmentCache) { c.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *SegmentCache) { c.prefix = prefix }
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(l logging.Logger) Option {
	return func(c *SegmentCache) { c.logger = l }
}

// New connects to the Redis server at addr.
func New(addr string, opts ...Option) *SegmentCache {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *SegmentCache {
	c := &SegmentCache{client: client, prefix: DefaultPrefix, logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks that the server is reachable.
func (c *SegmentCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *SegmentCache) Close() error { return c.client.Close() }

func (c *SegmentCache) key(seg plan.Segment) string {
	return c.prefix + strconv.FormatUint(seg.Start, 10) + ":" + strconv.FormatUint(seg.End, 10)
}

// Get returns the cached sum for seg. ok is false on a miss.
func (c *SegmentCache) Get(ctx context.Context, seg plan.Segment) (value float64, ok bool, err error) {
	raw, err := c.client.Get(ctx, c.key(seg)).Result()
	if errors.Is(err, backend.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", seg, err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cache entry for %s: %w", seg, err)
	}
	return v, true, nil
}

// Put stores the sum for seg.
func (c *SegmentCache) Put(ctx context.Context, seg plan.Segment, value float64) error {
	if err := c.client.Set(ctx, c.key(seg), strconv.FormatFloat(value, 'g', -1, 64), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", seg, err)
	}
	return nil
}

// Wrap returns a SumFunc that consults the cache before calling sum and
// stores what sum computes. Cache failures are logged and never fail the
// segment.
func (c *SegmentCache) Wrap(sum series.SumFunc) series.SumFunc {
	return func(ctx context.Context, seg plan.Segment) (float64, error) {
		v, ok, err := c.Get(ctx, seg)
		if err != nil {
			c.logger.Error("segment cache lookup failed", err, logging.String("segment", seg.String()))
		}
		if ok {
			c.hits.Add(1)
			return v, nil
		}
		c.misses.Add(1)

		v, err = sum(ctx, seg)
		if err != nil {
			return 0, err
		}
		if err := c.Put(ctx, seg, v); err != nil {
			c.logger.Error("segment cache store failed", err, logging.String("segment", seg.String()))
		}
		return v, nil
	}
}

// Stats returns the hit and miss counts seen by wrapped SumFuncs.
func (c *SegmentCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
