package cas

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attestry_cas_cache_lookups_total",
	Help: "Content cache lookups by outcome",
}, []string{"outcome"})

const blockKeyPrefix = "cas:block:"

// Cached is a Redis read-through layer over another Store. Blocks are
// immutable, so cached bytes can never go stale; the TTL only bounds memory.
// Cache faults degrade to the inner store and never fail the operation.
type Cached struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps inner with a Redis block cache.
func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := c.inner.Put(ctx, data)
	if err != nil {
		return cid.Undef, err
	}
	c.prime(ctx, id, data)
	return id, nil
}

func (c *Cached) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidAddress
	}

	data, err := c.client.Get(ctx, blockKeyPrefix+id.String()).Bytes()
	switch {
	case err == nil:
		if verr := verifyAddress(id, data); verr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return data, nil
		}
		// A corrupt cache entry falls through to the inner store.
		c.logger.WarnContext(ctx, "dropping corrupt cache entry", "address", id.String())
		_ = c.client.Del(ctx, blockKeyPrefix+id.String()).Err()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "cache read failed", "address", id.String(), "error", err.Error())
	}

	data, err = c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, id, data)
	return data, nil
}

func (c *Cached) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, ErrInvalidAddress
	}

	n, err := c.client.Exists(ctx, blockKeyPrefix+id.String()).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return c.inner.Has(ctx, id)
}

func (c *Cached) prime(ctx context.Context, id cid.Cid, data []byte) {
	if err := c.client.Set(ctx, blockKeyPrefix+id.String(), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "address", id.String(), "error", err.Error())
	}
}
