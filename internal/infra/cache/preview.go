// Package cache stores rendered label previews in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"qlweb/internal/infra/logging"
)

const (
	keyPrefix  = "qlweb:preview:"
	defaultTTL = time.Minute
	opTimeout  = time.Second
)

// Preview caches PNG previews. A nil *Preview is a disabled cache.
type Preview struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPreview wraps rdb. A nil client returns a nil (disabled) cache.
func NewPreview(rdb *redis.Client, ttl time.Duration) *Preview {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Preview{rdb: rdb, ttl: ttl}
}

// Key derives a stable cache key from a kind and the request parameters.
func Key(kind string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(kind))
	for _, k := range names {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(params[k]))
	}
	return keyPrefix + kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached PNG for key.
func (p *Preview) Get(ctx context.Context, key string) ([]byte, bool) {
	if p == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Warn("Preview cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores data under key with the configured TTL.
func (p *Preview) Set(ctx context.Context, key string, data []byte) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := p.rdb.Set(ctx, key, data, p.ttl).Err(); err != nil {
		logging.Warn("Preview cache write failed", "key", key, "error", err)
	}
}

// Ping checks the Redis connection.
func (p *Preview) Ping(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
