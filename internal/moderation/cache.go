package moderation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix = "questhub:moderation:"

	// DefaultSharedCallTimeout bounds an upstream check shared by several
	// callers. It outlives any single caller's context.
	DefaultSharedCallTimeout = time.Minute
)

// CachedChecker memoises another Checker in Redis keyed by content digest.
// Concurrent checks of the same content share one upstream call.
type CachedChecker struct {
	next          Checker
	client        *redis.Client
	ttl           time.Duration
	sharedTimeout time.Duration
	logger        *slog.Logger
	group         singleflight.Group
}

// NewCachedChecker wraps next. A non-positive ttl defaults to 10 minutes.
func NewCachedChecker(next Checker, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedChecker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedChecker{
		next:          next,
		client:        client,
		ttl:           ttl,
		sharedTimeout: DefaultSharedCallTimeout,
		logger:        logger,
	}
}

func cacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Check returns the cached result or asks the wrapped Checker. Redis
// failures degrade to an uncached call.
func (c *CachedChecker) Check(ctx context.Context, content string) (string, error) {
	key := cacheKey(content)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("moderation cache get", slog.Any("error", err))
	}

	// The shared call must not die with whichever caller started it.
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.sharedTimeout)
		defer cancel()
		return c.next.Check(callCtx, content)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return "", res.Err
		}
		redacted := res.Val.(string)
		if err := c.client.Set(ctx, key, redacted, c.ttl).Err(); err != nil {
			c.logger.Warn("moderation cache set", slog.Any("error", err))
		}
		return redacted, nil
	}
}
