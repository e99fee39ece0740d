package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const cacheKeyPrefix = "directory:actor:"

// CachedDirectory fronts another Directory with a Redis read-through cache.
// Redis failures degrade to the underlying directory.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDirectory wraps next. A nil client disables caching.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// ResolveActor implements Directory.
func (d *CachedDirectory) ResolveActor(ctx context.Context, actorID string) (*domain.Actor, error) {
	if d.client == nil {
		return d.next.ResolveActor(ctx, actorID)
	}

	key := cacheKeyPrefix + actorID
	raw, err := d.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry Entry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			if actor, convErr := entry.toActor(); convErr == nil {
				return &actor, nil
			}
		}
		d.logger.Warn("discarding malformed directory cache entry", zap.String("actor_id", actorID))
	case errors.Is(err, redis.Nil):
	default:
		d.logger.Warn("directory cache read failed", zap.String("actor_id", actorID), zap.Error(err))
	}

	actor, err := d.next.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(entryFromActor(actor)); err == nil {
		if err := d.client.Set(ctx, key, payload, d.ttl).Err(); err != nil {
			d.logger.Warn("directory cache write failed", zap.String("actor_id", actorID), zap.Error(err))
		}
	}
	return actor, nil
}

// Invalidate drops a cached entry.
func (d *CachedDirectory) Invalidate(ctx context.Context, actorID string) error {
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, cacheKeyPrefix+actorID).Err()
}
