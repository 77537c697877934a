package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

const defaultProfileTTL = 5 * time.Minute

func profileKey(userID string) string {
	return "profile:" + userID
}

// ProfileCache wraps a backend so GetProfile is served from the cache and
// UpsertProfile invalidates it. Cache failures fall through to the backend.
type ProfileCache struct {
	kv     KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewProfileCache(kv KV, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileCache{kv: kv, ttl: ttl, logger: logger}
}

// Wrap returns a backend whose clients read profiles through the cache.
func (c *ProfileCache) Wrap(backend gateway.Backend) gateway.Backend {
	return &cachedBackend{Backend: backend, cache: c}
}

func (c *ProfileCache) get(ctx context.Context, userID string) (*types.ProfileRecord, bool) {
	raw, err := c.kv.Get(ctx, profileKey(userID))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.logger.Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var record types.ProfileRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		c.logger.Warn("profile cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &record, true
}

func (c *ProfileCache) put(ctx context.Context, userID string, record types.ProfileRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, profileKey(userID), string(raw), c.ttl); err != nil {
		c.logger.Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *ProfileCache) invalidate(ctx context.Context, userID string) {
	if err := c.kv.Delete(ctx, profileKey(userID)); err != nil {
		c.logger.Warn("profile cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

type cachedBackend struct {
	gateway.Backend
	cache *ProfileCache
}

func (b *cachedBackend) NewClient() gateway.Client {
	return &cachedClient{Client: b.Backend.NewClient(), cache: b.cache}
}

func (b *cachedBackend) Resume(credential string) gateway.Client {
	return &cachedClient{Client: b.Backend.Resume(credential), cache: b.cache}
}

type cachedClient struct {
	gateway.Client
	cache *ProfileCache
}

func (c *cachedClient) GetProfile(ctx context.Context, userID string) (*types.ProfileRecord, error) {
	if record, ok := c.cache.get(ctx, userID); ok {
		return record, nil
	}
	record, err := c.Client.GetProfile(ctx, userID)
	if err != nil || record == nil {
		return record, err
	}
	c.cache.put(ctx, userID, *record)
	return record, nil
}

func (c *cachedClient) UpsertProfile(ctx context.Context, userID string, patch types.ProfilePatch) error {
	err := c.Client.UpsertProfile(ctx, userID, patch)
	// A failed upsert may still have been applied remotely.
	c.cache.invalidate(ctx, userID)
	return err
}
