// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classraise/classraise/internal/platform/constants"
)

// RedisCache implements the Cache interface using Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis-backed hint cache for wishlist membership.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// cachedSnapshot is the stored membership envelope. As with donor profiles,
// the fetch timestamp travels with the data so staleness is judged against
// when the snapshot was derived.
type cachedSnapshot struct {
	ProjectIDs []string  `json:"project_ids"`
	FetchedAt  time.Time `json:"fetched_at"`
}

func snapshotKey(authID string) string {
	return fmt.Sprintf("%s%s", constants.RedisPrefixWishlist, authID)
}

func mutationKey(authID string) string {
	return fmt.Sprintf("%s%s", constants.RedisPrefixWishlistMut, authID)
}

/*
GetProjectIDs returns the cached membership snapshot for an identity.

Description: The hint is reported as missing when the key is absent, when the
snapshot predates the freshness window, or when it predates the identity's
last recorded mutation. Corrupt payloads are dropped and reported as misses.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - []string: Cached project ids
  - bool: True only for a fresh, post-mutation snapshot
  - error: Connectivity failures
*/
func (cache *RedisCache) GetProjectIDs(context context.Context, authID string) ([]string, bool, error) {
	payload, err := cache.client.Get(context, snapshotKey(authID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis_wishlist_cache_get_failed: %w", err)
	}

	snapshot := &cachedSnapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		_ = cache.client.Del(context, snapshotKey(authID)).Err()
		return nil, false, nil
	}

	if time.Since(snapshot.FetchedAt) > constants.CacheFreshWindow {
		return nil, false, nil
	}

	lastMutation, err := cache.LastMutation(context, authID)
	if err == nil && !lastMutation.IsZero() && snapshot.FetchedAt.Before(lastMutation) {
		// Snapshot predates a mutation: force re-derivation.
		return nil, false, nil
	}

	return snapshot.ProjectIDs, true, nil
}

/*
SetProjectIDs stores a freshly derived membership snapshot.

Parameters:
  - context: context.Context
  - authID: string
  - projectIDs: []string

Returns:
  - error: Serialization or write failures
*/
func (cache *RedisCache) SetProjectIDs(context context.Context, authID string, projectIDs []string) error {
	payload, err := json.Marshal(&cachedSnapshot{
		ProjectIDs: projectIDs,
		FetchedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("redis_wishlist_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(context, snapshotKey(authID), payload, constants.WishlistCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_wishlist_cache_set_failed: %w", err)
	}

	return nil
}

/*
Invalidate drops the snapshot and records the mutation timestamp.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - error: Write failures
*/
func (cache *RedisCache) Invalidate(context context.Context, authID string) error {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)

	pipe := cache.client.TxPipeline()
	pipe.Del(context, snapshotKey(authID))
	pipe.Set(context, mutationKey(authID), now, constants.WishlistCacheTTL)

	if _, err := pipe.Exec(context); err != nil {
		return fmt.Errorf("redis_wishlist_cache_invalidate_failed: %w", err)
	}

	return nil
}

/*
LastMutation returns the identity's last recorded wishlist mutation time.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - time.Time: Zero when no mutation has been recorded
  - error: Connectivity failures
*/
func (cache *RedisCache) LastMutation(context context.Context, authID string) (time.Time, error) {
	raw, err := cache.client.Get(context, mutationKey(authID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis_wishlist_cache_mutation_get_failed: %w", err)
	}

	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}

	return time.Unix(0, nanos), nil
}
