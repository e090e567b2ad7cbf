// Copyright (c) 2026 Classraise. All rights reserved.
// Author: dev@classraise.org

package donor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classraise/classraise/internal/platform/constants"
)

// RedisCache implements the Cache interface using Redis.
//
// Keys are scoped by auth identity id, not user id, because the identity is
// the only stable handle the request carries before resolution has happened.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis-backed hint cache for donor profiles.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func profileKey(authID string) string {
	return fmt.Sprintf("%s%s", constants.RedisPrefixDonorProfile, authID)
}

func setupKey(authID string) string {
	return fmt.Sprintf("%s%s", constants.RedisPrefixDonorSetup, authID)
}

/*
Get returns the cached profile envelope for an auth identity id.

Description: A cache miss is reported as (nil, nil); only connectivity or
decoding problems surface as errors. A corrupt payload is self-healed by
deleting the key and reporting a miss.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - *CachedProfile: Envelope with fetch timestamp, nil when absent
  - error: Connectivity failures
*/
func (cache *RedisCache) Get(context context.Context, authID string) (*CachedProfile, error) {
	payload, err := cache.client.Get(context, profileKey(authID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_donor_cache_get_failed: %w", err)
	}

	cached := &CachedProfile{}
	if err := json.Unmarshal(payload, cached); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		_ = cache.client.Del(context, profileKey(authID)).Err()
		return nil, nil
	}

	return cached, nil
}

/*
Set stores a verified profile with the current fetch timestamp.

Parameters:
  - context: context.Context
  - authID: string
  - profile: *Profile

Returns:
  - error: Serialization or write failures
*/
func (cache *RedisCache) Set(context context.Context, authID string, profile *Profile) error {
	payload, err := json.Marshal(&CachedProfile{
		Profile:   *profile,
		FetchedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("redis_donor_cache_marshal_failed: %w", err)
	}

	if err := cache.client.Set(context, profileKey(authID), payload, constants.DonorCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_donor_cache_set_failed: %w", err)
	}

	return nil
}

/*
Remove purges the cached profile and the setup-complete flag together.

Description: Both keys are dropped in one round trip so a purge never leaves
the setup flag pointing at a profile that is about to be re-derived.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - error: Delete failures
*/
func (cache *RedisCache) Remove(context context.Context, authID string) error {
	if err := cache.client.Del(context, profileKey(authID), setupKey(authID)).Err(); err != nil {
		return fmt.Errorf("redis_donor_cache_remove_failed: %w", err)
	}
	return nil
}

/*
MarkSetupComplete records that donor onboarding finished for this identity.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - error: Write failures
*/
func (cache *RedisCache) MarkSetupComplete(context context.Context, authID string) error {
	if err := cache.client.Set(context, setupKey(authID), "1", constants.DonorCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis_donor_cache_mark_setup_failed: %w", err)
	}
	return nil
}

/*
IsSetupComplete reports whether the onboarding flag is set.

Parameters:
  - context: context.Context
  - authID: string

Returns:
  - bool: Flag state, false on miss
  - error: Connectivity failures
*/
func (cache *RedisCache) IsSetupComplete(context context.Context, authID string) (bool, error) {
	_, err := cache.client.Get(context, setupKey(authID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_donor_cache_setup_check_failed: %w", err)
	}
	return true, nil
}
