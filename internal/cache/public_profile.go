package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pairup/backend/internal/models"
)

// PublicProfileCache keeps read-mostly public profiles in Redis.
type PublicProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPublicProfileCache(client *redis.Client, ttl time.Duration) *PublicProfileCache {
	return &PublicProfileCache{client: client, ttl: ttl}
}

func publicProfileKey(userID string) string {
	return fmt.Sprintf("profile:public:%s", userID)
}

// Get returns the cached profile, or nil without error on a miss.
func (c *PublicProfileCache) Get(ctx context.Context, userID string) (*models.PublicUserData, error) {
	raw, err := c.client.Get(ctx, publicProfileKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached profile: %w", err)
	}

	var p models.PublicUserData
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &p, nil
}

func (c *PublicProfileCache) Set(ctx context.Context, userID string, p *models.PublicUserData) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, publicProfileKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

func (c *PublicProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, publicProfileKey(userID)).Err()
}
