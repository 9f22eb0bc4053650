package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache is a two-level JSON cache: an in-process map in front of Redis.
// Either level may be absent.
type Cache struct {
	local  *gocache.Cache
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A non-positive ttl disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{client: client}
	}
	// local entries live a quarter of the Redis TTL
	localTTL := ttl / 4
	if localTTL < time.Second {
		localTTL = ttl
	}
	return &Cache{
		local:  gocache.New(localTTL, 2*localTTL),
		client: client,
		ttl:    ttl,
	}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.ttl <= 0 || key == "" {
		return false, nil
	}
	if c.local != nil {
		if raw, ok := c.local.Get(key); ok {
			if data, ok := raw.([]byte); ok {
				return true, json.Unmarshal(data, dst)
			}
		}
	}
	if c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	if c.local != nil {
		c.local.SetDefault(key, data)
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.ttl <= 0 || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.local != nil {
		c.local.SetDefault(key, data)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete drops keys from both levels.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	if c.local != nil {
		for _, k := range keys {
			c.local.Delete(k)
		}
	}
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeletePrefix drops every key starting with prefix. Redis keys are found with SCAN.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if c == nil || prefix == "" {
		return nil
	}
	if c.local != nil {
		for k := range c.local.Items() {
			if strings.HasPrefix(k, prefix) {
				c.local.Delete(k)
			}
		}
	}
	if c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
