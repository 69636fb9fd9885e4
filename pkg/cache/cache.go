package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON blobs in redis. Each (key, field) variant is its own
// string key with its own expiry; key itself is a set indexing the variants so
// Delete can drop all of them.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(options *redis.Options) *RedisCache {
	return &RedisCache{client: redis.NewClient(options)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func variantKey(key, field string) string {
	return key + ":" + field
}

// GetJSON decodes the variant into dst. A missing or expired variant is a miss, not an error.
func (c *RedisCache) GetJSON(ctx context.Context, key, field string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, variantKey(key, field)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key/field for ttl. Other variants keep their own expiry.
func (c *RedisCache) SetJSON(ctx context.Context, key, field string, v interface{}, ttl time.Duration) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	vk := variantKey(key, field)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, vk, bytes, ttl)
	pipe.SAdd(ctx, key, vk)
	// the index expiry only grows, so it outlives every variant it lists
	if ttl > 0 {
		pipe.ExpireNX(ctx, key, ttl)
		pipe.ExpireGT(ctx, key, ttl)
	} else {
		pipe.Persist(ctx, key)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Delete drops each key together with every variant it indexes
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	doomed := append([]string(nil), keys...)
	for _, key := range keys {
		variants, err := c.client.SMembers(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		doomed = append(doomed, variants...)
	}
	return c.client.Del(ctx, doomed...).Err()
}

// Noop never stores anything; it is used when redis is not configured
type Noop struct{}

func (Noop) GetJSON(context.Context, string, string, interface{}) (bool, error) { return false, nil }

func (Noop) SetJSON(context.Context, string, string, interface{}, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }
