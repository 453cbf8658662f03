package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scanorder-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// MenuCache stores resolved menu snapshots by store code.
type MenuCache interface {
	Get(ctx context.Context, code string) (*models.Store, bool, error)
	Set(ctx context.Context, code string, menu *models.Store) error
	Delete(ctx context.Context, code string) error
}

func menuKey(code string) string {
	return fmt.Sprintf("scanorder:menu:%s", code)
}

type RedisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisMenuCache {
	return &RedisMenuCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisMenuCache) Get(ctx context.Context, code string) (*models.Store, bool, error) {
	raw, err := c.client.Get(ctx, menuKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var menu models.Store
	if err := json.Unmarshal(raw, &menu); err != nil {
		return nil, false, fmt.Errorf("decode menu %s: %w", code, err)
	}
	return &menu, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, code string, menu *models.Store) error {
	raw, err := json.Marshal(menu)
	if err != nil {
		return fmt.Errorf("encode menu %s: %w", code, err)
	}
	return c.client.Set(ctx, menuKey(code), raw, c.ttl).Err()
}

func (c *RedisMenuCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, menuKey(code)).Err()
}

// InvalidateMenu drops a cached snapshot after a catalog change. Failures
// are logged; the entry still expires with its TTL.
func (c *RedisMenuCache) InvalidateMenu(ctx context.Context, code string) {
	if err := c.Delete(ctx, code); err != nil {
		c.logger.Warn().Err(err).Str("store_code", code).Msg("menu cache invalidation failed")
	}
}
