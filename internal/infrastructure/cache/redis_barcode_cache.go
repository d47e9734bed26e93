package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
)

// RedisBarcodeCache implements shared.BarcodeCache using Redis.
// Suitable for distributed deployments where multiple instances share the
// inventory_item_id to barcode mapping.
type RedisBarcodeCache struct {
	client    *redis.Client
	keyPrefix string
}

const defaultBarcodeKeyPrefix = "shopify:barcode:"

// NewRedisBarcodeCache creates a Redis-backed barcode cache
func NewRedisBarcodeCache(cfg config.RedisConfig) (*RedisBarcodeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBarcodeCache{
		client:    client,
		keyPrefix: defaultBarcodeKeyPrefix,
	}, nil
}

// NewRedisBarcodeCacheWithClient creates a cache with an existing Redis
// client, useful for testing or when sharing a client across components.
func NewRedisBarcodeCacheWithClient(client *redis.Client, keyPrefix string) *RedisBarcodeCache {
	if keyPrefix == "" {
		keyPrefix = defaultBarcodeKeyPrefix
	}
	return &RedisBarcodeCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisBarcodeCache) key(shopDomain string, inventoryItemID int64) string {
	return c.keyPrefix + shopDomain + ":" + strconv.FormatInt(inventoryItemID, 10)
}

// Get returns the cached barcode for an inventory item id
func (c *RedisBarcodeCache) Get(ctx context.Context, shopDomain string, inventoryItemID int64) (string, bool, error) {
	barcode, err := c.client.Get(ctx, c.key(shopDomain, inventoryItemID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read barcode cache: %w", err)
	}
	return barcode, true, nil
}

// Set stores a barcode mapping with a TTL
func (c *RedisBarcodeCache) Set(ctx context.Context, shopDomain string, inventoryItemID int64, barcode string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(shopDomain, inventoryItemID), barcode, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write barcode cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisBarcodeCache) Close() error {
	return c.client.Close()
}

// Ensure RedisBarcodeCache implements BarcodeCache
var _ shared.BarcodeCache = (*RedisBarcodeCache)(nil)
