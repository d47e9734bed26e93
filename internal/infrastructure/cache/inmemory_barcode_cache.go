package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
)

// entry represents a stored barcode with expiration
type entry struct {
	barcode   string
	expiresAt time.Time
}

// InMemoryBarcodeCache implements shared.BarcodeCache using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryBarcodeCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryBarcodeCache creates a new in-memory barcode cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryBarcodeCache() *InMemoryBarcodeCache {
	cache := &InMemoryBarcodeCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

func cacheKey(shopDomain string, inventoryItemID int64) string {
	return shopDomain + ":" + strconv.FormatInt(inventoryItemID, 10)
}

// Get returns the cached barcode for an inventory item id
func (c *InMemoryBarcodeCache) Get(ctx context.Context, shopDomain string, inventoryItemID int64) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[cacheKey(shopDomain, inventoryItemID)]
	if !exists {
		return "", false, nil
	}
	if time.Now().After(e.expiresAt) {
		return "", false, nil // Expired, treat as a miss
	}
	return e.barcode, true, nil
}

// Set stores a barcode mapping with a TTL
func (c *InMemoryBarcodeCache) Set(ctx context.Context, shopDomain string, inventoryItemID int64, barcode string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(shopDomain, inventoryItemID)] = entry{
		barcode:   barcode,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (c *InMemoryBarcodeCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryBarcodeCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryBarcodeCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryBarcodeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryBarcodeCache implements BarcodeCache
var _ shared.BarcodeCache = (*InMemoryBarcodeCache)(nil)
