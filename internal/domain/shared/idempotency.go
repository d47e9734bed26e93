package shared

import (
	"context"
	"time"
)

// BarcodeCache caches inventory_item_id to barcode mappings so that
// stock-level webhooks can be mapped without a platform API round trip.
// Populated proactively from product webhooks and lazily on miss.
type BarcodeCache interface {
	// Get returns the cached barcode for an inventory item id.
	// The second return is false on a cache miss.
	Get(ctx context.Context, shopDomain string, inventoryItemID int64) (string, bool, error)

	// Set stores a barcode mapping with a TTL.
	Set(ctx context.Context, shopDomain string, inventoryItemID int64, barcode string, ttl time.Duration) error

	// Close closes the cache and releases resources
	Close() error
}

// DefaultBarcodeTTL is how long a cached barcode mapping stays valid.
// Product webhooks refresh entries well before expiry in practice.
const DefaultBarcodeTTL = 24 * time.Hour
