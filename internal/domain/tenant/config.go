package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Config Entity
// ---------------------------------------------------------------------------

// Config is the per-tenant Shopify connection configuration. One record per
// connected store. The core treats it as read-only input to every mapping
// call; there is no global registry.
type Config struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// TenantID is the MishiPay store this configuration belongs to
	TenantID uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	// RetailerID is the MishiPay retailer the store belongs to
	RetailerID uuid.UUID `gorm:"type:uuid"`
	// ShopDomain is the Shopify domain, e.g. "acme.myshopify.com"
	ShopDomain string `gorm:"size:255;index"`
	// APIAccessToken authenticates Admin API lookups (SKU resolution,
	// inventory item fallback, price rule listing)
	APIAccessToken string `gorm:"type:text"`
	// WebhookSecret signs inbound webhook deliveries
	WebhookSecret string `gorm:"size:255"`
	// APIVersion pins the Admin API version for outbound lookups
	APIVersion string `gorm:"size:10;default:2024-07"`

	SyncInventory  bool `gorm:"default:true"`
	SyncPromotions bool `gorm:"default:true"`
	SyncOrders     bool `gorm:"default:true"`

	// ExtraData is an open-ended extension map holding tax-mapping rules,
	// buying-guidance rules, and the promotion retailer override.
	ExtraData map[string]any `gorm:"serializer:json"`

	IsActive  bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName sets the table name for gorm
func (Config) TableName() string {
	return "shopify_webhook_configs"
}

// ---------------------------------------------------------------------------
// ExtraData accessors
// ---------------------------------------------------------------------------

// TaxMapping holds the tax computation rules for inventory pricing
type TaxMapping struct {
	TaxCode       string
	VATPercentage decimal.Decimal
	// TaxInclusive indicates whether variant prices already include VAT
	TaxInclusive bool
}

// TaxMapping returns the configured tax rules, or false when pricing should
// pass through unmodified.
func (c *Config) TaxMapping() (TaxMapping, bool) {
	raw, ok := c.ExtraData["tax_mapping"].(map[string]any)
	if !ok {
		return TaxMapping{}, false
	}

	tm := TaxMapping{TaxInclusive: true}
	if code, ok := raw["tax_code"].(string); ok {
		tm.TaxCode = code
	}
	if incl, ok := raw["tax_inclusive"].(bool); ok {
		tm.TaxInclusive = incl
	}
	switch v := raw["vat_percentage"].(type) {
	case float64:
		tm.VATPercentage = decimal.NewFromFloat(v)
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return TaxMapping{}, false
		}
		tm.VATPercentage = parsed
	case int:
		tm.VATPercentage = decimal.NewFromInt(int64(v))
	default:
		return TaxMapping{}, false
	}
	return tm, true
}

// BuyingGuidance returns the buying-guidance block to copy onto every
// inventory item verbatim, or nil when not configured.
func (c *Config) BuyingGuidance() map[string]any {
	guidance, ok := c.ExtraData["buying_guidance"].(map[string]any)
	if !ok {
		return nil
	}
	return guidance
}

// PromoRetailer returns the retailer string used for promotion batches.
// Falls back to the tenant id when no override is configured.
func (c *Config) PromoRetailer() string {
	if retailer, ok := c.ExtraData["promo_retailer"].(string); ok && retailer != "" {
		return retailer
	}
	return c.TenantID.String()
}

// ThemeInvariant reports whether the tenant forces the invariant theme tag
// on all items regardless of product options.
func (c *Config) ThemeInvariant() bool {
	invariant, ok := c.ExtraData["theme_invariant"].(bool)
	return ok && invariant
}

// ---------------------------------------------------------------------------
// ConfigRepository Interface
// ---------------------------------------------------------------------------

// ConfigRepository looks up tenant configuration. External collaborator:
// the core never writes configuration.
type ConfigRepository interface {
	// FindByDomain returns the active configuration for a shop domain.
	// Returns shared.ErrConfigurationMissing when no active config exists.
	FindByDomain(ctx context.Context, shopDomain string) (*Config, error)

	// FindByTenant returns the active configuration for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Config, error)
}
