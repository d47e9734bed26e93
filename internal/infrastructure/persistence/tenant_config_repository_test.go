package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
)

func seedConfig(t *testing.T, db *gorm.DB, shopDomain string, active bool) *tenant.Config {
	t.Helper()
	cfg := &tenant.Config{
		ID:             uuid.New(),
		TenantID:       uuid.New(),
		RetailerID:     uuid.New(),
		ShopDomain:     shopDomain,
		APIAccessToken: "token",
		WebhookSecret:  "secret",
		APIVersion:     "2024-07",
		SyncInventory:  true,
		SyncPromotions: true,
		IsActive:       active,
		ExtraData:      map[string]any{"promo_retailer": "acme-group"},
	}
	require.NoError(t, db.Create(cfg).Error)
	return cfg
}

func TestConfigRepositoryFindByDomain(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the active config", func(t *testing.T) {
		db := testDB(t)
		repo := NewGormConfigRepository(db)
		seeded := seedConfig(t, db, "acme.myshopify.com", true)

		cfg, err := repo.FindByDomain(ctx, "acme.myshopify.com")
		require.NoError(t, err)
		assert.Equal(t, seeded.TenantID, cfg.TenantID)
		assert.Equal(t, "secret", cfg.WebhookSecret)
		assert.Equal(t, "acme-group", cfg.PromoRetailer())
	})

	t.Run("inactive configs are invisible", func(t *testing.T) {
		db := testDB(t)
		repo := NewGormConfigRepository(db)
		seedConfig(t, db, "dormant.myshopify.com", false)

		_, err := repo.FindByDomain(ctx, "dormant.myshopify.com")
		assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	})

	t.Run("unknown domain is missing configuration", func(t *testing.T) {
		db := testDB(t)
		repo := NewGormConfigRepository(db)

		_, err := repo.FindByDomain(ctx, "nobody.myshopify.com")
		assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	})
}

func TestConfigRepositoryFindByTenant(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the active config", func(t *testing.T) {
		db := testDB(t)
		repo := NewGormConfigRepository(db)
		seeded := seedConfig(t, db, "acme.myshopify.com", true)

		cfg, err := repo.FindByTenant(ctx, seeded.TenantID)
		require.NoError(t, err)
		assert.Equal(t, "acme.myshopify.com", cfg.ShopDomain)
	})

	t.Run("unknown tenant is missing configuration", func(t *testing.T) {
		db := testDB(t)
		repo := NewGormConfigRepository(db)

		_, err := repo.FindByTenant(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	})
}
