package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
)

// GormConfigRepository implements tenant.ConfigRepository using GORM
type GormConfigRepository struct {
	db *gorm.DB
}

// NewGormConfigRepository creates a new GormConfigRepository
func NewGormConfigRepository(db *gorm.DB) *GormConfigRepository {
	return &GormConfigRepository{db: db}
}

// FindByDomain returns the active configuration for a shop domain
func (r *GormConfigRepository) FindByDomain(ctx context.Context, shopDomain string) (*tenant.Config, error) {
	var cfg tenant.Config
	if err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND is_active = ?", shopDomain, true).
		First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: shop domain %q", shared.ErrConfigurationMissing, shopDomain)
		}
		return nil, err
	}
	return &cfg, nil
}

// FindByTenant returns the active configuration for a tenant
func (r *GormConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tenant.Config, error) {
	var cfg tenant.Config
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant %s", shared.ErrConfigurationMissing, tenantID)
		}
		return nil, err
	}
	return &cfg, nil
}

// Ensure GormConfigRepository implements ConfigRepository
var _ tenant.ConfigRepository = (*GormConfigRepository)(nil)
