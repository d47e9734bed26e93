package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
)

// GormEventRepository implements webhook.EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Create inserts a new audit record. The unique index on webhook_id makes
// this insert the atomic duplicate check: a violation means the delivery was
// already accepted, and surfaces as shared.ErrDuplicateEvent.
func (r *GormEventRepository) Create(ctx context.Context, record *webhook.EventRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: webhook_id %s", shared.ErrDuplicateEvent, record.WebhookID)
		}
		return err
	}
	return nil
}

// Update persists status, error and timing changes to an existing record
func (r *GormEventRepository) Update(ctx context.Context, record *webhook.EventRecord) error {
	result := r.db.WithContext(ctx).
		Model(&webhook.EventRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"status":             record.Status,
			"error_message":      record.ErrorMessage,
			"processing_time_ms": record.ProcessingTimeMS,
			"updated_at":         record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads a record by primary key
func (r *GormEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*webhook.EventRecord, error) {
	var record webhook.EventRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByWebhookID loads a record by its idempotency key
func (r *GormEventRepository) FindByWebhookID(ctx context.Context, webhookID string) (*webhook.EventRecord, error) {
	var record webhook.EventRecord
	if err := r.db.WithContext(ctx).First(&record, "webhook_id = ?", webhookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Ensure GormEventRepository implements EventRepository
var _ webhook.EventRepository = (*GormEventRepository)(nil)
