package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Topics
// ---------------------------------------------------------------------------

// Topic identifies a Shopify webhook topic
type Topic string

const (
	TopicProductCreate        Topic = "products/create"
	TopicProductUpdate        Topic = "products/update"
	TopicProductDelete        Topic = "products/delete"
	TopicInventoryLevelUpdate Topic = "inventory_levels/update"
	TopicPriceRuleCreate      Topic = "price_rules/create"
	TopicPriceRuleUpdate      Topic = "price_rules/update"
	TopicPriceRuleDelete      Topic = "price_rules/delete"
	TopicCollectionUpdate     Topic = "collections/update"
	TopicOrderCreate          Topic = "orders/create"
)

// IsValid returns true if the topic is one this service handles
func (t Topic) IsValid() bool {
	switch t {
	case TopicProductCreate, TopicProductUpdate, TopicProductDelete,
		TopicInventoryLevelUpdate,
		TopicPriceRuleCreate, TopicPriceRuleUpdate, TopicPriceRuleDelete,
		TopicCollectionUpdate,
		TopicOrderCreate:
		return true
	}
	return false
}

// InventoryTopics are the topics routed to the inventory pipeline
var InventoryTopics = map[Topic]bool{
	TopicProductCreate:        true,
	TopicProductUpdate:        true,
	TopicProductDelete:        true,
	TopicInventoryLevelUpdate: true,
}

// PromotionTopics are the topics routed to the promotion pipeline
var PromotionTopics = map[Topic]bool{
	TopicPriceRuleCreate:  true,
	TopicPriceRuleUpdate:  true,
	TopicPriceRuleDelete:  true,
	TopicCollectionUpdate: true,
}

// OrderTopics are the topics routed to the order pipeline
var OrderTopics = map[Topic]bool{
	TopicOrderCreate: true,
}

// ---------------------------------------------------------------------------
// InboundEvent Value Object
// ---------------------------------------------------------------------------

// InboundEvent is a verified-or-not webhook delivery as received at the HTTP
// boundary. It is immutable: created once by the handler, consumed once by
// the dispatch coordinator.
type InboundEvent struct {
	// WebhookID is the globally-unique delivery id assigned by Shopify.
	// It is the idempotency key for duplicate suppression.
	WebhookID string
	// Topic is the webhook topic, e.g. "products/update"
	Topic Topic
	// ShopDomain is the tenant's Shopify domain, e.g. "acme.myshopify.com"
	ShopDomain string
	// Signature is the value of the X-Shopify-Hmac-Sha256 header
	Signature string
	// RawBody is the exact request body bytes. Signature verification must
	// run over these bytes, never a re-serialized form.
	RawBody []byte
}

// ---------------------------------------------------------------------------
// EventRecord is the audit log entry with a validated state machine
// ---------------------------------------------------------------------------

// EventStatus is the audit state of a webhook event
type EventStatus string

const (
	StatusReceived   EventStatus = "received"
	StatusProcessing EventStatus = "processing"
	StatusSuccess    EventStatus = "success"
	StatusFailed     EventStatus = "failed"
	StatusDuplicate  EventStatus = "duplicate"
)

// IsTerminal returns true if no further transition is allowed
func (s EventStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusDuplicate
}

// validTransitions encodes the audit state machine:
// received → processing → success|failed, received → duplicate.
// A record stuck in processing means "unknown outcome", not failed.
var validTransitions = map[EventStatus][]EventStatus{
	StatusReceived:   {StatusProcessing, StatusDuplicate, StatusFailed},
	StatusProcessing: {StatusSuccess, StatusFailed},
}

// EventRecord is the persisted audit record for a webhook delivery.
// One row per accepted delivery; the unique index on WebhookID is the
// concurrency-correctness mechanism for duplicate suppression.
type EventRecord struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"`
	WebhookID        string      `gorm:"size:255;uniqueIndex:idx_webhook_events_webhook_id"`
	Topic            string      `gorm:"size:100"`
	ShopDomain       string      `gorm:"size:255;index:idx_webhook_events_shop_topic,priority:1"`
	TenantID         uuid.UUID   `gorm:"type:uuid"`
	Status           EventStatus `gorm:"size:20"`
	PayloadHash      string      `gorm:"size:64"`
	ErrorMessage     string      `gorm:"type:text"`
	ProcessingTimeMS *int64
	CreatedAt        time.Time `gorm:"index:idx_webhook_events_shop_topic,priority:2"`
	UpdatedAt        time.Time
}

// TableName sets the table name for gorm
func (EventRecord) TableName() string {
	return "webhook_events"
}

// NewEventRecord creates a fresh audit record in the received state
func NewEventRecord(event InboundEvent, tenantID uuid.UUID, payloadHash string) *EventRecord {
	now := time.Now()
	return &EventRecord{
		ID:          uuid.New(),
		WebhookID:   event.WebhookID,
		Topic:       string(event.Topic),
		ShopDomain:  event.ShopDomain,
		TenantID:    tenantID,
		Status:      StatusReceived,
		PayloadHash: payloadHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransitionTo moves the record to the next state, rejecting illegal jumps
func (r *EventRecord) TransitionTo(next EventStatus) error {
	for _, allowed := range validTransitions[r.Status] {
		if allowed == next {
			r.Status = next
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrInvalidState
}

// MarkFailed transitions to failed and records the error message.
// Messages are truncated so a pathological payload cannot bloat the table.
func (r *EventRecord) MarkFailed(errMsg string) error {
	if err := r.TransitionTo(StatusFailed); err != nil {
		return err
	}
	const maxErrLen = 2000
	if len(errMsg) > maxErrLen {
		errMsg = errMsg[:maxErrLen]
	}
	r.ErrorMessage = errMsg
	return nil
}

// RecordProcessingTime stores the elapsed processing duration
func (r *EventRecord) RecordProcessingTime(elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	r.ProcessingTimeMS = &ms
	r.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// EventRepository Interface
// ---------------------------------------------------------------------------

// EventRepository persists webhook audit records. Create must surface the
// unique-constraint violation on WebhookID as shared.ErrDuplicateEvent so
// the caller can treat a retried delivery as already seen.
type EventRepository interface {
	// Create inserts a new audit record. Returns shared.ErrDuplicateEvent
	// when a record with the same WebhookID already exists.
	Create(ctx context.Context, record *EventRecord) error

	// Update persists status/error/timing changes to an existing record
	Update(ctx context.Context, record *EventRecord) error

	// FindByID loads a record by primary key
	FindByID(ctx context.Context, id uuid.UUID) (*EventRecord, error)

	// FindByWebhookID loads a record by its idempotency key
	FindByWebhookID(ctx context.Context, webhookID string) (*EventRecord, error)
}
