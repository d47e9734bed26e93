package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
)

// Queue hands work to the asynchronous execution collaborator. Enqueue must
// not block the synchronous webhook path; retry policy, if any, lives behind
// this interface.
type Queue interface {
	Enqueue(job func(ctx context.Context)) error
}

// Outcome is the synchronous result of accepting a webhook delivery
type Outcome struct {
	EventID   uuid.UUID
	Duplicate bool
}

// Coordinator runs the per-event state machine:
// received → verified → (duplicate | processing) → (success | failed).
//
// The synchronous path (Accept) does only verification, dedup and the audit
// insert; mapping and downstream calls run on the queue via the processor.
type Coordinator struct {
	configs   tenant.ConfigRepository
	events    webhook.EventRepository
	queue     Queue
	processor *Processor
	logger    *zap.Logger
}

// NewCoordinator creates a dispatch coordinator
func NewCoordinator(
	configs tenant.ConfigRepository,
	events webhook.EventRepository,
	queue Queue,
	processor *Processor,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		configs:   configs,
		events:    events,
		queue:     queue,
		processor: processor,
		logger:    logger,
	}
}

// Accept verifies, dedups and records an inbound delivery, then hands the
// payload off for asynchronous processing. It must complete well within the
// sender's delivery timeout; nothing here blocks on mapping or downstream
// calls.
//
// Error taxonomy: shared.ErrAuthenticationFailed rejects the delivery before
// any state change; shared.ErrConfigurationMissing means the shop domain is
// unknown; shared.ErrValidationFailed covers missing headers. A duplicate is
// not an error: the outcome carries Duplicate=true and the caller responds
// as accepted so the sender stops retrying.
func (c *Coordinator) Accept(ctx context.Context, event webhook.InboundEvent, allowedTopics map[webhook.Topic]bool) (*Outcome, error) {
	if event.ShopDomain == "" {
		return nil, fmt.Errorf("%w: missing shop domain header", shared.ErrValidationFailed)
	}

	cfg, err := c.configs.FindByDomain(ctx, event.ShopDomain)
	if err != nil {
		c.logger.Warn("no active config for shop domain",
			zap.String("shop_domain", event.ShopDomain))
		return nil, fmt.Errorf("%w: unknown shop domain %q", shared.ErrConfigurationMissing, event.ShopDomain)
	}

	if !webhook.VerifySignature(cfg.WebhookSecret, event.RawBody, event.Signature) {
		c.logger.Warn("webhook signature verification failed",
			zap.String("shop_domain", event.ShopDomain),
			zap.String("topic", string(event.Topic)))
		return nil, shared.ErrAuthenticationFailed
	}

	if event.WebhookID == "" {
		return nil, fmt.Errorf("%w: missing webhook id header", shared.ErrValidationFailed)
	}
	if len(allowedTopics) > 0 && !allowedTopics[event.Topic] {
		return nil, fmt.Errorf("%w: topic %q not handled by this endpoint", shared.ErrValidationFailed, event.Topic)
	}

	// The insert is the dedup check: the unique index on webhook_id decides,
	// so two workers racing on the same retried delivery cannot both win.
	hash := sha256.Sum256(event.RawBody)
	record := webhook.NewEventRecord(event, cfg.TenantID, hex.EncodeToString(hash[:]))
	if err := c.events.Create(ctx, record); err != nil {
		if errors.Is(err, shared.ErrDuplicateEvent) {
			c.logger.Info("duplicate webhook delivery skipped",
				zap.String("webhook_id", event.WebhookID),
				zap.String("topic", string(event.Topic)))
			return &Outcome{Duplicate: true}, nil
		}
		return nil, err
	}

	if c.processor.Handles(event.Topic) {
		eventID := record.ID
		body := event.RawBody
		if err := c.queue.Enqueue(func(jobCtx context.Context) {
			c.processor.Process(jobCtx, eventID, body)
		}); err != nil {
			// The record stays in received; a reconciliation sweep can pick
			// it up. The sender still gets an accepted response.
			c.logger.Error("async handoff failed",
				zap.String("webhook_id", event.WebhookID),
				zap.Error(err))
		}
	}

	c.logger.Info("recorded webhook event",
		zap.String("topic", string(event.Topic)),
		zap.String("webhook_id", event.WebhookID),
		zap.String("shop_domain", event.ShopDomain))
	return &Outcome{EventID: record.ID}, nil
}
