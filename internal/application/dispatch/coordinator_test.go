package dispatch

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
)

// syncQueue runs enqueued jobs inline so tests observe their effects
// deterministically.
type syncQueue struct {
	enqueued int
	err      error
}

func (q *syncQueue) Enqueue(job func(ctx context.Context)) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued++
	job(context.Background())
	return nil
}

type coordinatorHarness struct {
	*processorHarness
	coordinator *Coordinator
	queue       *syncQueue
}

func newCoordinatorHarness(t *testing.T) *coordinatorHarness {
	t.Helper()
	ph := newProcessorHarness(t)
	queue := &syncQueue{}
	return &coordinatorHarness{
		processorHarness: ph,
		queue:            queue,
		coordinator: NewCoordinator(
			newFakeConfigRepo(ph.cfg),
			ph.events,
			queue,
			ph.processor,
			zap.NewNop(),
		),
	}
}

func (h *coordinatorHarness) signedEvent(topic webhook.Topic, body []byte) webhook.InboundEvent {
	return webhook.InboundEvent{
		WebhookID:  "wh-" + uuid.NewString(),
		Topic:      topic,
		ShopDomain: h.cfg.ShopDomain,
		Signature:  webhook.ComputeSignature(h.cfg.WebhookSecret, body),
		RawBody:    body,
	}
}

func TestAccept(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"inventory_item_id": 3001, "available": null}`)

	t.Run("accepts, records and processes a signed delivery", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)

		outcome, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.False(t, outcome.Duplicate)
		assert.NotEqual(t, uuid.Nil, outcome.EventID)
		assert.Equal(t, 1, h.queue.enqueued)

		record, err := h.events.FindByWebhookID(ctx, event.WebhookID)
		require.NoError(t, err)
		// the inline queue already ran the processor
		assert.Equal(t, webhook.StatusSuccess, record.Status)
		assert.Equal(t, h.cfg.TenantID, record.TenantID)
		assert.NotEmpty(t, record.PayloadHash)
	})

	t.Run("missing shop domain is a validation error", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)
		event.ShopDomain = ""

		_, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("unknown shop domain is a configuration error", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)
		event.ShopDomain = "unknown.myshopify.com"

		_, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		assert.ErrorIs(t, err, shared.ErrConfigurationMissing)
	})

	t.Run("bad signature rejects before any state change", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)
		event.Signature = webhook.ComputeSignature("wrong-secret", body)

		_, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		assert.ErrorIs(t, err, shared.ErrAuthenticationFailed)

		_, err = h.events.FindByWebhookID(ctx, event.WebhookID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing webhook id is a validation error", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)
		event.WebhookID = ""

		_, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("topic outside the endpoint category is rejected", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicPriceRuleCreate, body)

		_, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("duplicate delivery short-circuits without enqueueing", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)

		first, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		require.NoError(t, err)
		assert.False(t, first.Duplicate)

		second, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		require.NoError(t, err)
		assert.True(t, second.Duplicate)
		assert.Equal(t, 1, h.queue.enqueued)
	})

	t.Run("order topics are recorded but not enqueued", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		orderBody := []byte(`{"id": 88}`)
		event := h.signedEvent(webhook.TopicOrderCreate, orderBody)

		outcome, err := h.coordinator.Accept(ctx, event, webhook.OrderTopics)
		require.NoError(t, err)
		assert.False(t, outcome.Duplicate)
		assert.Zero(t, h.queue.enqueued)

		record, err := h.events.FindByWebhookID(ctx, event.WebhookID)
		require.NoError(t, err)
		assert.Equal(t, webhook.StatusReceived, record.Status)
	})

	t.Run("handoff failure still accepts the delivery", func(t *testing.T) {
		h := newCoordinatorHarness(t)
		h.queue.err = ErrQueueFull
		event := h.signedEvent(webhook.TopicInventoryLevelUpdate, body)

		outcome, err := h.coordinator.Accept(ctx, event, webhook.InventoryTopics)
		require.NoError(t, err)
		assert.False(t, outcome.Duplicate)

		record, err := h.events.FindByWebhookID(ctx, event.WebhookID)
		require.NoError(t, err)
		assert.Equal(t, webhook.StatusReceived, record.Status)
	})
}
