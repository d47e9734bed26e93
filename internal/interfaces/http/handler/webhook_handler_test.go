package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/application/dispatch"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
)

const testSecret = "shhh"

type fakeConfigs struct {
	byDomain map[string]*tenant.Config
}

func (f *fakeConfigs) FindByDomain(_ context.Context, shopDomain string) (*tenant.Config, error) {
	cfg, ok := f.byDomain[shopDomain]
	if !ok {
		return nil, shared.ErrConfigurationMissing
	}
	return cfg, nil
}

func (f *fakeConfigs) FindByTenant(_ context.Context, _ uuid.UUID) (*tenant.Config, error) {
	return nil, shared.ErrConfigurationMissing
}

type fakeEvents struct {
	records map[string]*webhook.EventRecord
}

func (f *fakeEvents) Create(_ context.Context, record *webhook.EventRecord) error {
	if _, exists := f.records[record.WebhookID]; exists {
		return shared.ErrDuplicateEvent
	}
	f.records[record.WebhookID] = record
	return nil
}

func (f *fakeEvents) Update(_ context.Context, _ *webhook.EventRecord) error { return nil }

func (f *fakeEvents) FindByID(_ context.Context, _ uuid.UUID) (*webhook.EventRecord, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeEvents) FindByWebhookID(_ context.Context, _ string) (*webhook.EventRecord, error) {
	return nil, shared.ErrNotFound
}

// dropQueue accepts handoffs without running them; these tests cover the
// synchronous path only.
type dropQueue struct{}

func (dropQueue) Enqueue(_ func(ctx context.Context)) error { return nil }

func newTestRouter(t *testing.T, maxBodySize int64) (*gin.Engine, *fakeEvents) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	configs := &fakeConfigs{byDomain: map[string]*tenant.Config{
		"acme.myshopify.com": {
			TenantID:      uuid.New(),
			ShopDomain:    "acme.myshopify.com",
			WebhookSecret: testSecret,
			IsActive:      true,
		},
	}}
	events := &fakeEvents{records: map[string]*webhook.EventRecord{}}

	log := zap.NewNop()
	processor := dispatch.NewProcessor(configs, events, nil, nil, nil, nil, log)
	coordinator := dispatch.NewCoordinator(configs, events, dropQueue{}, processor, log)

	engine := gin.New()
	NewWebhookHandler(coordinator, maxBodySize, log).RegisterRoutes(engine.Group("/api/v1"))
	return engine, events
}

func postWebhook(engine *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func signedHeaders(webhookID, topic, body string) map[string]string {
	return map[string]string{
		"X-Shopify-Webhook-Id":  webhookID,
		"X-Shopify-Topic":       topic,
		"X-Shopify-Shop-Domain": "acme.myshopify.com",
		"X-Shopify-Hmac-Sha256": webhook.ComputeSignature(testSecret, []byte(body)),
	}
}

func TestWebhookEndpoint(t *testing.T) {
	const body = `{"id": 1001, "status": "active"}`

	t.Run("valid delivery is accepted and recorded", func(t *testing.T) {
		engine, events := newTestRouter(t, 1<<20)
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body,
			signedHeaders("wh-1", "products/update", body))

		assert.Equal(t, http.StatusAccepted, w.Code)
		var resp WebhookResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Received)
		assert.False(t, resp.Duplicate)
		require.Contains(t, events.records, "wh-1")
		assert.Equal(t, string(webhook.TopicProductUpdate), events.records["wh-1"].Topic)
	})

	t.Run("redelivery is accepted and flagged duplicate", func(t *testing.T) {
		engine, _ := newTestRouter(t, 1<<20)
		headers := signedHeaders("wh-1", "products/update", body)

		first := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body, headers)
		assert.Equal(t, http.StatusAccepted, first.Code)

		second := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body, headers)
		assert.Equal(t, http.StatusAccepted, second.Code)
		var resp WebhookResponse
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
		assert.True(t, resp.Duplicate)
	})

	t.Run("tampered body is unauthorized", func(t *testing.T) {
		engine, events := newTestRouter(t, 1<<20)
		headers := signedHeaders("wh-1", "products/update", body)
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body+" ", headers)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, events.records)
	})

	t.Run("unknown shop domain is not found", func(t *testing.T) {
		engine, _ := newTestRouter(t, 1<<20)
		headers := signedHeaders("wh-1", "products/update", body)
		headers["X-Shopify-Shop-Domain"] = "stranger.myshopify.com"
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body, headers)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing shop domain is a bad request", func(t *testing.T) {
		engine, _ := newTestRouter(t, 1<<20)
		headers := signedHeaders("wh-1", "products/update", body)
		delete(headers, "X-Shopify-Shop-Domain")
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing webhook id is a bad request", func(t *testing.T) {
		engine, _ := newTestRouter(t, 1<<20)
		headers := signedHeaders("", "products/update", body)
		delete(headers, "X-Shopify-Webhook-Id")
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", body, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("topic outside the endpoint category is a bad request", func(t *testing.T) {
		engine, _ := newTestRouter(t, 1<<20)
		w := postWebhook(engine, "/api/v1/webhooks/shopify/promotions", body,
			signedHeaders("wh-1", "products/update", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized payload is rejected", func(t *testing.T) {
		engine, _ := newTestRouter(t, 64)
		big := `{"padding": "` + strings.Repeat("x", 128) + `"}`
		w := postWebhook(engine, "/api/v1/webhooks/shopify/inventory", big,
			signedHeaders("wh-1", "products/update", big))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("order topic is recorded on the orders endpoint", func(t *testing.T) {
		engine, events := newTestRouter(t, 1<<20)
		w := postWebhook(engine, "/api/v1/webhooks/shopify/orders", body,
			signedHeaders("wh-ord", "orders/create", body))

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Contains(t, events.records, "wh-ord")
		assert.Equal(t, webhook.StatusReceived, events.records["wh-ord"].Status)
	})
}
