package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/application/dispatch"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
)

// Shopify webhook headers
const (
	headerHmac       = "X-Shopify-Hmac-Sha256"
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerTopic      = "X-Shopify-Topic"
	headerWebhookID  = "X-Shopify-Webhook-Id"
)

// WebhookHandler exposes the Shopify webhook endpoints. These are called by
// Shopify and authenticate via HMAC signature, not sessions.
type WebhookHandler struct {
	coordinator *dispatch.Coordinator
	maxBodySize int64
	logger      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(coordinator *dispatch.Coordinator, maxBodySize int64, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		coordinator: coordinator,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// WebhookResponse is the body returned to Shopify
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes registers the webhook endpoints, one per topic category
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks/shopify")
	webhooks.POST("/inventory", h.handle(webhook.InventoryTopics))
	webhooks.POST("/promotions", h.handle(webhook.PromotionTopics))
	webhooks.POST("/orders", h.handle(webhook.OrderTopics))
}

// handle builds the endpoint handler for one topic category. The raw body is
// read before anything else: signature verification must run over the exact
// bytes Shopify sent, never a re-serialized form.
func (h *WebhookHandler) handle(allowedTopics map[webhook.Topic]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodySize+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, WebhookResponse{Error: "failed to read request body"})
			return
		}
		if int64(len(payload)) > h.maxBodySize {
			c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{Error: "payload too large"})
			return
		}

		event := webhook.InboundEvent{
			WebhookID:  c.GetHeader(headerWebhookID),
			Topic:      webhook.Topic(c.GetHeader(headerTopic)),
			ShopDomain: c.GetHeader(headerShopDomain),
			Signature:  c.GetHeader(headerHmac),
			RawBody:    payload,
		}

		outcome, err := h.coordinator.Accept(c.Request.Context(), event, allowedTopics)
		if err != nil {
			h.respondError(c, err)
			return
		}

		// Duplicates get the same accepted response so Shopify stops retrying
		c.JSON(http.StatusAccepted, WebhookResponse{
			Received:  true,
			Duplicate: outcome.Duplicate,
		})
	}
}

func (h *WebhookHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shared.ErrAuthenticationFailed):
		c.JSON(http.StatusUnauthorized, WebhookResponse{Error: "signature verification failed"})
	case errors.Is(err, shared.ErrConfigurationMissing):
		c.JSON(http.StatusNotFound, WebhookResponse{Error: "unknown shop domain"})
	case errors.Is(err, shared.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, WebhookResponse{Error: err.Error()})
	default:
		h.logger.Error("webhook acceptance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, WebhookResponse{Error: "internal error"})
	}
}
