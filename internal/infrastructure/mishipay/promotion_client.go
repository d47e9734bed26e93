package mishipay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
)

// PromotionClient calls the Promotion Service batch API
type PromotionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPromotionClient creates a Promotion Service client
func NewPromotionClient(cfg config.DownstreamConfig, logger *zap.Logger) *PromotionClient {
	return &PromotionClient{
		baseURL:    cfg.PromotionBaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

// Commit applies a promotion batch transactionally. The service applies the
// whole batch or none of it, which is what makes delete-then-create a safe
// expression of an update.
func (c *PromotionClient) Commit(ctx context.Context, batch *promotion.Batch) error {
	if batch.Empty() {
		return nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to encode promotion batch: %w", err)
	}

	url := c.baseURL + "/v1/promotions/batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("promotion service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read promotion service response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("promotion service returned status %d: %s", resp.StatusCode, respBody)
	}

	c.logger.Debug("committed promotion batch",
		zap.String("retailer", batch.Retailer),
		zap.Int("operations", len(batch.Operations)))
	return nil
}
