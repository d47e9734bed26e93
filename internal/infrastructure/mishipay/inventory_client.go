package mishipay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mishipay/shopify-bridge/internal/domain/catalog"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from internal services (10MB)
const maxResponseSize = 10 * 1024 * 1024

// InventoryClient calls the Inventory Service import and query APIs
type InventoryClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInventoryClient creates an Inventory Service client
func NewInventoryClient(cfg config.DownstreamConfig, logger *zap.Logger) *InventoryClient {
	return &InventoryClient{
		baseURL:    cfg.InventoryBaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger,
	}
}

func (c *InventoryClient) do(ctx context.Context, method, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inventory service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read inventory service response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("inventory service returned status %d: %s", resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode inventory service response: %w", err)
		}
	}
	return nil
}

// UpdateInventory pushes an item batch with upsert semantics
func (c *InventoryClient) UpdateInventory(ctx context.Context, batch catalog.InventoryBatch) error {
	url := c.baseURL + "/v1/inventory"
	if err := c.do(ctx, http.MethodPost, url, batch, nil); err != nil {
		return err
	}
	c.logger.Debug("pushed inventory batch",
		zap.String("store_id", batch.StoreID),
		zap.Int("items", len(batch.Items)))
	return nil
}

type variantFilterRequest struct {
	RetailerProductID []string `json:"retailerProductId"`
}

type variantFilterResponse struct {
	Items []catalog.ExistingVariant `json:"items"`
}

// VariantsByProduct lists a product's variants already known to the
// Inventory Service, filtered by retailer product id.
func (c *InventoryClient) VariantsByProduct(ctx context.Context, storeID, retailerProductID string) ([]catalog.ExistingVariant, error) {
	url := fmt.Sprintf("%s/v1/stores/%s/variants/filter", c.baseURL, storeID)
	request := variantFilterRequest{RetailerProductID: []string{retailerProductID}}

	var response variantFilterResponse
	if err := c.do(ctx, http.MethodPost, url, request, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}
