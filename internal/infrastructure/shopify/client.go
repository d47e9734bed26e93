package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	promotionapp "github.com/mishipay/shopify-bridge/internal/application/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the Admin API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// retryDelay is the wait before retrying a rate-limited request
const retryDelay = 2 * time.Second

// Client calls the Shopify Admin REST API with per-tenant credentials.
// One instance serves all tenants; every call takes the tenant config.
type Client struct {
	httpClient *http.Client
	pageSize   int
	maxPages   int
	logger     *zap.Logger
}

// NewClient creates an Admin API client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		logger:     logger,
	}
}

func baseURL(cfg *tenant.Config) string {
	return fmt.Sprintf("https://%s/admin/api/%s", cfg.ShopDomain, cfg.APIVersion)
}

// getJSON performs an authenticated GET, retrying once-per-loop on 429.
// The response body is decoded into out; the Link header is returned for
// paginated endpoints.
func (c *Client) getJSON(ctx context.Context, cfg *tenant.Config, url string, out any) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("X-Shopify-Access-Token", cfg.APIAccessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("shopify request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			c.logger.Warn("shopify rate limit hit, retrying", zap.String("url", url))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		linkHeader := resp.Header.Get("Link")
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("failed to read shopify response: %w", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("shopify returned status %d for %s", resp.StatusCode, url)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return "", fmt.Errorf("failed to decode shopify response: %w", err)
		}
		return linkHeader, nil
	}
}

// nextPageURL extracts the rel="next" URL from a Link header, or ""
func nextPageURL(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// SKU resolution
// ---------------------------------------------------------------------------

// skuLookup binds the client to one tenant's credentials
type skuLookup struct {
	client *Client
	cfg    *tenant.Config
}

// SKULookup returns a SKU resolver bound to the tenant's credentials
func (c *Client) SKULookup(cfg *tenant.Config) promotionapp.SKULookup {
	return &skuLookup{client: c, cfg: cfg}
}

type productEnvelope struct {
	Product struct {
		Variants []struct {
			Barcode string `json:"barcode"`
		} `json:"variants"`
	} `json:"product"`
}

// ProductSKUs returns the barcodes of all variants of the given products.
// Variants with no barcode are skipped.
func (l *skuLookup) ProductSKUs(ctx context.Context, productIDs []int64) ([]string, error) {
	var skus []string
	for _, productID := range productIDs {
		url := fmt.Sprintf("%s/products/%d.json", baseURL(l.cfg), productID)
		var envelope productEnvelope
		if _, err := l.client.getJSON(ctx, l.cfg, url, &envelope); err != nil {
			return nil, err
		}
		for _, variant := range envelope.Product.Variants {
			if variant.Barcode != "" {
				skus = append(skus, variant.Barcode)
			}
		}
	}
	return skus, nil
}

type variantEnvelope struct {
	Variant struct {
		Barcode string `json:"barcode"`
	} `json:"variant"`
}

// VariantSKUs returns the barcode of each given variant
func (l *skuLookup) VariantSKUs(ctx context.Context, variantIDs []int64) ([]string, error) {
	var skus []string
	for _, variantID := range variantIDs {
		url := fmt.Sprintf("%s/variants/%d.json", baseURL(l.cfg), variantID)
		var envelope variantEnvelope
		if _, err := l.client.getJSON(ctx, l.cfg, url, &envelope); err != nil {
			return nil, err
		}
		skus = append(skus, envelope.Variant.Barcode)
	}
	return skus, nil
}

type collectionProductsEnvelope struct {
	Products []struct {
		ID int64 `json:"id"`
	} `json:"products"`
}

// CollectionSKUs returns the barcodes of all products in the given
// collections, resolved product by product.
func (l *skuLookup) CollectionSKUs(ctx context.Context, collectionIDs []int64) ([]string, error) {
	var skus []string
	for _, collectionID := range collectionIDs {
		url := fmt.Sprintf("%s/collections/%d/products.json", baseURL(l.cfg), collectionID)
		var envelope collectionProductsEnvelope
		if _, err := l.client.getJSON(ctx, l.cfg, url, &envelope); err != nil {
			return nil, err
		}
		productIDs := make([]int64, 0, len(envelope.Products))
		for _, product := range envelope.Products {
			productIDs = append(productIDs, product.ID)
		}
		productSKUs, err := l.ProductSKUs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		skus = append(skus, productSKUs...)
	}
	return skus, nil
}

// ---------------------------------------------------------------------------
// Inventory item lookup
// ---------------------------------------------------------------------------

type inventoryItemEnvelope struct {
	InventoryItem struct {
		SKU string `json:"sku"`
	} `json:"inventory_item"`
}

// InventoryItemSKU resolves an inventory item id to its SKU. The SKU is the
// best identifier the inventory_items endpoint exposes; the caller falls
// back to the raw id when it is empty.
func (c *Client) InventoryItemSKU(ctx context.Context, cfg *tenant.Config, inventoryItemID int64) (string, error) {
	url := fmt.Sprintf("%s/inventory_items/%d.json", baseURL(cfg), inventoryItemID)
	var envelope inventoryItemEnvelope
	if _, err := c.getJSON(ctx, cfg, url, &envelope); err != nil {
		return "", err
	}
	return envelope.InventoryItem.SKU, nil
}

// ---------------------------------------------------------------------------
// Price rule listing
// ---------------------------------------------------------------------------

type priceRulesEnvelope struct {
	PriceRules []promotion.PriceRule `json:"price_rules"`
}

// ListPriceRules fetches all price rules for the store, following Link
// header pagination up to the configured page cap.
func (c *Client) ListPriceRules(ctx context.Context, cfg *tenant.Config) ([]promotion.PriceRule, error) {
	url := fmt.Sprintf("%s/price_rules.json?limit=%s", baseURL(cfg), strconv.Itoa(c.pageSize))

	var rules []promotion.PriceRule
	for page := 0; url != "" && page < c.maxPages; page++ {
		var envelope priceRulesEnvelope
		linkHeader, err := c.getJSON(ctx, cfg, url, &envelope)
		if err != nil {
			return nil, err
		}
		rules = append(rules, envelope.PriceRules...)
		url = nextPageURL(linkHeader)
	}
	return rules, nil
}
