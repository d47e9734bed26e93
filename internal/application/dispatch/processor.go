package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	inventoryapp "github.com/mishipay/shopify-bridge/internal/application/inventory"
	promotionapp "github.com/mishipay/shopify-bridge/internal/application/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/catalog"
	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
	"github.com/mishipay/shopify-bridge/internal/domain/webhook"
	"github.com/mishipay/shopify-bridge/internal/infrastructure/logger"
)

// InventoryPublisher is the Inventory Service collaborator
type InventoryPublisher interface {
	// UpdateInventory pushes an ordered item batch with upsert semantics
	UpdateInventory(ctx context.Context, batch catalog.InventoryBatch) error

	// VariantsByProduct lists a product's variants already known to the
	// Inventory Service, used for the delete → zero-stock flow
	VariantsByProduct(ctx context.Context, storeID, retailerProductID string) ([]catalog.ExistingVariant, error)
}

// PromotionPublisher is the Promotion Service collaborator
type PromotionPublisher interface {
	// Commit applies a promotion batch transactionally
	Commit(ctx context.Context, batch *promotion.Batch) error
}

// PlatformGateway is the Shopify Admin API collaborator used for lookups the
// webhook payload cannot answer on its own.
type PlatformGateway interface {
	// SKULookup returns a SKU resolver bound to the tenant's credentials
	SKULookup(cfg *tenant.Config) promotionapp.SKULookup

	// InventoryItemSKU resolves an inventory item id to its SKU
	InventoryItemSKU(ctx context.Context, cfg *tenant.Config, inventoryItemID int64) (string, error)

	// ListPriceRules fetches all price rules for the store (paginated)
	ListPriceRules(ctx context.Context, cfg *tenant.Config) ([]promotion.PriceRule, error)
}

// Processor executes the asynchronous half of the dispatch state machine:
// resolve tenant config, invoke the right mapper, hand the canonical object
// to the downstream client, and record the terminal audit status. Mapper
// errors never propagate back to the sender; the audit trail is the only
// failure channel.
type Processor struct {
	configs   tenant.ConfigRepository
	events    webhook.EventRepository
	inventory InventoryPublisher
	promos    PromotionPublisher
	gateway   PlatformGateway
	barcodes  shared.BarcodeCache
	logger    *zap.Logger
}

// NewProcessor creates an event processor
func NewProcessor(
	configs tenant.ConfigRepository,
	events webhook.EventRepository,
	inventory InventoryPublisher,
	promos PromotionPublisher,
	gateway PlatformGateway,
	barcodes shared.BarcodeCache,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		configs:   configs,
		events:    events,
		inventory: inventory,
		promos:    promos,
		gateway:   gateway,
		barcodes:  barcodes,
		logger:    logger,
	}
}

// Handles reports whether the topic has an asynchronous handler. Order
// events are recorded only; fulfilment runs on its own path.
func (p *Processor) Handles(topic webhook.Topic) bool {
	return webhook.InventoryTopics[topic] || webhook.PromotionTopics[topic]
}

// Process runs one event to a terminal state. Safe to call from any worker;
// shared state is limited to the audit record and the dedup store.
func (p *Processor) Process(ctx context.Context, eventID uuid.UUID, payload []byte) {
	record, err := p.events.FindByID(ctx, eventID)
	if err != nil {
		p.logger.Error("webhook event not found", zap.String("event_id", eventID.String()), zap.Error(err))
		return
	}

	// Query logs emitted while handling this event carry the delivery id
	ctx = logger.ContextWithWebhookID(ctx, record.WebhookID)

	if err := record.TransitionTo(webhook.StatusProcessing); err != nil {
		p.logger.Warn("event not in a processable state",
			zap.String("event_id", eventID.String()),
			zap.String("status", string(record.Status)))
		return
	}
	if err := p.events.Update(ctx, record); err != nil {
		p.logger.Error("failed to persist processing status", zap.Error(err))
		return
	}

	start := time.Now()
	handleErr := p.route(ctx, record, payload)
	record.RecordProcessingTime(time.Since(start))

	if handleErr != nil {
		if err := record.MarkFailed(handleErr.Error()); err != nil {
			p.logger.Error("illegal audit transition", zap.Error(err))
		}
		p.logger.Error("failed to process webhook event",
			zap.String("event_id", eventID.String()),
			zap.String("topic", record.Topic),
			zap.Error(handleErr))
	} else {
		if err := record.TransitionTo(webhook.StatusSuccess); err != nil {
			p.logger.Error("illegal audit transition", zap.Error(err))
		}
	}

	if err := p.events.Update(ctx, record); err != nil {
		p.logger.Error("failed to persist terminal status",
			zap.String("event_id", eventID.String()), zap.Error(err))
	}
}

func (p *Processor) route(ctx context.Context, record *webhook.EventRecord, payload []byte) error {
	cfg, err := p.configs.FindByTenant(ctx, record.TenantID)
	if err != nil {
		return fmt.Errorf("%w: tenant %s", shared.ErrConfigurationMissing, record.TenantID)
	}

	topic := webhook.Topic(record.Topic)
	switch {
	case webhook.InventoryTopics[topic]:
		if !cfg.SyncInventory {
			p.logger.Info("inventory sync disabled, skipping",
				zap.String("shop_domain", record.ShopDomain))
			return nil
		}
	case webhook.PromotionTopics[topic]:
		if !cfg.SyncPromotions {
			p.logger.Info("promotion sync disabled, skipping",
				zap.String("shop_domain", record.ShopDomain))
			return nil
		}
	}

	switch topic {
	case webhook.TopicProductCreate, webhook.TopicProductUpdate:
		return p.handleProductUpsert(ctx, cfg, payload)
	case webhook.TopicProductDelete:
		return p.handleProductDelete(ctx, cfg, payload)
	case webhook.TopicInventoryLevelUpdate:
		return p.handleInventoryLevel(ctx, cfg, payload)
	case webhook.TopicPriceRuleCreate:
		return p.handlePriceRuleCreate(ctx, cfg, payload)
	case webhook.TopicPriceRuleUpdate:
		return p.handlePriceRuleUpdate(ctx, cfg, payload)
	case webhook.TopicPriceRuleDelete:
		return p.handlePriceRuleDelete(ctx, cfg, payload)
	case webhook.TopicCollectionUpdate:
		return p.handleCollectionUpdate(ctx, cfg, payload)
	}
	return fmt.Errorf("%w: no handler for topic %q", shared.ErrValidationFailed, record.Topic)
}

// ---------------------------------------------------------------------------
// Inventory handlers
// ---------------------------------------------------------------------------

func (p *Processor) handleProductUpsert(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var product catalog.Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return fmt.Errorf("%w: unreadable product payload: %v", shared.ErrValidationFailed, err)
	}

	p.warmBarcodeCache(ctx, cfg, &product)

	items := inventoryapp.MapProduct(&product, cfg)
	if len(items) == 0 {
		p.logger.Info("product mapped to no items, skipping",
			zap.Int64("product_id", product.ID),
			zap.String("status", product.Status))
		return nil
	}

	batch := catalog.InventoryBatch{
		StoreID:        cfg.TenantID.String(),
		RetailerID:     cfg.RetailerID.String(),
		Categories:     items[0].Categories,
		Items:          items,
		PerformInserts: true,
	}
	if err := p.inventory.UpdateInventory(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("synced inventory items",
		zap.Int("items", len(items)),
		zap.Int64("product_id", product.ID),
		zap.String("shop_domain", cfg.ShopDomain))
	return nil
}

// handleProductDelete zero-stocks every known variant of the deleted
// product. Shopify only sends the product id, so existing variants come
// from the Inventory Service itself.
func (p *Processor) handleProductDelete(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var deleted catalog.DeletePayload
	if err := json.Unmarshal(payload, &deleted); err != nil {
		return fmt.Errorf("%w: unreadable delete payload: %v", shared.ErrValidationFailed, err)
	}
	if deleted.ID == 0 {
		return fmt.Errorf("%w: missing product id in delete payload", shared.ErrValidationFailed)
	}

	storeID := cfg.TenantID.String()
	productID := strconv.FormatInt(deleted.ID, 10)
	variants, err := p.inventory.VariantsByProduct(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if len(variants) == 0 {
		p.logger.Warn("no inventory items found for deleted product",
			zap.String("product_id", productID),
			zap.String("store_id", storeID))
		return nil
	}

	items := make([]catalog.InventoryItem, 0, len(variants))
	for _, variant := range variants {
		if len(variant.Barcodes) == 0 {
			continue
		}
		items = append(items, catalog.InventoryItem{
			Operation:  catalog.OperationUpsert,
			Barcodes:   variant.Barcodes,
			StockLevel: 0,
		})
	}
	if len(items) == 0 {
		p.logger.Warn("no barcodes found for deleted product",
			zap.String("product_id", productID),
			zap.String("store_id", storeID))
		return nil
	}

	batch := catalog.InventoryBatch{
		StoreID:        storeID,
		RetailerID:     cfg.RetailerID.String(),
		Categories:     []catalog.Category{},
		Items:          items,
		PerformInserts: false,
	}
	if err := p.inventory.UpdateInventory(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("zeroed stock for deleted product",
		zap.Int("variants", len(items)),
		zap.String("product_id", productID))
	return nil
}

func (p *Processor) handleInventoryLevel(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var level catalog.InventoryLevel
	if err := json.Unmarshal(payload, &level); err != nil {
		return fmt.Errorf("%w: unreadable inventory level payload: %v", shared.ErrValidationFailed, err)
	}
	if level.InventoryItemID == 0 {
		return fmt.Errorf("%w: missing inventory_item_id", shared.ErrValidationFailed)
	}
	// available is null when inventory tracking is disabled for the item
	if level.Available == nil {
		p.logger.Info("skipping inventory level update with null availability",
			zap.Int64("inventory_item_id", level.InventoryItemID))
		return nil
	}

	barcode, err := p.resolveBarcode(ctx, cfg, level.InventoryItemID)
	if err != nil {
		return err
	}

	stock := *level.Available
	if stock < 0 {
		stock = 0
	}
	batch := catalog.InventoryBatch{
		StoreID:    cfg.TenantID.String(),
		RetailerID: cfg.RetailerID.String(),
		Categories: []catalog.Category{},
		Items: []catalog.InventoryItem{{
			Operation:  catalog.OperationUpsert,
			Barcodes:   []string{barcode},
			StockLevel: stock,
		}},
		PerformInserts: false,
	}
	if err := p.inventory.UpdateInventory(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("updated stock level",
		zap.String("barcode", barcode),
		zap.Int("stock", stock),
		zap.Int64("inventory_item_id", level.InventoryItemID))
	return nil
}

// warmBarcodeCache stores inventory_item_id → barcode mappings from a
// product payload so later stock webhooks resolve without an API call.
func (p *Processor) warmBarcodeCache(ctx context.Context, cfg *tenant.Config, product *catalog.Product) {
	for i := range product.Variants {
		variant := &product.Variants[i]
		if variant.InventoryItemID == 0 {
			continue
		}
		barcode := inventoryapp.VariantBarcode(product, variant)
		if barcode == "" {
			continue
		}
		if err := p.barcodes.Set(ctx, cfg.ShopDomain, variant.InventoryItemID, barcode, shared.DefaultBarcodeTTL); err != nil {
			p.logger.Warn("failed to cache barcode mapping", zap.Error(err))
		}
	}
}

// resolveBarcode checks the cache, falling back to a platform lookup whose
// result is cached for the next stock webhook.
func (p *Processor) resolveBarcode(ctx context.Context, cfg *tenant.Config, inventoryItemID int64) (string, error) {
	barcode, found, err := p.barcodes.Get(ctx, cfg.ShopDomain, inventoryItemID)
	if err != nil {
		p.logger.Warn("barcode cache read failed", zap.Error(err))
	}
	if found && barcode != "" {
		return barcode, nil
	}

	barcode, err = p.gateway.InventoryItemSKU(ctx, cfg, inventoryItemID)
	if err != nil {
		return "", err
	}
	if barcode == "" {
		barcode = strconv.FormatInt(inventoryItemID, 10)
	}
	if err := p.barcodes.Set(ctx, cfg.ShopDomain, inventoryItemID, barcode, shared.DefaultBarcodeTTL); err != nil {
		p.logger.Warn("failed to cache barcode mapping", zap.Error(err))
	}
	return barcode, nil
}

// ---------------------------------------------------------------------------
// Promotion handlers
// ---------------------------------------------------------------------------

func (p *Processor) mapper(cfg *tenant.Config) *promotionapp.Mapper {
	return promotionapp.NewMapper(p.gateway.SKULookup(cfg))
}

func (p *Processor) handlePriceRuleCreate(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var rule promotion.PriceRule
	if err := json.Unmarshal(payload, &rule); err != nil {
		return fmt.Errorf("%w: unreadable price rule payload: %v", shared.ErrValidationFailed, err)
	}

	promo, err := p.mapper(cfg).MapPriceRule(ctx, &rule, cfg)
	if err != nil {
		return err
	}
	if promo == nil {
		p.logger.Info("price rule not mappable to a promotion family",
			zap.Int64("price_rule_id", rule.ID),
			zap.String("target_type", rule.TargetType),
			zap.String("target_selection", rule.TargetSelection))
		return nil
	}

	batch := promotion.NewBatch(cfg.PromoRetailer())
	batch.Create(promo)
	if err := p.promos.Commit(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("created promotion",
		zap.String("promo_id", promo.PromoID),
		zap.String("family", string(promo.Family)))
	return nil
}

// handlePriceRuleUpdate replaces the promotion: delete by the price rule id,
// then create the new version, in one batch transaction.
func (p *Processor) handlePriceRuleUpdate(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var rule promotion.PriceRule
	if err := json.Unmarshal(payload, &rule); err != nil {
		return fmt.Errorf("%w: unreadable price rule payload: %v", shared.ErrValidationFailed, err)
	}

	promo, err := p.mapper(cfg).MapPriceRule(ctx, &rule, cfg)
	if err != nil {
		return err
	}
	if promo == nil {
		p.logger.Info("price rule not mappable to a promotion family",
			zap.Int64("price_rule_id", rule.ID))
		return nil
	}

	batch := promotion.NewBatch(cfg.PromoRetailer())
	batch.Delete(strconv.FormatInt(rule.ID, 10), cfg.TenantID.String())
	batch.Create(promo)
	if err := p.promos.Commit(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("updated promotion",
		zap.String("promo_id", promo.PromoID),
		zap.String("family", string(promo.Family)))
	return nil
}

func (p *Processor) handlePriceRuleDelete(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var deleted promotion.DeletePayload
	if err := json.Unmarshal(payload, &deleted); err != nil {
		return fmt.Errorf("%w: unreadable delete payload: %v", shared.ErrValidationFailed, err)
	}
	if deleted.ID == 0 {
		return fmt.Errorf("%w: missing price rule id in delete payload", shared.ErrValidationFailed)
	}

	batch := promotion.NewBatch(cfg.PromoRetailer())
	batch.Delete(strconv.FormatInt(deleted.ID, 10), cfg.TenantID.String())
	if err := p.promos.Commit(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("deleted promotion", zap.Int64("price_rule_id", deleted.ID))
	return nil
}

// handleCollectionUpdate rebuilds every promotion whose price rule entitles
// or requires the changed collection: membership changed, so the flattened
// SKU lists are stale.
func (p *Processor) handleCollectionUpdate(ctx context.Context, cfg *tenant.Config, payload []byte) error {
	var collection promotion.CollectionUpdatePayload
	if err := json.Unmarshal(payload, &collection); err != nil {
		return fmt.Errorf("%w: unreadable collection payload: %v", shared.ErrValidationFailed, err)
	}
	if collection.ID == 0 {
		return fmt.Errorf("%w: missing collection id in update payload", shared.ErrValidationFailed)
	}

	rules, err := p.gateway.ListPriceRules(ctx, cfg)
	if err != nil {
		return err
	}

	mapper := p.mapper(cfg)
	batch := promotion.NewBatch(cfg.PromoRetailer())
	rebuilt := 0
	for i := range rules {
		rule := &rules[i]
		if !rule.ReferencesCollection(collection.ID) {
			continue
		}
		promo, err := mapper.MapPriceRule(ctx, rule, cfg)
		if err != nil {
			return err
		}
		if promo == nil {
			continue
		}
		batch.Delete(strconv.FormatInt(rule.ID, 10), cfg.TenantID.String())
		batch.Create(promo)
		rebuilt++
	}

	if batch.Empty() {
		p.logger.Info("no promotions reference collection",
			zap.Int64("collection_id", collection.ID))
		return nil
	}
	if err := p.promos.Commit(ctx, batch); err != nil {
		return err
	}
	p.logger.Info("rebuilt promotions after collection update",
		zap.Int("rebuilt", rebuilt),
		zap.Int64("collection_id", collection.ID))
	return nil
}
