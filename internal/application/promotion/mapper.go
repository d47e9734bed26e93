package promotion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
)

// defaultEndDate caps promotions that Shopify leaves open-ended
const defaultEndDate = "2050-01-01T16:39:39+10:00"

// Mapper builds canonical promotions from price rules. SKU resolution goes
// through the injected lookup collaborator; everything else is pure.
type Mapper struct {
	resolver *Resolver
}

// NewMapper creates a promotion mapper
func NewMapper(lookup SKULookup) *Mapper {
	return &Mapper{resolver: NewResolver(lookup)}
}

// MapPriceRule classifies the rule and builds the matching family shape.
// Returns (nil, nil) when the rule is a deliberate no-op (shipping-line or
// unrecognized targeting); the caller skips it without failing the event.
func (m *Mapper) MapPriceRule(ctx context.Context, rule *promotion.PriceRule, cfg *tenant.Config) (*promotion.Promotion, error) {
	family, ok := Classify(rule)
	if !ok {
		return nil, nil
	}
	switch family {
	case promotion.FamilyEasy:
		return m.buildEasy(ctx, rule, cfg)
	case promotion.FamilyBasketThreshold:
		return m.buildBasketThreshold(rule, cfg)
	case promotion.FamilyBXGY:
		return m.buildBXGY(ctx, rule, cfg)
	}
	return nil, fmt.Errorf("%w: family %q has no builder", shared.ErrUnsupportedFamily, family)
}

// ---------------------------------------------------------------------------
// Easy family
// ---------------------------------------------------------------------------

func (m *Mapper) buildEasy(ctx context.Context, rule *promotion.PriceRule, cfg *tenant.Config) (*promotion.Promotion, error) {
	promo := newBasePromotion(rule, cfg)
	promo.Family = promotion.FamilyEasy
	promo.Layer = 1
	promo.Availability = promotion.AvailabilityAll
	promo.DiscountValueOn = promotion.DiscountOnFinalPrice
	promo.SelectionCriteria = promotion.SelectLeastExpensive
	promo.Description = rule.Title

	switch rule.AllocationMethod {
	case promotion.AllocationEach:
		promo.Strategy = promotion.StrategyEachItem
	default:
		promo.Strategy = promotion.StrategyAllItems
	}

	if err := applyDiscount(promo, rule); err != nil {
		return nil, err
	}

	skus, err := m.resolveEntitled(ctx, rule)
	if err != nil {
		return nil, err
	}

	minimum, ok := ExtractMinimum(Trigger{Quantity: quantityMin(rule)})
	if !ok {
		minimum = decimal.NewFromInt(1)
	}
	group, err := BuildGroup(promo.PromoID, promotion.RoleEntitled, skus, minimum, false)
	if err != nil {
		return nil, err
	}
	promo.Groups = []promotion.Group{group}
	return promo, nil
}

// ---------------------------------------------------------------------------
// Basket Threshold family
// ---------------------------------------------------------------------------

func (m *Mapper) buildBasketThreshold(rule *promotion.PriceRule, cfg *tenant.Config) (*promotion.Promotion, error) {
	if strings.TrimSpace(rule.Title) == "" {
		return nil, fmt.Errorf("%w: basket threshold promotion requires a title", shared.ErrValidationFailed)
	}

	promo := newBasePromotion(rule, cfg)
	promo.Family = promotion.FamilyBasketThreshold
	promo.Layer = 100
	promo.Availability = promotion.AvailabilityAll
	promo.DiscountValueOn = promotion.DiscountOnFinalPrice
	promo.DiscountApplyType = promotion.ApplyTypeBasket
	promo.Strategy = promotion.StrategyAllItems
	promo.SelectionCriteria = promotion.SelectMostExpensive
	promo.ApplyOnDiscounted = false

	if err := applyDiscount(promo, rule); err != nil {
		return nil, err
	}

	// The trigger minimum comes from the subtotal range. Absent means "no
	// effective minimum", expressed as 1, never an error.
	minimum, ok := ExtractMinimum(Trigger{Amount: subtotalMin(rule)})
	if !ok {
		minimum = decimal.NewFromInt(1)
	}

	group, err := BuildGroup(promo.PromoID, promotion.RoleAll, nil, minimum, true)
	if err != nil {
		return nil, err
	}
	group.Nodes = append(group.Nodes, promotion.AllNode())
	promo.Groups = []promotion.Group{group}
	return promo, nil
}

// ---------------------------------------------------------------------------
// BXGY family
// ---------------------------------------------------------------------------

func (m *Mapper) buildBXGY(ctx context.Context, rule *promotion.PriceRule, cfg *tenant.Config) (*promotion.Promotion, error) {
	ratio := rule.PrerequisiteToEntitlementQuantityRatio
	if ratio == nil {
		return nil, fmt.Errorf("%w: BXGY rule without quantity ratio", shared.ErrUnsupportedFamily)
	}

	promo := newBasePromotion(rule, cfg)
	promo.Family = promotion.FamilyBXGY
	promo.Layer = 1
	promo.Availability = promotion.AvailabilityAll
	promo.DiscountValueOn = promotion.DiscountOnMRP
	promo.DiscountApplyType = promotion.ApplyTypeBasket
	promo.Strategy = promotion.StrategyAllItems
	promo.SelectionCriteria = promotion.SelectLeastExpensive
	promo.RequisiteCriteria = promotion.SelectLeastExpensive
	promo.Description = rule.Title
	promo.TargetGroupName = "g2"

	discountNode, err := bxgyDiscount(promo, rule)
	if err != nil {
		return nil, err
	}

	requisiteSKUs, err := m.resolvePrerequisite(ctx, rule)
	if err != nil {
		return nil, err
	}
	targetSKUs, err := m.resolveEntitled(ctx, rule)
	if err != nil {
		return nil, err
	}

	requisiteMin, _ := ExtractMinimum(Trigger{Quantity: &ratio.PrerequisiteQuantity})
	targetMin, _ := ExtractMinimum(Trigger{Quantity: &ratio.EntitledQuantity})

	g1, err := BuildGroup("g1", promotion.RolePrerequisite, requisiteSKUs, requisiteMin, false)
	if err != nil {
		return nil, err
	}
	g2, err := BuildGroup("g2", promotion.RoleTarget, targetSKUs, targetMin, false)
	if err != nil {
		return nil, err
	}
	g2.Nodes = append(g2.Nodes, discountNode)

	promo.Groups = []promotion.Group{g1, g2}
	return promo, nil
}

// bxgyDiscount sets the promotion discount fields and returns the target
// group's discount node. The three discount shapes produce structurally
// different nodes: a bare free-item node for 100%-off, a percent node
// carrying the percentage, and a value node carrying the amount.
func bxgyDiscount(promo *promotion.Promotion, rule *promotion.PriceRule) (promotion.Node, error) {
	value, err := absValue(rule.Value)
	if err != nil {
		return promotion.Node{}, fmt.Errorf("%w: unreadable discount value %q", shared.ErrUnsupportedFamily, rule.Value)
	}

	switch rule.ValueType {
	case promotion.ValueTypePercentage:
		promo.DiscountType = promotion.DiscountPercentOff
		promo.DiscountValue = value
		promo.EvaluatePriority = EvaluatePriority(promo.DiscountType, value)
		if value.GreaterThanOrEqual(hundred) {
			return promotion.Node{NodeType: promotion.NodeFreeItem}, nil
		}
		return promotion.Node{NodeType: promotion.NodePercentDiscount, Value: &value}, nil
	case promotion.ValueTypeFixedAmount:
		promo.DiscountType = promotion.DiscountValueOff
		promo.DiscountValue = value
		promo.EvaluatePriority = EvaluatePriority(promo.DiscountType, value)
		return promotion.Node{NodeType: promotion.NodeValueDiscount, Value: &value}, nil
	}
	return promotion.Node{}, fmt.Errorf("%w: unknown BXGY discount shape %q", shared.ErrUnsupportedFamily, rule.ValueType)
}

// ---------------------------------------------------------------------------
// Shared construction helpers
// ---------------------------------------------------------------------------

func newBasePromotion(rule *promotion.PriceRule, cfg *tenant.Config) *promotion.Promotion {
	promo := &promotion.Promotion{
		PromoID:             strconv.FormatInt(rule.ID, 10),
		Retailer:            cfg.PromoRetailer(),
		Title:               rule.Title,
		DateStart:           parseStart(rule.StartsAt),
		DateEnd:             parseEnd(rule.EndsAt),
		MaxApplicationLimit: promotion.MaxApplicationUnlimited,
	}
	promo.AddStore(cfg.TenantID.String())
	if rule.OncePerCustomer {
		promo.MaxApplicationLimit = 1
	}
	promo.IsActive = isActiveWindow(promo.DateStart, promo.DateEnd, time.Now())
	return promo
}

// applyDiscount maps the rule's value_type/value to the promotion discount
// fields shared by the Easy and Basket Threshold families.
func applyDiscount(promo *promotion.Promotion, rule *promotion.PriceRule) error {
	value, err := absValue(rule.Value)
	if err != nil {
		return fmt.Errorf("%w: unreadable discount value %q", shared.ErrUnsupportedFamily, rule.Value)
	}
	switch rule.ValueType {
	case promotion.ValueTypePercentage:
		promo.DiscountType = promotion.DiscountPercentOff
	case promotion.ValueTypeFixedAmount:
		promo.DiscountType = promotion.DiscountValueOff
	default:
		return fmt.Errorf("%w: unknown discount value_type %q", shared.ErrUnsupportedFamily, rule.ValueType)
	}
	promo.DiscountValue = value.Round(2)
	promo.EvaluatePriority = EvaluatePriority(promo.DiscountType, promo.DiscountValue)
	return nil
}

func absValue(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Abs(), nil
}

// resolveEntitled resolves the rule's entitled references, trying products,
// then variants, then collections.
func (m *Mapper) resolveEntitled(ctx context.Context, rule *promotion.PriceRule) ([]string, error) {
	switch {
	case len(rule.EntitledProductIDs) > 0:
		return m.resolver.Resolve(ctx, KindProduct, rule.EntitledProductIDs, nil)
	case len(rule.EntitledVariantIDs) > 0:
		return m.resolver.Resolve(ctx, KindVariant, rule.EntitledVariantIDs, nil)
	case len(rule.EntitledCollectionIDs) > 0:
		return m.resolver.Resolve(ctx, KindCollection, rule.EntitledCollectionIDs, nil)
	}
	return nil, fmt.Errorf("%w: price rule has no entitled references", shared.ErrResolutionFailed)
}

func (m *Mapper) resolvePrerequisite(ctx context.Context, rule *promotion.PriceRule) ([]string, error) {
	switch {
	case len(rule.PrerequisiteProductIDs) > 0:
		return m.resolver.Resolve(ctx, KindProduct, rule.PrerequisiteProductIDs, nil)
	case len(rule.PrerequisiteVariantIDs) > 0:
		return m.resolver.Resolve(ctx, KindVariant, rule.PrerequisiteVariantIDs, nil)
	case len(rule.PrerequisiteCollectionIDs) > 0:
		return m.resolver.Resolve(ctx, KindCollection, rule.PrerequisiteCollectionIDs, nil)
	}
	return nil, fmt.Errorf("%w: price rule has no prerequisite references", shared.ErrResolutionFailed)
}

func quantityMin(rule *promotion.PriceRule) *int {
	if rule.PrerequisiteQuantityRange == nil {
		return nil
	}
	return &rule.PrerequisiteQuantityRange.GreaterThanOrEqualTo
}

func subtotalMin(rule *promotion.PriceRule) *decimal.Decimal {
	if rule.PrerequisiteSubtotalRange == nil || rule.PrerequisiteSubtotalRange.GreaterThanOrEqualTo == "" {
		return nil
	}
	minimum, err := decimal.NewFromString(rule.PrerequisiteSubtotalRange.GreaterThanOrEqualTo)
	if err != nil {
		return nil
	}
	return &minimum
}

// ---------------------------------------------------------------------------
// Date helpers
// ---------------------------------------------------------------------------

func parseStart(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// parseEnd defaults an open-ended promotion to the far-future sentinel and
// adds a one-day buffer so a promotion stays redeemable through its last day.
func parseEnd(raw string) time.Time {
	if raw == "" {
		raw = defaultEndDate
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		parsed, _ = time.Parse(time.RFC3339, defaultEndDate)
	}
	return parsed.Add(24 * time.Hour)
}

func isActiveWindow(start, end, now time.Time) bool {
	return !now.Before(start) && !now.After(end)
}
