package promotion

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
)

// ReferenceKind identifies what a price rule reference points at
type ReferenceKind string

const (
	KindProduct    ReferenceKind = "product"
	KindVariant    ReferenceKind = "variant"
	KindCollection ReferenceKind = "collection"
	// KindDiscount references carry their SKUs directly (discount-code targets)
	KindDiscount ReferenceKind = "discount"
)

// SKULookup is the external collaborator that resolves platform object ids
// to member SKUs. Implemented against the Shopify Admin API.
type SKULookup interface {
	// ProductSKUs returns the SKUs of all variants of the given products
	ProductSKUs(ctx context.Context, productIDs []int64) ([]string, error)

	// VariantSKUs returns the SKU of each given variant
	VariantSKUs(ctx context.Context, variantIDs []int64) ([]string, error)

	// CollectionSKUs returns the SKUs of all products in the given collections
	CollectionSKUs(ctx context.Context, collectionIDs []int64) ([]string, error)
}

// Resolver flattens price rule references into SKU groups
type Resolver struct {
	lookup SKULookup
}

// NewResolver creates a resolver backed by the given lookup collaborator
func NewResolver(lookup SKULookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve flattens a reference list to SKUs. Fails with ErrResolutionFailed
// when the reference kind is unknown or the lookup yields zero SKUs: a named
// reference that resolves to nothing would silently build an empty group.
func (r *Resolver) Resolve(ctx context.Context, kind ReferenceKind, ids []int64, directSKUs []string) ([]string, error) {
	var (
		skus []string
		err  error
	)
	switch kind {
	case KindProduct:
		skus, err = r.lookup.ProductSKUs(ctx, ids)
	case KindVariant:
		skus, err = r.lookup.VariantSKUs(ctx, ids)
	case KindCollection:
		skus, err = r.lookup.CollectionSKUs(ctx, ids)
	case KindDiscount:
		skus = directSKUs
	default:
		return nil, fmt.Errorf("%w: unknown reference kind %q", shared.ErrResolutionFailed, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s lookup: %v", shared.ErrResolutionFailed, kind, err)
	}

	usable := make([]string, 0, len(skus))
	for _, sku := range skus {
		if sku != "" {
			usable = append(usable, sku)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: %s reference resolved to zero SKUs", shared.ErrResolutionFailed, kind)
	}
	return usable, nil
}

// BuildGroup constructs a SKU group from resolved SKUs. Entries with empty
// SKUs are skipped; a group left with zero usable entries is an error unless
// allowEmpty is set (the basket-level "all" group carries no SKUs).
func BuildGroup(name string, role promotion.GroupRole, skus []string, minimum decimal.Decimal, allowEmpty bool) (promotion.Group, error) {
	group := promotion.Group{
		Name:          name,
		Role:          role,
		QtyOrValueMin: minimum,
		Nodes:         make([]promotion.Node, 0, len(skus)),
	}
	for _, sku := range skus {
		if sku == "" {
			continue
		}
		group.Nodes = append(group.Nodes, promotion.ItemNode(sku))
	}
	if len(group.Nodes) == 0 && !allowEmpty {
		return promotion.Group{}, fmt.Errorf("%w: group %q has no resolvable SKUs", shared.ErrResolutionFailed, name)
	}
	return group, nil
}
