package promotion

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
	"github.com/mishipay/shopify-bridge/internal/domain/shared"
)

// fakeLookup is a canned SKULookup for mapper and resolver tests
type fakeLookup struct {
	productSKUs    map[int64][]string
	variantSKUs    map[int64]string
	collectionSKUs map[int64][]string
	err            error
}

func (f *fakeLookup) ProductSKUs(ctx context.Context, productIDs []int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var skus []string
	for _, id := range productIDs {
		skus = append(skus, f.productSKUs[id]...)
	}
	return skus, nil
}

func (f *fakeLookup) VariantSKUs(ctx context.Context, variantIDs []int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var skus []string
	for _, id := range variantIDs {
		skus = append(skus, f.variantSKUs[id])
	}
	return skus, nil
}

func (f *fakeLookup) CollectionSKUs(ctx context.Context, collectionIDs []int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var skus []string
	for _, id := range collectionIDs {
		skus = append(skus, f.collectionSKUs[id]...)
	}
	return skus, nil
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	lookup := &fakeLookup{
		productSKUs:    map[int64][]string{10: {"P10-A", "P10-B"}, 11: {"P11-A"}},
		variantSKUs:    map[int64]string{20: "V20", 21: ""},
		collectionSKUs: map[int64][]string{30: {"C30-A"}},
	}
	resolver := NewResolver(lookup)

	t.Run("product references flatten to all variant SKUs", func(t *testing.T) {
		skus, err := resolver.Resolve(ctx, KindProduct, []int64{10, 11}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"P10-A", "P10-B", "P11-A"}, skus)
	})

	t.Run("empty SKUs are filtered out", func(t *testing.T) {
		skus, err := resolver.Resolve(ctx, KindVariant, []int64{20, 21}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"V20"}, skus)
	})

	t.Run("collection references resolve members", func(t *testing.T) {
		skus, err := resolver.Resolve(ctx, KindCollection, []int64{30}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"C30-A"}, skus)
	})

	t.Run("discount references carry their SKUs directly", func(t *testing.T) {
		skus, err := resolver.Resolve(ctx, KindDiscount, nil, []string{"D1", "", "D2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"D1", "D2"}, skus)
	})

	t.Run("zero resolved SKUs is a failure", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, KindProduct, []int64{999}, nil)
		assert.ErrorIs(t, err, shared.ErrResolutionFailed)
	})

	t.Run("lookup failure wraps the resolution error", func(t *testing.T) {
		failing := NewResolver(&fakeLookup{err: errors.New("api down")})
		_, err := failing.Resolve(ctx, KindProduct, []int64{10}, nil)
		assert.ErrorIs(t, err, shared.ErrResolutionFailed)
		assert.Contains(t, err.Error(), "api down")
	})

	t.Run("unknown reference kind fails", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, ReferenceKind("gift_card"), []int64{1}, nil)
		assert.ErrorIs(t, err, shared.ErrResolutionFailed)
	})
}

func TestBuildGroup(t *testing.T) {
	one := decimal.NewFromInt(1)

	t.Run("builds ordered item nodes", func(t *testing.T) {
		group, err := BuildGroup("g1", promotion.RoleEntitled, []string{"A", "B"}, one, false)
		require.NoError(t, err)
		assert.Equal(t, "g1", group.Name)
		assert.Equal(t, promotion.RoleEntitled, group.Role)
		assert.True(t, group.QtyOrValueMin.Equal(one))
		assert.Equal(t, []string{"A", "B"}, group.SKUs())
	})

	t.Run("skips empty SKUs", func(t *testing.T) {
		group, err := BuildGroup("g1", promotion.RoleEntitled, []string{"A", "", "B"}, one, false)
		require.NoError(t, err)
		assert.Len(t, group.Nodes, 2)
	})

	t.Run("empty group is an error unless allowed", func(t *testing.T) {
		_, err := BuildGroup("g1", promotion.RoleEntitled, nil, one, false)
		assert.ErrorIs(t, err, shared.ErrResolutionFailed)

		group, err := BuildGroup("all", promotion.RoleAll, nil, one, true)
		require.NoError(t, err)
		assert.Empty(t, group.Nodes)
	})
}
