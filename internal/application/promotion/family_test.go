package promotion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
)

func TestClassify(t *testing.T) {
	t.Run("shipping line rules are not mappable", func(t *testing.T) {
		_, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeShippingLine,
			TargetSelection: promotion.TargetSelectionAll,
		})
		assert.False(t, ok)
	})

	t.Run("all selection is basket threshold", func(t *testing.T) {
		family, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeLineItem,
			TargetSelection: promotion.TargetSelectionAll,
		})
		assert.True(t, ok)
		assert.Equal(t, promotion.FamilyBasketThreshold, family)
	})

	t.Run("entitled selection is easy", func(t *testing.T) {
		family, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeLineItem,
			TargetSelection: promotion.TargetSelectionEntitled,
		})
		assert.True(t, ok)
		assert.Equal(t, promotion.FamilyEasy, family)
	})

	t.Run("quantity ratio promotes entitled to BXGY", func(t *testing.T) {
		family, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeLineItem,
			TargetSelection: promotion.TargetSelectionEntitled,
			PrerequisiteToEntitlementQuantityRatio: &promotion.QuantityRatio{
				PrerequisiteQuantity: 2,
				EntitledQuantity:     1,
			},
		})
		assert.True(t, ok)
		assert.Equal(t, promotion.FamilyBXGY, family)
	})

	t.Run("quantity ratio on an all selection stays basket threshold", func(t *testing.T) {
		family, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeLineItem,
			TargetSelection: promotion.TargetSelectionAll,
			PrerequisiteToEntitlementQuantityRatio: &promotion.QuantityRatio{
				PrerequisiteQuantity: 2,
				EntitledQuantity:     1,
			},
		})
		assert.True(t, ok)
		assert.Equal(t, promotion.FamilyBasketThreshold, family)
	})

	t.Run("unknown selections are not mappable", func(t *testing.T) {
		_, ok := Classify(&promotion.PriceRule{
			TargetType:      promotion.TargetTypeLineItem,
			TargetSelection: "explicit",
		})
		assert.False(t, ok)
	})
}
