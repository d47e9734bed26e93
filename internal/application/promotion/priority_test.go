package promotion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
)

func TestEvaluatePriority(t *testing.T) {
	t.Run("full percentage discount is top priority", func(t *testing.T) {
		assert.Equal(t, 0, EvaluatePriority(promotion.DiscountPercentOff, decimal.NewFromInt(100)))
		assert.Equal(t, 0, EvaluatePriority(promotion.DiscountPercentOff, decimal.NewFromInt(150)))
	})

	t.Run("percentages rank descending below the full discount", func(t *testing.T) {
		p50 := EvaluatePriority(promotion.DiscountPercentOff, decimal.NewFromInt(50))
		p10 := EvaluatePriority(promotion.DiscountPercentOff, decimal.NewFromInt(10))
		assert.Equal(t, 50, p50)
		assert.Equal(t, 90, p10)
		assert.Less(t, p50, p10)
	})

	t.Run("near-full percentage never collides with the reserved tier", func(t *testing.T) {
		assert.Equal(t, 1, EvaluatePriority(promotion.DiscountPercentOff, decimal.RequireFromString("99.5")))
	})

	t.Run("fixed amounts rank by magnitude", func(t *testing.T) {
		big := EvaluatePriority(promotion.DiscountValueOff, decimal.NewFromInt(100))
		small := EvaluatePriority(promotion.DiscountValueOff, decimal.NewFromInt(5))
		assert.Equal(t, 100, big)
		assert.Equal(t, 2000, small)
		assert.Less(t, big, small)
	})

	t.Run("zero value is floored, not dropped", func(t *testing.T) {
		assert.Equal(t, PriorityFloor, EvaluatePriority(promotion.DiscountPercentOff, decimal.Zero))
		assert.Equal(t, PriorityFloor, EvaluatePriority(promotion.DiscountValueOff, decimal.Zero))
	})

	t.Run("unknown discount type is floored", func(t *testing.T) {
		assert.Equal(t, PriorityFloor, EvaluatePriority(promotion.DiscountType("bogus"), decimal.NewFromInt(10)))
	})
}

func TestExtractMinimum(t *testing.T) {
	pct := decimal.NewFromInt(15)
	qty := 3
	amount := decimal.RequireFromString("50.00")

	t.Run("percentage wins over quantity and amount", func(t *testing.T) {
		minimum, ok := ExtractMinimum(Trigger{Percentage: &pct, Quantity: &qty, Amount: &amount})
		assert.True(t, ok)
		assert.True(t, minimum.Equal(pct))
	})

	t.Run("quantity wins over amount", func(t *testing.T) {
		minimum, ok := ExtractMinimum(Trigger{Quantity: &qty, Amount: &amount})
		assert.True(t, ok)
		assert.True(t, minimum.Equal(decimal.NewFromInt(3)))
	})

	t.Run("amount alone", func(t *testing.T) {
		minimum, ok := ExtractMinimum(Trigger{Amount: &amount})
		assert.True(t, ok)
		assert.True(t, minimum.Equal(amount))
	})

	t.Run("empty trigger yields the no-minimum sentinel", func(t *testing.T) {
		minimum, ok := ExtractMinimum(Trigger{})
		assert.False(t, ok)
		assert.True(t, minimum.IsZero())
	})
}
