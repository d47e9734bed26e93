package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
)

// PriorityFloor ranks a promotion last without discarding it. Used for
// zero-value discounts and anything whose priority cannot be computed.
const PriorityFloor = 32767

var (
	hundred     = decimal.NewFromInt(100)
	tenThousand = decimal.NewFromInt(10000)
)

// EvaluatePriority ranks promotions for the evaluation engine: lower is
// evaluated first, so a better discount gets a smaller number.
//
// Percentage discounts rank by percentage descending. 100%-off is its own
// top tier: priority 0 is reserved for it, every lesser percentage lands at
// 1 or above. Fixed-amount discounts rank by magnitude. A zero discount is
// kept but ranked at the floor.
func EvaluatePriority(discountType promotion.DiscountType, value decimal.Decimal) int {
	if value.IsZero() {
		return PriorityFloor
	}
	switch discountType {
	case promotion.DiscountPercentOff:
		if value.GreaterThanOrEqual(hundred) {
			return 0
		}
		priority := 100 - int(value.IntPart())
		if priority < 1 {
			priority = 1
		}
		return priority
	case promotion.DiscountValueOff:
		return int(tenThousand.Div(value).IntPart())
	}
	return PriorityFloor
}

// Trigger is a promotion minimum-quantity source. A price rule expresses its
// trigger as at most one of a percentage, a quantity, or a spend amount.
type Trigger struct {
	Percentage *decimal.Decimal
	Quantity   *int
	Amount     *decimal.Decimal
}

// ExtractMinimum reads the trigger fields in precedence order: percentage,
// then quantity, then amount. An empty or unrecognized trigger yields the
// "no minimum" sentinel (zero, false) instead of failing; callers whose
// family requires a minimum enforce that themselves.
func ExtractMinimum(t Trigger) (decimal.Decimal, bool) {
	if t.Percentage != nil {
		return *t.Percentage, true
	}
	if t.Quantity != nil {
		return decimal.NewFromInt(int64(*t.Quantity)), true
	}
	if t.Amount != nil {
		return *t.Amount, true
	}
	return decimal.Zero, false
}
