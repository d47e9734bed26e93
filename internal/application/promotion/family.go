package promotion

import (
	"github.com/mishipay/shopify-bridge/internal/domain/promotion"
)

// Classify derives the promotion family from a price rule's targeting
// fields. The family is a pure function of the rule, never stored on it.
//
// Returns false when the rule is not mappable at all: shipping-line rules
// and unrecognized targeting are a deliberate no-op, the caller must not
// invoke any family builder for them.
func Classify(rule *promotion.PriceRule) (promotion.Family, bool) {
	if rule.TargetType != promotion.TargetTypeLineItem {
		return "", false
	}
	switch rule.TargetSelection {
	case promotion.TargetSelectionAll:
		return promotion.FamilyBasketThreshold, true
	case promotion.TargetSelectionEntitled:
		if rule.PrerequisiteToEntitlementQuantityRatio != nil {
			return promotion.FamilyBXGY, true
		}
		return promotion.FamilyEasy, true
	}
	return "", false
}
