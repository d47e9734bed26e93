package promotion

// Shopify price rule webhook payload (Admin REST representation).

// PriceRule is a price_rules/create|update webhook payload
type PriceRule struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	ValueType       string `json:"value_type"` // "percentage" or "fixed_amount"
	Value           string `json:"value"`      // negative decimal string, e.g. "-10.0"
	TargetType      string `json:"target_type"`
	TargetSelection string `json:"target_selection"`
	AllocationMethod string `json:"allocation_method"` // "each" or "across"
	OncePerCustomer bool   `json:"once_per_customer"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`

	EntitledProductIDs    []int64 `json:"entitled_product_ids"`
	EntitledVariantIDs    []int64 `json:"entitled_variant_ids"`
	EntitledCollectionIDs []int64 `json:"entitled_collection_ids"`

	PrerequisiteProductIDs    []int64 `json:"prerequisite_product_ids"`
	PrerequisiteVariantIDs    []int64 `json:"prerequisite_variant_ids"`
	PrerequisiteCollectionIDs []int64 `json:"prerequisite_collection_ids"`

	PrerequisiteSubtotalRange *SubtotalRange `json:"prerequisite_subtotal_range"`
	PrerequisiteQuantityRange *QuantityRange `json:"prerequisite_quantity_range"`

	// PrerequisiteToEntitlementQuantityRatio marks a buy-X-get-Y rule
	PrerequisiteToEntitlementQuantityRatio *QuantityRatio `json:"prerequisite_to_entitlement_quantity_ratio"`
}

// SubtotalRange is a minimum-spend trigger
type SubtotalRange struct {
	GreaterThanOrEqualTo string `json:"greater_than_or_equal_to"`
}

// QuantityRange is a minimum-quantity trigger
type QuantityRange struct {
	GreaterThanOrEqualTo int `json:"greater_than_or_equal_to"`
}

// QuantityRatio is the buy-X-get-Y quantity pairing
type QuantityRatio struct {
	PrerequisiteQuantity int `json:"prerequisite_quantity"`
	EntitledQuantity     int `json:"entitled_quantity"`
}

// Price rule field values the classifier reads
const (
	TargetTypeLineItem     = "line_item"
	TargetTypeShippingLine = "shipping_line"

	TargetSelectionAll      = "all"
	TargetSelectionEntitled = "entitled"

	ValueTypePercentage  = "percentage"
	ValueTypeFixedAmount = "fixed_amount"

	AllocationEach   = "each"
	AllocationAcross = "across"
)

// DeletePayload is a price_rules/delete webhook payload
type DeletePayload struct {
	ID int64 `json:"id"`
}

// CollectionUpdatePayload is a collections/update webhook payload
type CollectionUpdatePayload struct {
	ID int64 `json:"id"`
}

// ReferencesCollection reports whether the rule entitles or requires the
// given collection, used to find promotions affected by a collection change.
func (r *PriceRule) ReferencesCollection(collectionID int64) bool {
	for _, id := range r.EntitledCollectionIDs {
		if id == collectionID {
			return true
		}
	}
	for _, id := range r.PrerequisiteCollectionIDs {
		if id == collectionID {
			return true
		}
	}
	return false
}
