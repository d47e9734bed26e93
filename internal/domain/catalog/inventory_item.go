package catalog

import "github.com/shopspring/decimal"

// OperationUpsert is the only operation kind the Inventory Service import
// accepts from this bridge; deletes are expressed as zero-stock upserts.
const OperationUpsert = "upsert"

// InventoryItem is the canonical per-variant item sent to the Inventory
// Service. Every variant of a multi-variant product yields exactly one item;
// a single "Default Title" variant yields one item named after the product.
type InventoryItem struct {
	Operation         string           `json:"operation"`
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	RetailerProductID string           `json:"retailerProductId"`
	Barcodes          []string         `json:"barcodes"`
	Images            []string         `json:"images"`
	StockLevel        int              `json:"stockLevel"`
	BasePrice         decimal.Decimal  `json:"basePrice"`
	Categories        []Category       `json:"categories"`
	Theme             string           `json:"theme"`
	Size              string           `json:"size,omitempty"`
	Colour            string           `json:"colour,omitempty"`
	PricingGuidance   *PricingGuidance `json:"pricingGuidance,omitempty"`
	BuyingGuidance    map[string]any   `json:"buyingGuidance,omitempty"`
}

// Category is an inventory category node
type Category struct {
	Name   string  `json:"name"`
	Image  string  `json:"image"`
	Parent *string `json:"parent"`
}

// PricingGuidance is the tax-inclusive/exclusive price breakdown computed
// from the tenant's tax mapping.
type PricingGuidance struct {
	TaxCode       string          `json:"taxCode"`
	VATPercentage decimal.Decimal `json:"vatPercentage"`
	IncludingVAT  decimal.Decimal `json:"includingVat"`
	ExcludingVAT  decimal.Decimal `json:"excludingVat"`
}

// ThemeInvariant is the theme tag for items with no classification axis
const ThemeInvariant = "invariant"
