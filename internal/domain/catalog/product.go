package catalog

import "strings"

// Shopify product webhook payload types (Admin REST representation).
// Only the fields the mapping rules read are modeled; unknown fields are
// ignored during decoding.

// Product is a products/create|update webhook payload
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html"`
	ProductType string    `json:"product_type"`
	Status      string    `json:"status"`
	Options     []Option  `json:"options"`
	Images      []Image   `json:"images"`
	Variants    []Variant `json:"variants"`
}

// Option describes a product option axis, e.g. {Name: "Size", Position: 1}
type Option struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Image is a product image, optionally bound to specific variants
type Image struct {
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
}

// Variant is a purchasable product variant
type Variant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Barcode           string `json:"barcode"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	Option1           string `json:"option1"`
	Option2           string `json:"option2"`
	Option3           string `json:"option3"`
}

// DefaultVariantTitle is Shopify's synthetic title for a product with no
// options. A single variant carrying it means "the product itself".
const DefaultVariantTitle = "Default Title"

// IsActive reports whether the product should be synced at all
func (p *Product) IsActive() bool {
	return p.Status == "active"
}

// OptionValue returns the variant's value for a named option axis, using the
// product's options array to map the name to option1/2/3. Empty when the
// product has no such axis.
func (p *Product) OptionValue(v *Variant, name string) string {
	for _, opt := range p.Options {
		if !strings.EqualFold(opt.Name, name) {
			continue
		}
		switch opt.Position {
		case 2:
			return v.Option2
		case 3:
			return v.Option3
		default:
			return v.Option1
		}
	}
	return ""
}

// DeletePayload is a products/delete webhook payload: only the id survives
type DeletePayload struct {
	ID int64 `json:"id"`
}

// InventoryLevel is an inventory_levels/update webhook payload.
// Available is a pointer: null means inventory tracking is disabled and the
// update must be skipped rather than treated as zero.
type InventoryLevel struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	LocationID      int64  `json:"location_id"`
	Available       *int   `json:"available"`
	UpdatedAt       string `json:"updated_at"`
}
