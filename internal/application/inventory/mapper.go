package inventory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mishipay/shopify-bridge/internal/domain/catalog"
	"github.com/mishipay/shopify-bridge/internal/domain/tenant"
)

// MapProduct maps a Shopify product payload to canonical inventory items.
// Pure: same product and config always yield structurally identical output.
//
// Each variant becomes one item. Inactive products and products with no
// variants map to an empty slice, never an error.
func MapProduct(product *catalog.Product, cfg *tenant.Config) []catalog.InventoryItem {
	if !product.IsActive() {
		return []catalog.InventoryItem{}
	}

	productID := strconv.FormatInt(product.ID, 10)
	description := StripHTML(product.BodyHTML)
	categories := buildCategories(product)
	theme := determineTheme(product, cfg)
	guidance := cfg.BuyingGuidance()

	items := make([]catalog.InventoryItem, 0, len(product.Variants))
	for i := range product.Variants {
		variant := &product.Variants[i]

		item := catalog.InventoryItem{
			Operation:         catalog.OperationUpsert,
			Name:              variantName(product, variant),
			Description:       description,
			RetailerProductID: productID,
			Barcodes:          []string{VariantBarcode(product, variant)},
			Images:            variantImages(variant, product.Images),
			StockLevel:        variant.InventoryQuantity,
			BasePrice:         parsePrice(variant.Price),
			Categories:        categories,
			Theme:             theme,
			BuyingGuidance:    guidance,
		}

		item.Size = product.OptionValue(variant, "Size")
		if colour := product.OptionValue(variant, "Color"); colour != "" {
			item.Colour = colour
		} else {
			item.Colour = product.OptionValue(variant, "Colour")
		}

		if tm, ok := cfg.TaxMapping(); ok {
			item.PricingGuidance = buildPricingGuidance(item.BasePrice, tm)
		}

		items = append(items, item)
	}
	return items
}

// ZeroStock returns a copy of the items with every stock level forced to
// zero. products/delete maps to a soft delete: the catalog entry stays,
// nothing can be sold.
func ZeroStock(items []catalog.InventoryItem) []catalog.InventoryItem {
	zeroed := make([]catalog.InventoryItem, len(items))
	for i, item := range items {
		item.StockLevel = 0
		zeroed[i] = item
	}
	return zeroed
}

// ---------------------------------------------------------------------------
// Field resolution helpers
// ---------------------------------------------------------------------------

// VariantBarcode resolves a variant's barcode using the fallback chain:
// explicit barcode, then SKU, then the variant id, then the product id when
// even the variant id is missing.
func VariantBarcode(product *catalog.Product, variant *catalog.Variant) string {
	if variant.Barcode != "" {
		return variant.Barcode
	}
	if variant.SKU != "" {
		return variant.SKU
	}
	if variant.ID != 0 {
		return strconv.FormatInt(variant.ID, 10)
	}
	return strconv.FormatInt(product.ID, 10)
}

// variantName builds the item name. Multi-variant products append the
// variant title; the synthetic "Default Title" variant gets the product
// title alone.
func variantName(product *catalog.Product, variant *catalog.Variant) string {
	if variant.Title != "" && variant.Title != catalog.DefaultVariantTitle {
		return product.Title + " - " + variant.Title
	}
	return product.Title
}

// variantImages picks the variant-specific images, falling back to the
// first product image. Entries with empty source URLs are skipped.
func variantImages(variant *catalog.Variant, productImages []catalog.Image) []string {
	images := make([]string, 0, 1)
	for _, img := range productImages {
		if img.Src == "" {
			continue
		}
		for _, id := range img.VariantIDs {
			if id == variant.ID && variant.ID != 0 {
				images = append(images, img.Src)
				break
			}
		}
	}
	if len(images) == 0 {
		for _, img := range productImages {
			if img.Src != "" {
				images = append(images, img.Src)
				break
			}
		}
	}
	return images
}

func buildCategories(product *catalog.Product) []catalog.Category {
	categories := []catalog.Category{}
	if product.ProductType != "" {
		categories = append(categories, catalog.Category{Name: product.ProductType})
	}
	return categories
}

// themeAxes are the option names recognized as item classification axes
var themeAxes = []string{"Size", "Colour", "Color", "Style", "Material"}

// determineTheme picks the classification axis for the product's items.
// Tenant override wins; products without meaningful options (Shopify models
// "no options" as a single option named "Title") are invariant.
func determineTheme(product *catalog.Product, cfg *tenant.Config) string {
	if cfg.ThemeInvariant() {
		return catalog.ThemeInvariant
	}
	if len(product.Options) == 0 {
		return catalog.ThemeInvariant
	}
	if len(product.Options) == 1 && product.Options[0].Name == "Title" {
		return catalog.ThemeInvariant
	}
	for _, opt := range product.Options {
		for _, axis := range themeAxes {
			if strings.EqualFold(opt.Name, axis) {
				return opt.Name
			}
		}
	}
	return catalog.ThemeInvariant
}

// buildPricingGuidance computes the tax-inclusive/exclusive breakdown from
// the variant price and the configured VAT rules.
func buildPricingGuidance(basePrice decimal.Decimal, tm tenant.TaxMapping) *catalog.PricingGuidance {
	hundred := decimal.NewFromInt(100)
	factor := decimal.NewFromInt(1).Add(tm.VATPercentage.Div(hundred))

	guidance := &catalog.PricingGuidance{
		TaxCode:       tm.TaxCode,
		VATPercentage: tm.VATPercentage,
	}
	if tm.TaxInclusive {
		guidance.IncludingVAT = basePrice
		guidance.ExcludingVAT = basePrice.DivRound(factor, 2)
	} else {
		guidance.ExcludingVAT = basePrice
		guidance.IncludingVAT = basePrice.Mul(factor).Round(2)
	}
	return guidance
}

func parsePrice(price string) decimal.Decimal {
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// ---------------------------------------------------------------------------
// HTML stripping
// ---------------------------------------------------------------------------

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup from a description and collapses whitespace.
// An absent value yields an empty string.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	clean := tagPattern.ReplaceAllString(html, "")
	clean = whitespacePattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}
