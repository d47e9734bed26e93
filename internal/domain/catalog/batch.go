package catalog

// InventoryBatch is the Inventory Service import payload: an ordered batch
// of canonical items for one store.
type InventoryBatch struct {
	StoreID    string          `json:"storeId"`
	RetailerID string          `json:"retailerId"`
	Categories []Category      `json:"categories"`
	Items      []InventoryItem `json:"items"`
	// PerformInserts is false for stock-only updates: unknown barcodes must
	// not create new catalog entries.
	PerformInserts bool `json:"performInserts"`
}

// ExistingVariant is a variant already known to the Inventory Service,
// looked up when a deleted product's items must be zero-stocked.
type ExistingVariant struct {
	Barcodes []string `json:"barcodes"`
}
