package promotion

// Batch operations mirror the Promotion Service's transactional API:
// a price rule update is expressed as delete-then-create in one batch.

// OperationKind is a batch entry kind
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationDelete OperationKind = "delete"
)

// Operation is one entry in a promotion batch
type Operation struct {
	Kind OperationKind `json:"kind"`
	// Promotion is the full object for creates; deletes only carry PromoID
	Promotion *Promotion `json:"promotion,omitempty"`
	PromoID   string     `json:"promo_id,omitempty"`
	StoreID   string     `json:"store_id,omitempty"`
}

// Batch is a transactional set of promotion operations for one retailer
type Batch struct {
	Retailer   string      `json:"retailer"`
	Operations []Operation `json:"operations"`
}

// NewBatch creates an empty batch for a retailer
func NewBatch(retailer string) *Batch {
	return &Batch{Retailer: retailer}
}

// Create appends a create operation
func (b *Batch) Create(promo *Promotion) {
	b.Operations = append(b.Operations, Operation{Kind: OperationCreate, Promotion: promo})
}

// Delete appends a delete-by-id operation scoped to a store
func (b *Batch) Delete(promoID, storeID string) {
	b.Operations = append(b.Operations, Operation{Kind: OperationDelete, PromoID: promoID, StoreID: storeID})
}

// Empty reports whether the batch holds no operations
func (b *Batch) Empty() bool {
	return len(b.Operations) == 0
}
