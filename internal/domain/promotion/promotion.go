package promotion

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical MishiPay promotion model. A promotion is one of three family
// shapes, discriminated by Family; the classifier derives the family from
// price rule fields, it is never stored redundantly on the source side.

// Family is the promotion family tag
type Family string

const (
	// FamilyEasy is a flat discount on an entitled SKU group
	FamilyEasy Family = "e"
	// FamilyBasketThreshold is a subtotal/quantity-triggered whole-basket discount
	FamilyBasketThreshold Family = "b"
	// FamilyBXGY is a requisite-group plus discounted-target-group promotion
	FamilyBXGY Family = "r"
)

// DiscountType is the discount magnitude kind
type DiscountType string

const (
	DiscountPercentOff DiscountType = "percent_off"
	DiscountValueOff   DiscountType = "value_off"
)

// Strategy controls whether the discount applies per matching unit or once
// across the whole matched set
type Strategy string

const (
	StrategyAllItems Strategy = "all_items"
	StrategyEachItem Strategy = "each_item"
)

// SelectionCriteria picks which items in a group receive the discount
type SelectionCriteria string

const (
	SelectLeastExpensive SelectionCriteria = "least_expensive"
	SelectMostExpensive  SelectionCriteria = "most_expensive"
)

// Availability controls who can redeem the promotion
type Availability string

const (
	AvailabilityAll     Availability = "all"
	AvailabilitySpecial Availability = "special"
)

// DiscountOn is the price base the discount applies to
type DiscountOn string

const (
	DiscountOnFinalPrice DiscountOn = "fp"
	DiscountOnMRP        DiscountOn = "mrp"
)

// ApplyType scopes the discount application
type ApplyType string

const (
	ApplyTypeBasket ApplyType = "basket"
)

// MaxApplicationUnlimited is the application cap meaning "no limit"
const MaxApplicationUnlimited = 65535

// ---------------------------------------------------------------------------
// Groups and nodes
// ---------------------------------------------------------------------------

// GroupRole tags what a SKU group means inside its promotion
type GroupRole string

const (
	RoleEntitled     GroupRole = "entitled"
	RoleAll          GroupRole = "all"
	RolePrerequisite GroupRole = "prerequisite"
	RoleTarget       GroupRole = "target"
)

// NodeType discriminates group node shapes. Item and all nodes identify what
// the group matches; discount nodes on a target group say how the matched
// items are discounted, and each discount kind has its own shape.
type NodeType string

const (
	NodeItem NodeType = "item"
	NodeAll  NodeType = "all"
	// NodePercentDiscount carries a percentage in Value
	NodePercentDiscount NodeType = "percent_discount"
	// NodeValueDiscount carries a fixed amount in Value
	NodeValueDiscount NodeType = "value_discount"
	// NodeFreeItem is 100%-off; it carries no Value
	NodeFreeItem NodeType = "free_item"
)

// Node is one entry in a SKU group
type Node struct {
	NodeType NodeType         `json:"node_type"`
	NodeID   string           `json:"node_id,omitempty"`
	Value    *decimal.Decimal `json:"value,omitempty"`
}

// ItemNode builds a SKU item node
func ItemNode(sku string) Node {
	return Node{NodeType: NodeItem, NodeID: sku}
}

// AllNode matches the whole basket
func AllNode() Node {
	return Node{NodeType: NodeAll, NodeID: "all"}
}

// Group is an ordered list of nodes with a minimum quantity/value trigger
type Group struct {
	Name          string           `json:"name"`
	Role          GroupRole        `json:"role"`
	QtyOrValueMin decimal.Decimal  `json:"qty_or_value_min"`
	QtyOrValueMax *decimal.Decimal `json:"qty_or_value_max"`
	Nodes         []Node           `json:"nodes"`
}

// SKUs returns the item node ids in order
func (g *Group) SKUs() []string {
	skus := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.NodeType == NodeItem {
			skus = append(skus, n.NodeID)
		}
	}
	return skus
}

// ---------------------------------------------------------------------------
// Promotion
// ---------------------------------------------------------------------------

// Promotion is the canonical object handed to the Promotion Service
type Promotion struct {
	PromoID      string       `json:"promo_id"`
	Retailer     string       `json:"retailer"`
	StoreIDs     []string     `json:"stores"`
	Family       Family       `json:"family"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	DateStart    time.Time    `json:"date_start"`
	DateEnd      time.Time    `json:"date_end"`
	IsActive     bool         `json:"is_active"`
	Availability Availability `json:"availability"`

	DiscountType        DiscountType      `json:"discount_type"`
	DiscountValue       decimal.Decimal   `json:"discount_value"`
	DiscountValueOn     DiscountOn        `json:"discount_value_on"`
	DiscountApplyType   ApplyType         `json:"discount_apply_type,omitempty"`
	Strategy            Strategy          `json:"discount_type_strategy"`
	SelectionCriteria   SelectionCriteria `json:"discounted_group_item_selection_criteria"`
	RequisiteCriteria   SelectionCriteria `json:"requisite_groups_item_selection_criteria,omitempty"`
	ApplyOnDiscounted   bool              `json:"apply_on_discounted_items"`
	MaxApplicationLimit int               `json:"max_application_limit"`

	Layer            int `json:"layer"`
	EvaluatePriority int `json:"evaluate_priority"`

	// TargetGroupName names the discounted group for BXGY promotions
	TargetGroupName string `json:"target_discounted_group_name,omitempty"`

	Groups []Group `json:"groups"`
}

// AddStore attaches a store id to the promotion
func (p *Promotion) AddStore(storeID string) {
	p.StoreIDs = append(p.StoreIDs, storeID)
}

// Group returns the group with the given role, or nil
func (p *Promotion) Group(role GroupRole) *Group {
	for i := range p.Groups {
		if p.Groups[i].Role == role {
			return &p.Groups[i]
		}
	}
	return nil
}
