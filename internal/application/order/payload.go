package order

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// NoteAttribute is an order-level name/value annotation
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineProperty is a per-line-item name/value annotation
type LineProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is one outbound order line
type LineItem struct {
	VariantID  int64          `json:"variant_id,omitempty"`
	Title      string         `json:"title,omitempty"`
	Quantity   int            `json:"quantity"`
	Price      string         `json:"price,omitempty"`
	Properties []LineProperty `json:"properties,omitempty"`
}

// Body is the order object posted to the platform
type Body struct {
	LineItems      []LineItem      `json:"line_items"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	FinancialState string          `json:"financial_status,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	TotalPrice     string          `json:"total_price,omitempty"`
	NoteAttributes []NoteAttribute `json:"note_attributes,omitempty"`
}

// Payload wraps the body under the platform's envelope key
type Payload struct {
	Order Body `json:"order"`
}

// LineAudit is the checkout-side record for one basket line, used to enrich
// the outbound line item with traceability properties.
type LineAudit struct {
	// Barcodes as recorded at scan time; the first one wins
	Barcodes []string
	// FallbackIdentifier stands in when no barcode was recorded
	FallbackIdentifier string
	// ModifiedValue is the line price after in-basket adjustments, if any
	ModifiedValue *decimal.Decimal
	// AppliedPromos is the promotion detail attached at checkout, serialized
	// verbatim into the promo_info property
	AppliedPromos any
}

// Fulfilment carries the checkout-side identifiers for one order
type Fulfilment struct {
	OrderID string
	// POSLogTransactionID is optional; omitted when empty
	POSLogTransactionID string
	Lines               []LineAudit
}

// Enhance annotates an outbound order payload with traceability fields:
// order-level note attributes carrying the internal order id and POS log
// transaction id, plus per-line barcode, modified value and promo detail
// properties. Lines beyond the audit trail length pass through untouched.
func Enhance(payload *Payload, f Fulfilment) {
	attrs := []NoteAttribute{{Name: "mishipay_order_id", Value: f.OrderID}}
	if f.POSLogTransactionID != "" {
		attrs = append(attrs, NoteAttribute{Name: "poslog_transaction_id", Value: f.POSLogTransactionID})
	}
	payload.Order.NoteAttributes = attrs

	for i := range f.Lines {
		if i >= len(payload.Order.LineItems) {
			break
		}
		audit := &f.Lines[i]
		line := &payload.Order.LineItems[i]

		if barcode := audit.barcode(); barcode != "" {
			line.Properties = append(line.Properties, LineProperty{Name: "barcode", Value: barcode})
		}
		if audit.ModifiedValue != nil {
			line.Properties = append(line.Properties, LineProperty{
				Name:  "modified_monetary_value",
				Value: audit.ModifiedValue.String(),
			})
		}
		if audit.AppliedPromos != nil {
			if encoded, err := json.Marshal(audit.AppliedPromos); err == nil {
				line.Properties = append(line.Properties, LineProperty{
					Name:  "promo_info",
					Value: string(encoded),
				})
			}
		}
	}
}

func (a *LineAudit) barcode() string {
	if len(a.Barcodes) > 0 && a.Barcodes[0] != "" {
		return a.Barcodes[0]
	}
	return a.FallbackIdentifier
}

// Result is the standardised outcome of an order creation call
type Result struct {
	// OrderPosted is true when the platform created the order
	OrderPosted bool
	// EmailReceiptSent is true when the platform confirmed the order;
	// whether a mail actually goes out depends on store settings
	EmailReceiptSent bool
	// Error is empty on success
	Error string
	// Raw is the full parsed response body
	Raw map[string]any
}

const maxRawErrorLen = 2000

// ParseResponse interprets an order creation response body. Unparseable
// bodies become the error string, truncated; an errors key wins over any
// order object.
func ParseResponse(body []byte) Result {
	var result Result

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		msg := string(body)
		if len(msg) > maxRawErrorLen {
			msg = msg[:maxRawErrorLen]
		}
		result.Error = msg
		return result
	}
	result.Raw = data

	if errs, ok := data["errors"]; ok {
		switch v := errs.(type) {
		case map[string]any:
			encoded, _ := json.Marshal(v)
			result.Error = string(encoded)
		case string:
			result.Error = v
		default:
			encoded, _ := json.Marshal(v)
			result.Error = string(encoded)
		}
		return result
	}

	if orderData, ok := data["order"].(map[string]any); ok {
		result.OrderPosted = true
		confirmed, _ := orderData["confirmed"].(bool)
		result.EmailReceiptSent = confirmed
	}
	return result
}
