package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// POStatus is the purchase order lifecycle state.
type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusPending   POStatus = "PENDING"
	POStatusReceived  POStatus = "RECEIVED"
	POStatusCancelled POStatus = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s POStatus) Valid() bool {
	switch s {
	case POStatusDraft, POStatusPending, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

var (
	// ErrInvalidState indicates a lifecycle transition that is not allowed
	// from the order's current status.
	ErrInvalidState = errors.New("procurement: invalid purchase order state for this operation")
	// ErrNoItems indicates an order without any line items.
	ErrNoItems = errors.New("procurement: purchase order requires at least one item")
)

// PurchaseOrder is the supplier-facing order header. TotalAmount is
// always the sum of the items' total prices, never accepted from callers.
type PurchaseOrder struct {
	ID           int64               `json:"id"`
	PONumber     string              `json:"po_number"`
	SupplierID   int64               `json:"supplier_id"`
	WarehouseID  int64               `json:"warehouse_id"`
	OrderDate    time.Time           `json:"order_date"`
	ExpectedDate *time.Time          `json:"expected_date,omitempty"`
	Status       POStatus            `json:"status"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	Notes        string              `json:"notes,omitempty"`
	CreatedBy    int64               `json:"created_by,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Items        []PurchaseOrderItem `json:"items,omitempty"`
}

// PurchaseOrderItem is one line of an order. TotalPrice is derived from
// QuantityOrdered and UnitPrice on every write.
type PurchaseOrderItem struct {
	ID               int64           `json:"id"`
	PurchaseOrderID  int64           `json:"purchase_order_id"`
	ProductID        int64           `json:"product_id"`
	QuantityOrdered  int64           `json:"quantity_ordered"`
	QuantityReceived int64           `json:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ItemTotal computes a line's total price at two decimal places.
func ItemTotal(quantityOrdered int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantityOrdered)).Round(2)
}

// OrderTotal sums the line totals.
func OrderTotal(items []PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total.Round(2)
}

// Derive refreshes the item's total price from its inputs.
func (i *PurchaseOrderItem) Derive() {
	i.TotalPrice = ItemTotal(i.QuantityOrdered, i.UnitPrice)
}

// canTransition encodes the allowed lifecycle edges. Orders can be
// submitted from draft, cancelled before receipt, and received only
// once, from pending.
func canTransition(from, to POStatus) bool {
	switch to {
	case POStatusPending:
		return from == POStatusDraft
	case POStatusReceived:
		return from == POStatusPending
	case POStatusCancelled:
		return from == POStatusDraft || from == POStatusPending
	}
	return false
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	SupplierID  int64
	WarehouseID int64
	Status      POStatus
	Search      string
	Page        int
	Limit       int
}
