package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable item tracked in stock.
type Product struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	CategoryID      *int64          `json:"category_id,omitempty"`
	SupplierID      *int64          `json:"supplier_id,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	ReorderLevel    int64           `json:"reorder_level"`
	ReorderQuantity int64           `json:"reorder_quantity"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	Barcode         string          `json:"barcode"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
