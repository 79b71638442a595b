package products

import "github.com/shopspring/decimal"

// ProductPayload is the request body for create and update.
type ProductPayload struct {
	SKU             string          `json:"sku" validate:"required"`
	Name            string          `json:"name" validate:"required"`
	CategoryID      *int64          `json:"category_id"`
	SupplierID      *int64          `json:"supplier_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	ReorderLevel    int64           `json:"reorder_level" validate:"gte=0"`
	ReorderQuantity int64           `json:"reorder_quantity" validate:"gte=0"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	Barcode         string          `json:"barcode"`
	IsActive        *bool           `json:"is_active"`
}

func (p ProductPayload) model() Product {
	product := Product{
		SKU:             p.SKU,
		Name:            p.Name,
		CategoryID:      p.CategoryID,
		SupplierID:      p.SupplierID,
		UnitPrice:       p.UnitPrice.Round(2),
		CostPrice:       p.CostPrice.Round(2),
		ReorderLevel:    p.ReorderLevel,
		ReorderQuantity: p.ReorderQuantity,
		UnitOfMeasure:   p.UnitOfMeasure,
		Barcode:         p.Barcode,
		IsActive:        true,
	}
	if p.IsActive != nil {
		product.IsActive = *p.IsActive
	}
	return product
}
