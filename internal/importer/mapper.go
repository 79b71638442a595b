package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
)

// Entity names one of the importable record shapes.
type Entity string

const (
	EntityProduct   Entity = "products"
	EntityCategory  Entity = "categories"
	EntitySupplier  Entity = "suppliers"
	EntityWarehouse Entity = "warehouses"
)

// Valid reports whether the entity is importable.
func (e Entity) Valid() bool {
	switch e {
	case EntityProduct, EntityCategory, EntitySupplier, EntityWarehouse:
		return true
	}
	return false
}

// headerAliases maps loosely-named columns onto canonical field names.
// Exports come both in English and Indonesian, so both sets are accepted.
var headerAliases = map[string]string{
	"kode":             "sku",
	"kode_produk":      "sku",
	"product_code":     "sku",
	"code":             "sku",
	"nama":             "name",
	"nama_produk":      "name",
	"product_name":     "name",
	"deskripsi":        "description",
	"keterangan":       "description",
	"harga":            "unit_price",
	"harga_jual":       "unit_price",
	"price":            "unit_price",
	"selling_price":    "unit_price",
	"harga_beli":       "cost_price",
	"harga_pokok":      "cost_price",
	"cost":             "cost_price",
	"satuan":           "unit_of_measure",
	"unit":             "unit_of_measure",
	"uom":              "unit_of_measure",
	"kategori":         "category_id",
	"category":         "category_id",
	"pemasok":          "supplier_id",
	"supplier":         "supplier_id",
	"stok_minimum":     "reorder_level",
	"min_stock":        "reorder_level",
	"jumlah_pemesanan": "reorder_quantity",
	"reorder_qty":      "reorder_quantity",
	"aktif":            "is_active",
	"active":           "is_active",
	"induk":            "parent_id",
	"parent":           "parent_id",
	"kontak":           "contact_name",
	"contact":          "contact_name",
	"surel":            "email",
	"telepon":          "phone",
	"telp":             "phone",
	"alamat":           "address",
	"lokasi":           "location",
	"kapasitas":        "capacity",
}

// canonical resolves a value by field name, falling back through aliases.
func (r Row) canonical(field string) string {
	if value, ok := r[field]; ok {
		return value
	}
	for alias, target := range headerAliases {
		if target != field {
			continue
		}
		if value, ok := r[alias]; ok {
			return value
		}
	}
	return ""
}

func (r Row) decimalField(field string) (decimal.Decimal, error) {
	raw := r.canonical(field)
	if raw == "" {
		return decimal.Zero, nil
	}
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: not a number: %q", field, raw)
	}
	return value, nil
}

func (r Row) intField(field string) (int64, error) {
	raw := r.canonical(field)
	if raw == "" {
		return 0, nil
	}
	// Spreadsheet cells often carry integers as "10.0".
	raw = strings.TrimSuffix(raw, ".0")
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", field, raw)
	}
	return value, nil
}

func (r Row) optionalID(field string) (*int64, error) {
	value, err := r.intField(field)
	if err != nil {
		return nil, err
	}
	if value == 0 {
		return nil, nil
	}
	return &value, nil
}

func (r Row) boolField(field string, fallback bool) bool {
	raw := strings.ToLower(r.canonical(field))
	switch raw {
	case "":
		return fallback
	case "1", "true", "yes", "ya", "aktif":
		return true
	}
	return false
}

func (r Row) toProduct() (products.Product, error) {
	unitPrice, err := r.decimalField("unit_price")
	if err != nil {
		return products.Product{}, err
	}
	costPrice, err := r.decimalField("cost_price")
	if err != nil {
		return products.Product{}, err
	}
	reorderLevel, err := r.intField("reorder_level")
	if err != nil {
		return products.Product{}, err
	}
	reorderQty, err := r.intField("reorder_quantity")
	if err != nil {
		return products.Product{}, err
	}
	categoryID, err := r.optionalID("category_id")
	if err != nil {
		return products.Product{}, err
	}
	supplierID, err := r.optionalID("supplier_id")
	if err != nil {
		return products.Product{}, err
	}
	return products.Product{
		SKU:             r.canonical("sku"),
		Name:            r.canonical("name"),
		CategoryID:      categoryID,
		SupplierID:      supplierID,
		UnitPrice:       unitPrice.Round(2),
		CostPrice:       costPrice.Round(2),
		ReorderLevel:    reorderLevel,
		ReorderQuantity: reorderQty,
		UnitOfMeasure:   r.canonical("unit_of_measure"),
		Barcode:         r.canonical("barcode"),
		IsActive:        r.boolField("is_active", true),
	}, nil
}

func (r Row) toCategory() (categories.Category, error) {
	parentID, err := r.optionalID("parent_id")
	if err != nil {
		return categories.Category{}, err
	}
	return categories.Category{
		Name:        r.canonical("name"),
		Description: r.canonical("description"),
		ParentID:    parentID,
	}, nil
}

func (r Row) toSupplier() (suppliers.Supplier, error) {
	return suppliers.Supplier{
		Name:        r.canonical("name"),
		ContactName: r.canonical("contact_name"),
		Email:       r.canonical("email"),
		Phone:       r.canonical("phone"),
		Address:     r.canonical("address"),
	}, nil
}

func (r Row) toWarehouse() (warehouses.Warehouse, error) {
	capacity, err := r.intField("capacity")
	if err != nil {
		return warehouses.Warehouse{}, err
	}
	return warehouses.Warehouse{
		Name:     r.canonical("name"),
		Location: r.canonical("location"),
		Capacity: capacity,
	}, nil
}
