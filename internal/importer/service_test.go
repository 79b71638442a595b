package importer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakePorts struct {
	mu         sync.Mutex
	products   []products.Product
	categories []categories.Category
	suppliers  []suppliers.Supplier
	warehouses []warehouses.Warehouse
	failSKU    string
}

func (f *fakePorts) Create(ctx context.Context, p products.Product) (products.Product, error) {
	if p.SKU == "" || p.Name == "" {
		return products.Product{}, shared.ErrValidation
	}
	if p.SKU == f.failSKU {
		return products.Product{}, shared.ErrConstraintViolation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, p)
	return p, nil
}

type fakeCategoryPort struct{ ports *fakePorts }

func (f fakeCategoryPort) Create(ctx context.Context, c categories.Category) (categories.Category, error) {
	if c.Name == "" {
		return categories.Category{}, shared.ErrValidation
	}
	f.ports.mu.Lock()
	defer f.ports.mu.Unlock()
	f.ports.categories = append(f.ports.categories, c)
	return c, nil
}

type fakeSupplierPort struct{ ports *fakePorts }

func (f fakeSupplierPort) Create(ctx context.Context, s suppliers.Supplier) (suppliers.Supplier, error) {
	f.ports.mu.Lock()
	defer f.ports.mu.Unlock()
	f.ports.suppliers = append(f.ports.suppliers, s)
	return s, nil
}

type fakeWarehousePort struct{ ports *fakePorts }

func (f fakeWarehousePort) Create(ctx context.Context, w warehouses.Warehouse) (warehouses.Warehouse, error) {
	f.ports.mu.Lock()
	defer f.ports.mu.Unlock()
	f.ports.warehouses = append(f.ports.warehouses, w)
	return w, nil
}

func newTestService(ports *fakePorts) *Service {
	logger := slog.New(slog.NewTextHandler(new(strings.Builder), nil))
	return NewService(logger, ports, fakeCategoryPort{ports}, fakeSupplierPort{ports}, fakeWarehousePort{ports}, 100)
}

func TestImportProductsCSV(t *testing.T) {
	ports := &fakePorts{}
	svc := newTestService(ports)

	payload := strings.Join([]string{
		"sku,name,unit_price,cost_price,unit",
		"SKU-1,Widget,19.99,12.00,pcs",
		"SKU-2,Gadget,5.50,3.25,box",
	}, "\n")

	result, err := svc.Import(context.Background(), EntityProduct, FormatCSV, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalRows)
	require.Equal(t, 2, result.Imported)
	require.Zero(t, result.Failed)
	require.Len(t, ports.products, 2)

	// Rows import concurrently, so index by SKU.
	bySKU := map[string]products.Product{}
	for _, p := range ports.products {
		require.True(t, p.IsActive)
		bySKU[p.SKU] = p
	}
	require.Equal(t, "pcs", bySKU["SKU-1"].UnitOfMeasure, "unit alias maps to unit_of_measure")
	require.Equal(t, "19.99", bySKU["SKU-1"].UnitPrice.String())
}

func TestImportProductsBilingualHeaders(t *testing.T) {
	ports := &fakePorts{}
	svc := newTestService(ports)

	payload := strings.Join([]string{
		"kode,nama,harga,harga_beli,satuan,stok_minimum",
		"SKU-9,Obeng,15000,9000,pcs,5",
	}, "\n")

	result, err := svc.Import(context.Background(), EntityProduct, FormatCSV, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Len(t, ports.products, 1)

	p := ports.products[0]
	require.Equal(t, "SKU-9", p.SKU)
	require.Equal(t, "Obeng", p.Name)
	require.Equal(t, "15000", p.UnitPrice.String())
	require.Equal(t, int64(5), p.ReorderLevel)
}

func TestImportCollectsRowErrors(t *testing.T) {
	ports := &fakePorts{failSKU: "SKU-DUP"}
	svc := newTestService(ports)

	payload := strings.Join([]string{
		"sku,name,unit_price",
		"SKU-1,Widget,19.99",
		"SKU-DUP,Copy,1.00",
		"SKU-3,Thing,notaprice",
	}, "\n")

	result, err := svc.Import(context.Background(), EntityProduct, FormatCSV, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalRows)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	require.Equal(t, 2, result.Errors[0].Line)
	require.Equal(t, 3, result.Errors[1].Line)
	require.Contains(t, result.Errors[1].Message, "unit_price")
}

func TestImportWarehousesJSON(t *testing.T) {
	ports := &fakePorts{}
	svc := newTestService(ports)

	payload := `[{"nama":"Gudang Utama","lokasi":"Jakarta","kapasitas":5000},{"name":"Backup","location":"Surabaya","capacity":1200}]`

	result, err := svc.Import(context.Background(), EntityWarehouse, FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Len(t, ports.warehouses, 2)

	byName := map[string]warehouses.Warehouse{}
	for _, w := range ports.warehouses {
		byName[w.Name] = w
	}
	require.Equal(t, "Jakarta", byName["Gudang Utama"].Location)
	require.Equal(t, int64(5000), byName["Gudang Utama"].Capacity)
}

func TestImportRejectsOversizedFile(t *testing.T) {
	ports := &fakePorts{}
	logger := slog.New(slog.NewTextHandler(new(strings.Builder), nil))
	svc := NewService(logger, ports, fakeCategoryPort{ports}, fakeSupplierPort{ports}, fakeWarehousePort{ports}, 1)

	payload := strings.Join([]string{
		"sku,name",
		"SKU-1,One",
		"SKU-2,Two",
	}, "\n")

	_, err := svc.Import(context.Background(), EntityProduct, FormatCSV, strings.NewReader(payload))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestImportUnknownEntity(t *testing.T) {
	svc := newTestService(&fakePorts{})

	_, err := svc.Import(context.Background(), Entity("movements"), FormatCSV, strings.NewReader("a,b\n1,2"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFormatFromFilename(t *testing.T) {
	format, err := FormatFromFilename("Products Export.XLSX")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, format)

	_, err = FormatFromFilename("notes.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
