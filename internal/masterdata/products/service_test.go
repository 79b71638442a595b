package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mdshared "github.com/stockroom-hq/stockroom/internal/masterdata/shared"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakeRepo struct {
	products map[int64]Product
	// orderItemRefs marks products a purchase order item points at;
	// deleting them fails the way the FK RESTRICT does.
	orderItemRefs map[int64]bool
	nextID        int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[int64]Product), orderItemRefs: make(map[int64]bool)}
}

func (r *fakeRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
	result := []Product{}
	for _, p := range r.products {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) GetBySKU(ctx context.Context, sku string) (Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (r *fakeRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, existing := range r.products {
		if existing.SKU == product.SKU {
			return Product{}, shared.ErrConstraintViolation
		}
	}
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return product, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	r.products[id] = product
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	if r.orderItemRefs[id] {
		return shared.ErrRestrictedDelete
	}
	delete(r.products, id)
	return nil
}

func validProduct() Product {
	return Product{
		SKU:       "SKU-100",
		Name:      "Widget",
		UnitPrice: decimal.RequireFromString("19.99"),
		CostPrice: decimal.RequireFromString("12.50"),
		IsActive:  true,
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	p := validProduct()
	p.SKU = " "
	_, err := svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)

	p = validProduct()
	p.Name = ""
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)

	p = validProduct()
	p.UnitPrice = decimal.RequireFromString("-1")
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)

	p = validProduct()
	p.ReorderLevel = -1
	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validProduct())
	require.ErrorIs(t, err, shared.ErrConstraintViolation)
	require.Len(t, repo.products, 1, "failed create must not alter the store")
}

func TestGetBySKU(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	found, err := svc.GetBySKU(ctx, "SKU-100")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = svc.GetBySKU(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateProductMissing(t *testing.T) {
	svc := NewService(newFakeRepo())

	err := svc.Update(context.Background(), 99, validProduct())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteProductRestrictedByOrderItems(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	repo.orderItemRefs[created.ID] = true

	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrRestrictedDelete)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err, "restricted delete must leave the row unchanged")
	require.Equal(t, "SKU-100", got.SKU)
}
