package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	mdshared "github.com/stockroom-hq/stockroom/internal/masterdata/shared"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakeRepo struct {
	suppliers map[int64]Supplier
	// referenced marks suppliers a purchase order points at; deleting
	// them fails the way the FK RESTRICT does.
	referenced map[int64]bool
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{suppliers: make(map[int64]Supplier), referenced: make(map[int64]bool)}
}

func (r *fakeRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]Supplier, int, error) {
	result := []Supplier{}
	for _, s := range r.suppliers {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	r.nextID++
	supplier.ID = r.nextID
	r.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, supplier Supplier) error {
	if _, ok := r.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	supplier.ID = id
	r.suppliers[id] = supplier
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	if r.referenced[id] {
		return shared.ErrRestrictedDelete
	}
	delete(r.suppliers, id)
	return nil
}

func TestDeleteSupplier(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), Supplier{Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteSupplierRestrictedByPurchaseOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	created, err := svc.Create(context.Background(), Supplier{Name: "Acme"})
	require.NoError(t, err)
	repo.referenced[created.ID] = true

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrRestrictedDelete)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err, "restricted delete must leave the row unchanged")
	require.Equal(t, "Acme", got.Name)
}

func TestDeleteSupplierInvalidID(t *testing.T) {
	svc := NewService(newFakeRepo())
	require.ErrorIs(t, svc.Delete(context.Background(), 0), shared.ErrValidation)
}
