package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	mdshared "github.com/stockroom-hq/stockroom/internal/masterdata/shared"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakeRepo struct {
	categories map[int64]Category
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{categories: make(map[int64]Category)}
}

func (r *fakeRepo) List(ctx context.Context, filters mdshared.ListFilters) ([]Category, int, error) {
	result := []Category{}
	for _, c := range r.categories {
		result = append(result, c)
	}
	return result, len(result), nil
}

func (r *fakeRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) Create(ctx context.Context, category Category) (Category, error) {
	r.nextID++
	category.ID = r.nextID
	r.categories[category.ID] = category
	return category, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int64, category Category) error {
	if _, ok := r.categories[id]; !ok {
		return shared.ErrNotFound
	}
	category.ID = id
	r.categories[id] = category
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func TestCreateCategoryRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Category{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCategoryTree(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	parent, err := svc.Create(ctx, Category{Name: "Electronics"})
	require.NoError(t, err)

	child, err := svc.Create(ctx, Category{Name: "Phones", ParentID: &parent.ID})
	require.NoError(t, err)
	require.Equal(t, parent.ID, *child.ParentID)
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Category{Name: "Electronics"})
	require.NoError(t, err)

	err = svc.Update(ctx, created.ID, Category{Name: "Electronics", ParentID: &created.ID})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGetCategoryInvalidID(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}
