package categories

import (
	"context"
	"fmt"

	mdshared "github.com/stockroom-hq/stockroom/internal/masterdata/shared"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	if err := s.validate(category); err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	if category.ParentID != nil && *category.ParentID == id {
		return fmt.Errorf("%w: category cannot be its own parent", shared.ErrValidation)
	}
	if err := s.validate(category); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, category)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
