package products

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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySKU(ctx context.Context, sku string) (Product, error) {
	if sku == "" {
		return Product{}, fmt.Errorf("%w: sku is required", shared.ErrValidation)
	}
	return s.repo.GetBySKU(ctx, sku)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	if err := s.validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}
