package products

import (
	"fmt"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product sku is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if p.UnitPrice.IsNegative() || p.CostPrice.IsNegative() {
		return fmt.Errorf("%w: prices must be >= 0", shared.ErrValidation)
	}
	if p.ReorderLevel < 0 || p.ReorderQuantity < 0 {
		return fmt.Errorf("%w: reorder values must be >= 0", shared.ErrValidation)
	}
	return nil
}
