package warehouses

import (
	"fmt"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

func (s *Service) validate(w Warehouse) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: warehouse name is required", shared.ErrValidation)
	}
	if w.Capacity < 0 {
		return fmt.Errorf("%w: warehouse capacity must be >= 0", shared.ErrValidation)
	}
	return nil
}
