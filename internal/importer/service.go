package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// ProductPort creates products from import rows.
type ProductPort interface {
	Create(ctx context.Context, product products.Product) (products.Product, error)
}

// CategoryPort creates categories from import rows.
type CategoryPort interface {
	Create(ctx context.Context, category categories.Category) (categories.Category, error)
}

// SupplierPort creates suppliers from import rows.
type SupplierPort interface {
	Create(ctx context.Context, supplier suppliers.Supplier) (suppliers.Supplier, error)
}

// WarehousePort creates warehouses from import rows.
type WarehousePort interface {
	Create(ctx context.Context, warehouse warehouses.Warehouse) (warehouses.Warehouse, error)
}

// RowError reports why one row was skipped. Line numbers count from the
// first data row, header excluded.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result summarises one import run. Rows are independent: a failed row
// is skipped and reported, the rest still land.
type Result struct {
	TotalRows int        `json:"total_rows"`
	Imported  int        `json:"imported"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
}

// Service maps loosely-named bulk files onto the importable entities.
type Service struct {
	logger     *slog.Logger
	products   ProductPort
	categories CategoryPort
	suppliers  SupplierPort
	warehouses WarehousePort
	maxRows    int
}

// NewService builds Service. maxRows caps accepted files; zero means 5000.
func NewService(logger *slog.Logger, p ProductPort, c CategoryPort, s SupplierPort, w WarehousePort, maxRows int) *Service {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &Service{logger: logger, products: p, categories: c, suppliers: s, warehouses: w, maxRows: maxRows}
}

// importWorkers bounds concurrent row inserts per request.
const importWorkers = 8

// Import parses the payload and creates one record per row.
func (s *Service) Import(ctx context.Context, entity Entity, format Format, r io.Reader) (Result, error) {
	if !entity.Valid() {
		return Result{}, fmt.Errorf("%w: unknown import entity %q", shared.ErrValidation, entity)
	}
	rows, err := Parse(format, r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if len(rows) > s.maxRows {
		return Result{}, fmt.Errorf("%w: file exceeds %d rows", shared.ErrValidation, s.maxRows)
	}

	var mu sync.Mutex
	rowErrors := []RowError{}
	imported := 0

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(importWorkers)
	for i, row := range rows {
		line, row := i+1, row
		group.Go(func() error {
			if err := s.importRow(gctx, entity, row); err != nil {
				mu.Lock()
				rowErrors = append(rowErrors, RowError{Line: line, Message: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			imported++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	sort.Slice(rowErrors, func(i, j int) bool { return rowErrors[i].Line < rowErrors[j].Line })
	result := Result{TotalRows: len(rows), Imported: imported, Failed: len(rowErrors), Errors: rowErrors}
	s.logger.Info("bulk import finished",
		slog.String("entity", string(entity)),
		slog.Int("total", result.TotalRows),
		slog.Int("imported", result.Imported),
		slog.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) importRow(ctx context.Context, entity Entity, row Row) error {
	switch entity {
	case EntityProduct:
		product, err := row.toProduct()
		if err != nil {
			return err
		}
		_, err = s.products.Create(ctx, product)
		return err
	case EntityCategory:
		category, err := row.toCategory()
		if err != nil {
			return err
		}
		_, err = s.categories.Create(ctx, category)
		return err
	case EntitySupplier:
		supplier, err := row.toSupplier()
		if err != nil {
			return err
		}
		_, err = s.suppliers.Create(ctx, supplier)
		return err
	case EntityWarehouse:
		warehouse, err := row.toWarehouse()
		if err != nil {
			return err
		}
		_, err = s.warehouses.Create(ctx, warehouse)
		return err
	}
	return fmt.Errorf("unknown entity %q", entity)
}
