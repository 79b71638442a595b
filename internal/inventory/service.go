package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLevel(ctx context.Context, productID, warehouseID int64) (StockLevel, error)
	ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error)
	ListBelowReorder(ctx context.Context) ([]ReorderAlert, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts recorded movements per type.
type MetricsPort interface {
	CountMovement(movementType string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// AllowNegativeStock permits movements that drive on-hand quantity
	// below zero. Off by default; a first-ever movement with a negative
	// delta is then rejected rather than clamped to zero.
	AllowNegativeStock bool
}

// Service coordinates stock level and movement operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     MetricsPort
	allowNeg    bool
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, metrics MetricsPort, cfg ServiceConfig) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics, allowNeg: cfg.AllowNegativeStock}
}

// MovementResult is what a successfully recorded movement produced: the
// ledger entry plus the stock level it left behind.
type MovementResult struct {
	Movement StockMovement `json:"movement"`
	Level    StockLevel    `json:"level"`
}

// RecordMovement appends a movement to the ledger and applies its delta
// to the matching stock level. Both writes happen in one transaction
// with the level row locked, so concurrent movements against the same
// (product, warehouse) pair serialize instead of losing updates.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (MovementResult, error) {
	if input.ProductID == 0 || input.WarehouseID == 0 {
		return MovementResult{}, fmt.Errorf("%w: product and warehouse required", shared.ErrValidation)
	}
	if !input.Type.Valid() {
		return MovementResult{}, ErrInvalidMovementType
	}
	if input.Quantity <= 0 {
		return MovementResult{}, ErrInvalidQuantity
	}

	var actorID int64
	if id := shared.IdentityFromContext(ctx); id != nil {
		actorID = id.UserID
	}

	insertedKey := false
	key := ""
	if s.idempotency != nil && input.ReferenceNumber != "" {
		key = fmt.Sprintf("%s:%s:%d:%d", input.Type, input.ReferenceNumber, input.ProductID, input.WarehouseID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return MovementResult{}, err
		}
		insertedKey = true
	}

	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetLevelForUpdate(ctx, input.ProductID, input.WarehouseID)
		if err != nil && !errors.Is(err, ErrLevelNotFound) {
			return err
		}
		delta := input.Type.SignedDelta(input.Quantity)
		newQty := level.Quantity + delta
		if newQty < 0 && !s.allowNeg {
			return ErrNegativeStock
		}

		movement, err := tx.InsertMovement(ctx, StockMovement{
			ProductID:       input.ProductID,
			WarehouseID:     input.WarehouseID,
			Type:            input.Type,
			Quantity:        input.Quantity,
			ReferenceNumber: input.ReferenceNumber,
			Notes:           input.Notes,
			CreatedBy:       actorID,
		})
		if err != nil {
			return err
		}

		level.Quantity = newQty
		updated, err := tx.UpsertLevel(ctx, level)
		if err != nil {
			return err
		}
		result = MovementResult{Movement: movement, Level: updated}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return MovementResult{}, err
	}

	if s.metrics != nil {
		s.metrics.CountMovement(string(input.Type))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("stock:%s", input.Type),
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%d", result.Movement.ID),
			Meta: map[string]any{
				"product_id":   input.ProductID,
				"warehouse_id": input.WarehouseID,
				"quantity":     input.Quantity,
				"reference":    input.ReferenceNumber,
			},
		})
	}
	return result, nil
}

// Reserve sets the reserved quantity on a level. The level must already
// exist; availability is re-derived and may go negative when
// reservations exceed on-hand stock.
func (s *Service) Reserve(ctx context.Context, productID, warehouseID, reserved int64) (StockLevel, error) {
	if productID == 0 || warehouseID == 0 {
		return StockLevel{}, fmt.Errorf("%w: product and warehouse required", shared.ErrValidation)
	}
	if reserved < 0 {
		return StockLevel{}, ErrInvalidReservation
	}
	var result StockLevel
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetLevelForUpdate(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		level.ReservedQuantity = reserved
		result, err = tx.UpsertLevel(ctx, level)
		return err
	})
	if err != nil {
		return StockLevel{}, err
	}
	return result, nil
}

// CountStock stamps a level as physically counted now. The level must
// already exist; a count that finds a discrepancy is posted separately
// as an ADJUSTMENT movement so the ledger stays the only source of
// quantity changes.
func (s *Service) CountStock(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	if productID == 0 || warehouseID == 0 {
		return StockLevel{}, fmt.Errorf("%w: product and warehouse required", shared.ErrValidation)
	}
	var result StockLevel
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetLevelForUpdate(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		now := time.Now()
		level.LastCountedAt = &now
		result, err = tx.UpsertLevel(ctx, level)
		return err
	})
	if err != nil {
		return StockLevel{}, err
	}
	return result, nil
}

// GetLevel returns the level for one (product, warehouse) pair.
func (s *Service) GetLevel(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	if productID == 0 || warehouseID == 0 {
		return StockLevel{}, fmt.Errorf("%w: product and warehouse required", shared.ErrValidation)
	}
	return s.repo.GetLevel(ctx, productID, warehouseID)
}

// ListLevels lists stock levels.
func (s *Service) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error) {
	return s.repo.ListLevels(ctx, filter)
}

// ListMovements lists ledger entries. Movements have no update or
// delete surface anywhere in the service.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	return s.repo.ListMovements(ctx, filter)
}

// ReorderAlerts lists products at or below their reorder level.
func (s *Service) ReorderAlerts(ctx context.Context) ([]ReorderAlert, error) {
	return s.repo.ListBelowReorder(ctx)
}
