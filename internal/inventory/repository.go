package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// ErrLevelNotFound indicates a missing stock level row.
var ErrLevelNotFound = errors.New("inventory: stock level not found")

// TxRepository exposes the operations the service runs inside one transaction.
type TxRepository interface {
	GetLevelForUpdate(ctx context.Context, productID, warehouseID int64) (StockLevel, error)
	UpsertLevel(ctx context.Context, level StockLevel) (StockLevel, error)
	InsertMovement(ctx context.Context, movement StockMovement) (StockMovement, error)
}

// Repository persists stock levels and movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) GetLevelForUpdate(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	var level StockLevel
	err := r.tx.QueryRow(ctx, `SELECT id, product_id, warehouse_id, quantity, reserved_quantity, last_counted_at, created_at, updated_at
FROM stock_levels WHERE product_id=$1 AND warehouse_id=$2 FOR UPDATE`, productID, warehouseID).
		Scan(&level.ID, &level.ProductID, &level.WarehouseID, &level.Quantity, &level.ReservedQuantity, &level.LastCountedAt, &level.CreatedAt, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{ProductID: productID, WarehouseID: warehouseID}, ErrLevelNotFound
		}
		return StockLevel{}, err
	}
	level.Derive()
	return level, nil
}

func (r *txRepository) UpsertLevel(ctx context.Context, level StockLevel) (StockLevel, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_levels (product_id, warehouse_id, quantity, reserved_quantity, last_counted_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
ON CONFLICT (product_id, warehouse_id)
DO UPDATE SET quantity=EXCLUDED.quantity, reserved_quantity=EXCLUDED.reserved_quantity, last_counted_at=EXCLUDED.last_counted_at, updated_at=NOW()
RETURNING id, quantity, reserved_quantity, created_at, updated_at`,
		level.ProductID, level.WarehouseID, level.Quantity, level.ReservedQuantity, level.LastCountedAt).
		Scan(&level.ID, &level.Quantity, &level.ReservedQuantity, &level.CreatedAt, &level.UpdatedAt)
	if err != nil {
		return StockLevel{}, shared.TranslateWriteError(err)
	}
	level.Derive()
	return level, nil
}

func (r *txRepository) InsertMovement(ctx context.Context, movement StockMovement) (StockMovement, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (product_id, warehouse_id, movement_type, quantity, reference_number, notes, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
RETURNING id, created_at`,
		movement.ProductID, movement.WarehouseID, string(movement.Type), movement.Quantity, movement.ReferenceNumber, movement.Notes, nullInt(movement.CreatedBy)).
		Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return StockMovement{}, shared.TranslateWriteError(err)
	}
	return movement, nil
}

// GetLevel fetches one stock level outside any transaction.
func (r *Repository) GetLevel(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	var level StockLevel
	err := r.pool.QueryRow(ctx, `SELECT id, product_id, warehouse_id, quantity, reserved_quantity, last_counted_at, created_at, updated_at
FROM stock_levels WHERE product_id=$1 AND warehouse_id=$2`, productID, warehouseID).
		Scan(&level.ID, &level.ProductID, &level.WarehouseID, &level.Quantity, &level.ReservedQuantity, &level.LastCountedAt, &level.CreatedAt, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{}, shared.ErrNotFound
		}
		return StockLevel{}, err
	}
	level.Derive()
	return level, nil
}

// ListLevels returns stock levels matching the filter plus the total count.
func (r *Repository) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		where += " AND product_id = $" + strconv.Itoa(len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		where += " AND warehouse_id = $" + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_levels"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT id, product_id, warehouse_id, quantity, reserved_quantity, last_counted_at, created_at, updated_at FROM stock_levels` +
		where + " ORDER BY product_id, warehouse_id LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	levels := []StockLevel{}
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ID, &level.ProductID, &level.WarehouseID, &level.Quantity, &level.ReservedQuantity, &level.LastCountedAt, &level.CreatedAt, &level.UpdatedAt); err != nil {
			return nil, 0, err
		}
		level.Derive()
		levels = append(levels, level)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return levels, total, nil
}

// ListMovements returns movement ledger entries matching the filter, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		where += " AND product_id = $" + strconv.Itoa(len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		where += " AND warehouse_id = $" + strconv.Itoa(len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where += " AND movement_type = $" + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_movements"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `SELECT id, product_id, warehouse_id, movement_type, quantity, reference_number, notes, COALESCE(created_by, 0), created_at FROM stock_movements` +
		where + " ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	movements := []StockMovement{}
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &m.Type, &m.Quantity, &m.ReferenceNumber, &m.Notes, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ListBelowReorder returns active products whose aggregate on-hand
// quantity across all warehouses is at or below their reorder level.
func (r *Repository) ListBelowReorder(ctx context.Context) ([]ReorderAlert, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.sku, p.name, COALESCE(SUM(l.quantity), 0), p.reorder_level, p.reorder_quantity
FROM products p
LEFT JOIN stock_levels l ON l.product_id = p.id
WHERE p.is_active AND p.reorder_level > 0
GROUP BY p.id, p.sku, p.name, p.reorder_level, p.reorder_quantity
HAVING COALESCE(SUM(l.quantity), 0) <= p.reorder_level
ORDER BY p.sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []ReorderAlert{}
	for rows.Next() {
		var alert ReorderAlert
		if err := rows.Scan(&alert.ProductID, &alert.SKU, &alert.Name, &alert.TotalQuantity, &alert.ReorderLevel, &alert.ReorderQuantity); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
