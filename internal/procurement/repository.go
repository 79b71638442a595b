package procurement

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

const orderColumns = `id, po_number, supplier_id, warehouse_id, order_date, expected_date, status, total_amount, notes, COALESCE(created_by, 0), created_at, updated_at`

const itemColumns = `id, purchase_order_id, product_id, quantity_ordered, quantity_received, unit_price, total_price, created_at, updated_at`

// TxRepository exposes the order mutations the service runs inside one transaction.
type TxRepository interface {
	GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	InsertOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error)
	InsertItem(ctx context.Context, item PurchaseOrderItem) (PurchaseOrderItem, error)
	DeleteItems(ctx context.Context, orderID int64) error
	UpdateOrderHeader(ctx context.Context, order PurchaseOrder) error
	UpdateOrderStatus(ctx context.Context, id int64, status POStatus) error
	UpdateItemReceived(ctx context.Context, itemID, quantityReceived int64) error
	ListItems(ctx context.Context, orderID int64) ([]PurchaseOrderItem, error)
}

// Repository persists purchase orders in PostgreSQL.
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
		return errors.New("procurement repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var order PurchaseOrder
	err := row.Scan(&order.ID, &order.PONumber, &order.SupplierID, &order.WarehouseID, &order.OrderDate, &order.ExpectedDate,
		&order.Status, &order.TotalAmount, &order.Notes, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, shared.ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return order, nil
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	return scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertOrder(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_orders (po_number, supplier_id, warehouse_id, order_date, expected_date, status, total_amount, notes, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
RETURNING id, created_at, updated_at`,
		order.PONumber, order.SupplierID, order.WarehouseID, order.OrderDate, order.ExpectedDate,
		string(order.Status), order.TotalAmount, order.Notes, nullInt(order.CreatedBy)).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return PurchaseOrder{}, shared.TranslateWriteError(err)
	}
	return order, nil
}

func (r *txRepository) InsertItem(ctx context.Context, item PurchaseOrderItem) (PurchaseOrderItem, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity_ordered, quantity_received, unit_price, total_price, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
RETURNING id, created_at, updated_at`,
		item.PurchaseOrderID, item.ProductID, item.QuantityOrdered, item.QuantityReceived, item.UnitPrice, item.TotalPrice).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return PurchaseOrderItem{}, shared.TranslateWriteError(err)
	}
	return item, nil
}

func (r *txRepository) DeleteItems(ctx context.Context, orderID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id=$1`, orderID)
	return err
}

func (r *txRepository) UpdateOrderHeader(ctx context.Context, order PurchaseOrder) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_orders
SET supplier_id=$2, warehouse_id=$3, order_date=$4, expected_date=$5, total_amount=$6, notes=$7, updated_at=NOW()
WHERE id=$1`,
		order.ID, order.SupplierID, order.WarehouseID, order.OrderDate, order.ExpectedDate, order.TotalAmount, order.Notes)
	if err != nil {
		return shared.TranslateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateOrderStatus(ctx context.Context, id int64, status POStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return shared.TranslateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateItemReceived(ctx context.Context, itemID, quantityReceived int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_order_items SET quantity_received=$2, updated_at=NOW() WHERE id=$1`, itemID, quantityReceived)
	if err != nil {
		return shared.TranslateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) ListItems(ctx context.Context, orderID int64) ([]PurchaseOrderItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+itemColumns+` FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// GetOrder fetches one order with its items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	order.Items, err = collectItems(rows)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return order, nil
}

// ListOrders returns order headers matching the filter plus the total count.
func (r *Repository) ListOrders(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		where += " AND supplier_id = $" + strconv.Itoa(len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		where += " AND warehouse_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += " AND po_number ILIKE $" + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchase_orders"+where, args...).Scan(&total); err != nil {
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
	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + where +
		" ORDER BY order_date DESC, id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []PurchaseOrder{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// DeleteOrder removes an order; items cascade at the schema level.
func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	if err != nil {
		return shared.TranslateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectItems(rows pgx.Rows) ([]PurchaseOrderItem, error) {
	defer rows.Close()
	items := []PurchaseOrderItem{}
	for rows.Next() {
		var item PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductID, &item.QuantityOrdered, &item.QuantityReceived,
			&item.UnitPrice, &item.TotalPrice, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
