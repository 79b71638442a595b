package warehouses

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/stockroom-hq/stockroom/internal/masterdata/shared"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Warehouse, int, error) {
	query := `SELECT id, name, location, capacity, created_at, updated_at FROM warehouses WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM warehouses WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR location ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.Name, &wh.Location, &wh.Capacity, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, wh)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	var wh Warehouse
	err := r.db.QueryRow(ctx, `SELECT id, name, location, capacity, created_at, updated_at FROM warehouses WHERE id = $1`, id).
		Scan(&wh.ID, &wh.Name, &wh.Location, &wh.Capacity, &wh.CreatedAt, &wh.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, shared.ErrNotFound
	}
	return wh, err
}

func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO warehouses (name, location, capacity, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		warehouse.Name, warehouse.Location, warehouse.Capacity, now).Scan(&warehouse.ID)
	if err != nil {
		return Warehouse{}, shared.TranslateWriteError(err)
	}
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now
	return warehouse, nil
}

func (r *repository) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	tag, err := r.db.Exec(ctx, `UPDATE warehouses SET name = $1, location = $2, capacity = $3, updated_at = NOW() WHERE id = $4`,
		warehouse.Name, warehouse.Location, warehouse.Capacity, id)
	if err != nil {
		return shared.TranslateWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the warehouse. Stock levels and movements cascade away with
// it; purchase orders reference warehouses with RESTRICT semantics and block
// the delete.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return shared.TranslateDeleteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
