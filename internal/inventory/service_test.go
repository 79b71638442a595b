package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	levels    map[string]StockLevel
	movements []StockMovement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: make(map[string]StockLevel)}
}

func levelKey(productID, warehouseID int64) string {
	return fmt.Sprintf("%d:%d", productID, warehouseID)
}

// WithTx serializes callbacks with a mutex, matching the row-lock
// semantics the real repository gets from FOR UPDATE.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetLevel(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[levelKey(productID, warehouseID)]
	if !ok {
		return StockLevel{}, shared.ErrNotFound
	}
	level.Derive()
	return level, nil
}

func (r *memoryRepo) ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []StockLevel{}
	for _, level := range r.levels {
		level.Derive()
		result = append(result, level)
	}
	return result, len(result), nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]StockMovement, len(r.movements))
	copy(result, r.movements)
	return result, len(result), nil
}

func (r *memoryRepo) ListBelowReorder(ctx context.Context) ([]ReorderAlert, error) {
	return nil, nil
}

func (tx *memoryTx) GetLevelForUpdate(ctx context.Context, productID, warehouseID int64) (StockLevel, error) {
	if level, ok := tx.repo.levels[levelKey(productID, warehouseID)]; ok {
		level.Derive()
		return level, nil
	}
	return StockLevel{ProductID: productID, WarehouseID: warehouseID}, ErrLevelNotFound
}

func (tx *memoryTx) UpsertLevel(ctx context.Context, level StockLevel) (StockLevel, error) {
	key := levelKey(level.ProductID, level.WarehouseID)
	if existing, ok := tx.repo.levels[key]; ok {
		level.ID = existing.ID
		level.CreatedAt = existing.CreatedAt
	} else {
		tx.repo.nextID++
		level.ID = tx.repo.nextID
		level.CreatedAt = time.Now()
	}
	level.UpdatedAt = time.Now()
	level.Derive()
	tx.repo.levels[key] = level
	return level, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement StockMovement) (StockMovement, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	movement.CreatedAt = time.Now()
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement, nil
}

func TestRecordMovementInboundOpensLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	result, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 10})
	require.NoError(t, err)
	require.Equal(t, int64(10), result.Level.Quantity)
	require.Equal(t, int64(10), result.Level.AvailableQuantity)
	require.Equal(t, int64(10), result.Movement.Quantity)
	require.Equal(t, MovementIn, result.Movement.Type)
}

func TestRecordMovementOutbound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 10})
	require.NoError(t, err)

	result, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementOut, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, int64(5), result.Level.Quantity)
}

func TestConcurrentInboundMovements(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 7, WarehouseID: 3, Type: MovementIn, Quantity: 10})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	level, err := svc.GetLevel(ctx, 7, 3)
	require.NoError(t, err)
	require.Equal(t, int64(20), level.Quantity)
}

func TestNegativeOpeningRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementOut, Quantity: 5})
	require.ErrorIs(t, err, ErrNegativeStock)

	// Rejection leaves no ledger entry and no level row behind.
	movements, _, err := svc.ListMovements(ctx, MovementFilter{})
	require.NoError(t, err)
	require.Empty(t, movements)
	_, err = svc.GetLevel(ctx, 1, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNegativeStockAllowedWhenConfigured(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{AllowNegativeStock: true})
	ctx := context.Background()

	result, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementOut, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, int64(-5), result.Level.Quantity)
}

func TestTransferDecrementsSourceOnly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 20})
	require.NoError(t, err)

	result, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementTransfer, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, int64(15), result.Level.Quantity)

	// No level appears at any other warehouse.
	levels, total, err := svc.ListLevels(ctx, LevelFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, levels, 1)
}

func TestReserveDerivesAvailability(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 10})
	require.NoError(t, err)

	level, err := svc.Reserve(ctx, 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, int64(10), level.Quantity)
	require.Equal(t, int64(4), level.ReservedQuantity)
	require.Equal(t, int64(6), level.AvailableQuantity)

	// Reservations may exceed on-hand stock; availability goes negative.
	level, err = svc.Reserve(ctx, 1, 1, 12)
	require.NoError(t, err)
	require.Equal(t, int64(-2), level.AvailableQuantity)
}

func TestReserveMissingLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})

	_, err := svc.Reserve(context.Background(), 99, 99, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordMovementValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: "BOGUS", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidMovementType)

	_, err = svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordMovement(ctx, MovementInput{WarehouseID: 1, Type: MovementIn, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCountStockStampsLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, WarehouseID: 1, Type: MovementIn, Quantity: 10})
	require.NoError(t, err)

	level, err := svc.CountStock(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, level.LastCountedAt)
	require.WithinDuration(t, time.Now(), *level.LastCountedAt, time.Minute)
	require.Equal(t, int64(10), level.Quantity, "counting must not change on-hand quantity")

	stored, err := svc.GetLevel(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, stored.LastCountedAt)
}

func TestCountStockMissingLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil, ServiceConfig{})

	_, err := svc.CountStock(context.Background(), 1, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
