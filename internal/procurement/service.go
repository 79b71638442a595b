package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroom-hq/stockroom/internal/inventory"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// InventoryPort posts the inbound movements that receiving an order produces.
type InventoryPort interface {
	RecordMovement(ctx context.Context, input inventory.MovementInput) (inventory.MovementResult, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the purchase order lifecycle.
type Service struct {
	repo        RepositoryPort
	inventory   InventoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, inv InventoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, inventory: inv, audit: audit, idempotency: idem}
}

// ItemInput is one caller-supplied order line. Any total price the
// caller sends is ignored; it is recomputed from quantity and unit price.
type ItemInput struct {
	ProductID       int64           `json:"product_id"`
	QuantityOrdered int64           `json:"quantity_ordered"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// CreateOrderInput describes an order creation payload.
type CreateOrderInput struct {
	PONumber     string      `json:"po_number"`
	SupplierID   int64       `json:"supplier_id"`
	WarehouseID  int64       `json:"warehouse_id"`
	OrderDate    time.Time   `json:"order_date"`
	ExpectedDate *time.Time  `json:"expected_date"`
	Notes        string      `json:"notes"`
	Items        []ItemInput `json:"items"`
}

// UpdateOrderInput replaces a draft order's header fields and items.
type UpdateOrderInput struct {
	SupplierID   int64       `json:"supplier_id"`
	WarehouseID  int64       `json:"warehouse_id"`
	OrderDate    time.Time   `json:"order_date"`
	ExpectedDate *time.Time  `json:"expected_date"`
	Notes        string      `json:"notes"`
	Items        []ItemInput `json:"items"`
}

// ReceiveLine records how much of one item arrived.
type ReceiveLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int64 `json:"quantity"`
}

// ReceiveInput describes a receipt. An empty Lines slice receives every
// item at its full ordered quantity.
type ReceiveInput struct {
	Lines []ReceiveLine `json:"lines"`
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if item.ProductID == 0 {
			return fmt.Errorf("%w: item product required", shared.ErrValidation)
		}
		if item.QuantityOrdered <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", shared.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item unit price must not be negative", shared.ErrValidation)
		}
	}
	return nil
}

func buildItems(orderID int64, inputs []ItemInput) []PurchaseOrderItem {
	items := make([]PurchaseOrderItem, 0, len(inputs))
	for _, input := range inputs {
		item := PurchaseOrderItem{
			PurchaseOrderID: orderID,
			ProductID:       input.ProductID,
			QuantityOrdered: input.QuantityOrdered,
			UnitPrice:       input.UnitPrice.Round(2),
		}
		item.Derive()
		items = append(items, item)
	}
	return items
}

// CreateOrder persists an order header and its items in one transaction.
// The order starts in DRAFT.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (PurchaseOrder, error) {
	if input.SupplierID == 0 || input.WarehouseID == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier and warehouse required", shared.ErrValidation)
	}
	if err := validateItems(input.Items); err != nil {
		return PurchaseOrder{}, err
	}
	if input.PONumber == "" {
		input.PONumber = generateNumber("PO")
	}
	if input.OrderDate.IsZero() {
		input.OrderDate = time.Now().UTC()
	}

	var actorID int64
	if id := shared.IdentityFromContext(ctx); id != nil {
		actorID = id.UserID
	}

	items := buildItems(0, input.Items)
	order := PurchaseOrder{
		PONumber:     input.PONumber,
		SupplierID:   input.SupplierID,
		WarehouseID:  input.WarehouseID,
		OrderDate:    input.OrderDate,
		ExpectedDate: input.ExpectedDate,
		Status:       POStatusDraft,
		TotalAmount:  OrderTotal(items),
		Notes:        input.Notes,
		CreatedBy:    actorID,
	}

	var created PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return err
		}
		inserted.Items = make([]PurchaseOrderItem, 0, len(items))
		for _, item := range items {
			item.PurchaseOrderID = inserted.ID
			saved, err := tx.InsertItem(ctx, item)
			if err != nil {
				return err
			}
			inserted.Items = append(inserted.Items, saved)
		}
		created = inserted
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, actorID, "po:create", created.ID, map[string]any{"po_number": created.PONumber})
	return created, nil
}

// UpdateOrder replaces a draft order's header and items. Totals are
// recomputed; orders past DRAFT are immutable except for status moves.
func (s *Service) UpdateOrder(ctx context.Context, id int64, input UpdateOrderInput) (PurchaseOrder, error) {
	if input.SupplierID == 0 || input.WarehouseID == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: supplier and warehouse required", shared.ErrValidation)
	}
	if err := validateItems(input.Items); err != nil {
		return PurchaseOrder{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != POStatusDraft {
			return ErrInvalidState
		}
		items := buildItems(id, input.Items)
		order.SupplierID = input.SupplierID
		order.WarehouseID = input.WarehouseID
		if !input.OrderDate.IsZero() {
			order.OrderDate = input.OrderDate
		}
		order.ExpectedDate = input.ExpectedDate
		order.Notes = input.Notes
		order.TotalAmount = OrderTotal(items)
		if err := tx.UpdateOrderHeader(ctx, order); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return s.repo.GetOrder(ctx, id)
}

// SubmitOrder moves a draft order to PENDING.
func (s *Service) SubmitOrder(ctx context.Context, id int64) error {
	return s.transition(ctx, id, POStatusPending, "po:submit")
}

// CancelOrder cancels an order that has not been received yet.
func (s *Service) CancelOrder(ctx context.Context, id int64) error {
	return s.transition(ctx, id, POStatusCancelled, "po:cancel")
}

func (s *Service) transition(ctx context.Context, id int64, to POStatus, action string) error {
	var actorID int64
	if identity := shared.IdentityFromContext(ctx); identity != nil {
		actorID = identity.UserID
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(order.Status, to) {
			return ErrInvalidState
		}
		return tx.UpdateOrderStatus(ctx, id, to)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, action, id, map[string]any{"status": string(to)})
	return nil
}

// ReceiveOrder marks a pending order RECEIVED, records per-item received
// quantities, and posts an IN movement per received line so stock levels
// reflect the delivery.
func (s *Service) ReceiveOrder(ctx context.Context, id int64, input ReceiveInput) (PurchaseOrder, error) {
	var actorID int64
	if identity := shared.IdentityFromContext(ctx); identity != nil {
		actorID = identity.UserID
	}

	key := fmt.Sprintf("po-receive:%d", id)
	insertedKey := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement"); err != nil {
			return PurchaseOrder{}, err
		}
		insertedKey = true
	}

	var poNumber string
	var warehouseID int64
	type receipt struct {
		productID int64
		quantity  int64
	}
	receipts := []receipt{}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(order.Status, POStatusReceived) {
			return ErrInvalidState
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}

		quantities := make(map[int64]int64, len(items))
		if len(input.Lines) == 0 {
			for _, item := range items {
				quantities[item.ID] = item.QuantityOrdered
			}
		} else {
			byID := make(map[int64]PurchaseOrderItem, len(items))
			for _, item := range items {
				byID[item.ID] = item
			}
			for _, line := range input.Lines {
				if _, ok := byID[line.ItemID]; !ok {
					return fmt.Errorf("%w: item %d does not belong to this order", shared.ErrValidation, line.ItemID)
				}
				if line.Quantity < 0 {
					return fmt.Errorf("%w: received quantity must not be negative", shared.ErrValidation)
				}
				quantities[line.ItemID] = line.Quantity
			}
		}

		for _, item := range items {
			qty, ok := quantities[item.ID]
			if !ok {
				continue
			}
			if err := tx.UpdateItemReceived(ctx, item.ID, qty); err != nil {
				return err
			}
			if qty > 0 {
				receipts = append(receipts, receipt{productID: item.ProductID, quantity: qty})
			}
		}
		if err := tx.UpdateOrderStatus(ctx, id, POStatusReceived); err != nil {
			return err
		}
		poNumber = order.PONumber
		warehouseID = order.WarehouseID
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return PurchaseOrder{}, err
	}

	// Inbound movements run after the status commit; each carries the PO
	// reference so the inventory idempotency guard rejects a replay.
	for _, rec := range receipts {
		if s.inventory == nil {
			return PurchaseOrder{}, fmt.Errorf("procurement: inventory integration not configured: %w", shared.ErrPartialFailure)
		}
		_, err := s.inventory.RecordMovement(ctx, inventory.MovementInput{
			ProductID:       rec.productID,
			WarehouseID:     warehouseID,
			Type:            inventory.MovementIn,
			Quantity:        rec.quantity,
			ReferenceNumber: poNumber,
			Notes:           fmt.Sprintf("Receipt for purchase order %s", poNumber),
		})
		if err != nil {
			return PurchaseOrder{}, fmt.Errorf("%w: order received but stock update failed: %v", shared.ErrPartialFailure, err)
		}
	}

	s.recordAudit(ctx, actorID, "po:receive", id, map[string]any{"po_number": poNumber, "lines": len(receipts)})
	return s.repo.GetOrder(ctx, id)
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return s.repo.GetOrder(ctx, id)
}

// List returns order headers.
func (s *Service) List(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int, error) {
	return s.repo.ListOrders(ctx, filter)
}

// Delete removes an order and its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.DeleteOrder(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
