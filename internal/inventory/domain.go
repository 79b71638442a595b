package inventory

import (
	"errors"
	"time"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementTransfer   MovementType = "TRANSFER"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether the movement type is one of the known kinds.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementTransfer, MovementAdjustment:
		return true
	}
	return false
}

// SignedDelta returns the effect of a movement of this type on the
// on-hand quantity. IN and ADJUSTMENT add, OUT and TRANSFER subtract.
// TRANSFER only decrements the source warehouse; no destination-side
// increment is recorded.
func (t MovementType) SignedDelta(quantity int64) int64 {
	switch t {
	case MovementOut, MovementTransfer:
		return -quantity
	default:
		return quantity
	}
}

var (
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidMovementType indicates an unknown movement type.
	ErrInvalidMovementType = errors.New("inventory: unknown movement type")
	// ErrNegativeStock indicates the movement would drive on-hand stock below zero.
	ErrNegativeStock = errors.New("inventory: movement would make stock negative")
	// ErrInvalidReservation indicates a negative reserved quantity.
	ErrInvalidReservation = errors.New("inventory: reserved quantity must not be negative")
)

// StockLevel is the current on-hand and reserved quantity for one
// product at one warehouse. AvailableQuantity is always derived from
// Quantity and ReservedQuantity and never stored or accepted from
// callers.
type StockLevel struct {
	ID                int64      `json:"id"`
	ProductID         int64      `json:"product_id"`
	WarehouseID       int64      `json:"warehouse_id"`
	Quantity          int64      `json:"quantity"`
	ReservedQuantity  int64      `json:"reserved_quantity"`
	AvailableQuantity int64      `json:"available_quantity"`
	LastCountedAt     *time.Time `json:"last_counted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AvailableOf computes the available quantity. Reservations may exceed
// on-hand stock, so the result can be negative.
func AvailableOf(quantity, reserved int64) int64 {
	return quantity - reserved
}

// Derive refreshes the derived field from its inputs.
func (l *StockLevel) Derive() {
	l.AvailableQuantity = AvailableOf(l.Quantity, l.ReservedQuantity)
}

// StockMovement is one append-only ledger entry. Quantity is stored as
// given; the sign convention is applied when the level is mutated.
type StockMovement struct {
	ID              int64        `json:"id"`
	ProductID       int64        `json:"product_id"`
	WarehouseID     int64        `json:"warehouse_id"`
	Type            MovementType `json:"movement_type"`
	Quantity        int64        `json:"quantity"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	CreatedBy       int64        `json:"created_by,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// MovementInput carries the caller-supplied fields for recording a movement.
type MovementInput struct {
	ProductID       int64        `json:"product_id"`
	WarehouseID     int64        `json:"warehouse_id"`
	Type            MovementType `json:"movement_type"`
	Quantity        int64        `json:"quantity"`
	ReferenceNumber string       `json:"reference_number"`
	Notes           string       `json:"notes"`
}

// LevelFilter narrows stock level listings.
type LevelFilter struct {
	ProductID   int64
	WarehouseID int64
	Page        int
	Limit       int
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Type        MovementType
	Page        int
	Limit       int
}

// ReorderAlert pairs a product with its aggregate on-hand quantity when
// that quantity has fallen to or below the product's reorder level.
type ReorderAlert struct {
	ProductID       int64  `json:"product_id"`
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	TotalQuantity   int64  `json:"total_quantity"`
	ReorderLevel    int64  `json:"reorder_level"`
	ReorderQuantity int64  `json:"reorder_quantity"`
}
