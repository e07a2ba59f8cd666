// Package model defines domain types for partsbin inventory, projects and spending.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalid marks a value that failed domain validation.
var ErrInvalid = errors.New("invalid value")

// InventoryItem is one stocked component.
type InventoryItem struct {
	ID          string
	Name        string
	SKU         string
	Category    string
	Supplier    string
	Quantity    int
	MinQuantity int // reorder point; 0 disables low-stock tracking
	UnitPrice   decimal.Decimal
	Currency    string
	Location    string
	Tags        []string
	UpdatedAt   time.Time
}

// Value returns the stock value of the item (quantity x unit price).
func (i InventoryItem) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LowStock reports whether the item is at or below its reorder point.
func (i InventoryItem) LowStock() bool {
	return i.MinQuantity > 0 && i.Quantity <= i.MinQuantity
}

// Shortfall returns how many units are needed to get back above the reorder point.
func (i InventoryItem) Shortfall() int {
	if !i.LowStock() {
		return 0
	}
	return i.MinQuantity - i.Quantity + 1
}
