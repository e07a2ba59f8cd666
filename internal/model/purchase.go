package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is one order line imported from a supplier order file or entered by hand.
type Purchase struct {
	ID          string
	ItemID      string
	ProjectID   string
	Supplier    string
	SKU         string
	Name        string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Shipping    decimal.Decimal // this line's share of order shipping
	Currency    string
	PurchasedAt time.Time
	SourceFile  string
}

// Total returns the line total including its shipping share.
func (p Purchase) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))).Add(p.Shipping)
}
