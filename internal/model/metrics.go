package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryStats holds the top-level aggregate across inventory, projects and spend.
type SummaryStats struct {
	Items          int
	Units          int
	InventoryValue decimal.Decimal
	LowStock       int

	OpenProjects   int
	ActiveProjects int
	PlannedCost    decimal.Decimal // BOM cost of open projects

	Spend         decimal.Decimal
	Purchases     int
	SpendDays     int
	SpendPerDay   decimal.Decimal
	SpendPerOrder decimal.Decimal
}

// CategoryStats holds inventory metrics for one category.
type CategoryStats struct {
	Category string
	Items    int
	Units    int
	Value    decimal.Decimal
	Share    float64 // fraction of total inventory value
	LowStock int
}

// SupplierStats holds inventory metrics for one supplier.
type SupplierStats struct {
	Supplier string
	Items    int
	Units    int
	Value    decimal.Decimal
	Share    float64
}

// SpendStats holds spend for one grouping key (category, supplier or project).
type SpendStats struct {
	Key       string
	Purchases int
	Units     int
	Total     decimal.Decimal
	Share     float64
}

// MonthlyStats holds spend for one calendar month.
type MonthlyStats struct {
	Month     time.Time // first day of month, local time
	Purchases int
	Units     int
	Total     decimal.Decimal
}

// ProjectCostStats holds the cost overview for one project.
type ProjectCostStats struct {
	ProjectID   string
	Name        string
	Status      ProjectStatus
	Priority    int
	Planned     decimal.Decimal
	Spent       decimal.Decimal
	ToBuy       decimal.Decimal
	Budget      decimal.Decimal
	Remaining   decimal.Decimal
	Utilization float64 // planned / budget; 0 without a budget
	OverBudget  bool
}
