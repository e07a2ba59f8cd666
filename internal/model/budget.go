package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AlertLevel is the budget alert severity.
type AlertLevel int

const (
	AlertOK AlertLevel = iota
	AlertNotice
	AlertWarning
	AlertCritical
	AlertExceeded
)

var alertNames = []string{"ok", "notice", "warning", "critical", "exceeded"}

func (l AlertLevel) String() string {
	if l < 0 || int(l) >= len(alertNames) {
		return "unknown"
	}
	return alertNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l AlertLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *AlertLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseAlertLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// ParseAlertLevel parses a level name.
func ParseAlertLevel(s string) (AlertLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range alertNames {
		if n == s {
			return AlertLevel(i), nil
		}
	}
	return AlertOK, fmt.Errorf("alert level %q: %w", s, ErrInvalid)
}

// BudgetStats holds month-to-date budget tracking and forecast data.
type BudgetStats struct {
	MonthlyBudget    decimal.Decimal // zero when no budget is configured
	CurrentSpend     decimal.Decimal
	Remaining        decimal.Decimal
	DailyBurnRate    decimal.Decimal
	ProjectedMonthly decimal.Decimal
	DaysElapsed      int
	DaysRemaining    int
	UsedFraction     float64
	Level            AlertLevel
}

// HasBudget reports whether a monthly budget is configured.
func (b BudgetStats) HasBudget() bool {
	return b.MonthlyBudget.IsPositive()
}

// SpendingAnalysis is the aggregate of spend for a window.
type SpendingAnalysis struct {
	Total            decimal.Decimal
	Purchases        int
	ByCategory       []SpendStats
	BySupplier       []SpendStats
	ByProject        []SpendStats
	ProratedBudget   decimal.Decimal
	BudgetUsed       float64 // spend / prorated budget; 0 without a budget
	BudgetEfficiency float64 // share of spend attributed to open or completed projects
}
