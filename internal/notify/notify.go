// Package notify delivers budget alerts raised by the daemon.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/logging"
	"github.com/theirongolddev/partsbin/internal/model"
)

// Alert is a budget alert level transition.
type Alert struct {
	Level        model.AlertLevel `json:"level"`
	Previous     model.AlertLevel `json:"previous_level"`
	Spend        decimal.Decimal  `json:"month_spend"`
	Budget       decimal.Decimal  `json:"monthly_budget"`
	Projected    decimal.Decimal  `json:"projected_monthly"`
	UsedFraction float64          `json:"used_fraction"`
	Message      string           `json:"message"`
	At           time.Time        `json:"at"`
}

// NewAlert builds an alert for a transition from prev to stats.Level.
func NewAlert(prev model.AlertLevel, stats model.BudgetStats, at time.Time) Alert {
	return Alert{
		Level:        stats.Level,
		Previous:     prev,
		Spend:        stats.CurrentSpend,
		Budget:       stats.MonthlyBudget,
		Projected:    stats.ProjectedMonthly,
		UsedFraction: stats.UsedFraction,
		Message: fmt.Sprintf("budget %s: %.0f%% used (%s of %s), projected %s",
			stats.Level, stats.UsedFraction*100,
			stats.CurrentSpend.StringFixed(2), stats.MonthlyBudget.StringFixed(2),
			stats.ProjectedMonthly.StringFixed(2)),
		At: at,
	}
}

// Escalated reports whether the alert raises the level.
func (a Alert) Escalated() bool { return a.Level > a.Previous }

// JSON encodes the alert as a message body.
func (a Alert) JSON() ([]byte, error) { return json.Marshal(a) }

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, a Alert) error

func (f Func) Notify(ctx context.Context, a Alert) error { return f(ctx, a) }

// LogNotifier writes alerts to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier returns a notifier logging under the notify component.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{Logger: logging.For(logging.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	lvl := slog.LevelInfo
	if a.Level >= model.AlertCritical {
		lvl = slog.LevelWarn
	}
	n.Logger.Log(ctx, lvl, a.Message,
		logging.FieldAlertLevel, a.Level.String(),
		"previous_level", a.Previous.String(),
		"used_fraction", a.UsedFraction,
	)
	return nil
}

// Multi fans an alert out to every notifier, joining their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MinLevel drops alerts below Min before passing them to Next.
type MinLevel struct {
	Min  model.AlertLevel
	Next Notifier
}

func (m MinLevel) Notify(ctx context.Context, a Alert) error {
	if a.Level < m.Min {
		return nil
	}
	return m.Next.Notify(ctx, a)
}
