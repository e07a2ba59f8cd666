package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg *prometheus.Registry

	monthSpend      prometheus.Gauge
	monthlyBudget   prometheus.Gauge
	budgetUsed      prometheus.Gauge
	projected       prometheus.Gauge
	inventoryValue  prometheus.Gauge
	lowStock        prometheus.Gauge
	openProjects    prometheus.Gauge
	recommendations prometheus.Gauge
	alertLevel      prometheus.Gauge
	polls           prometheus.Counter
	pollErrors      prometheus.Counter
	events          *prometheus.CounterVec
}

func newMetrics() *metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "partsbin", Name: name, Help: help})
	}
	m := &metrics{
		reg:             prometheus.NewRegistry(),
		monthSpend:      gauge("month_spend", "Spend in the current calendar month."),
		monthlyBudget:   gauge("monthly_budget", "Configured monthly budget, 0 when unset."),
		budgetUsed:      gauge("budget_used_ratio", "Fraction of the monthly budget spent."),
		projected:       gauge("projected_monthly_spend", "Month-end spend projected from the daily burn rate."),
		inventoryValue:  gauge("inventory_value", "Value of stocked inventory."),
		lowStock:        gauge("low_stock_items", "Items at or below their reorder point."),
		openProjects:    gauge("open_projects", "Projects that are planning, active or paused."),
		recommendations: gauge("recommendations", "Current recommendation count."),
		alertLevel:      gauge("budget_alert_level", "Budget alert level, 0 (ok) to 4 (exceeded)."),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partsbin", Name: "polls_total", Help: "Completed polls.",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partsbin", Name: "poll_errors_total", Help: "Polls that failed to load data.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partsbin", Name: "events_total", Help: "Published events by type.",
		}, []string{"type"}),
	}
	m.reg.MustRegister(
		m.monthSpend, m.monthlyBudget, m.budgetUsed, m.projected,
		m.inventoryValue, m.lowStock, m.openProjects, m.recommendations,
		m.alertLevel, m.polls, m.pollErrors, m.events,
	)
	return m
}

func (m *metrics) observe(s Snapshot) {
	m.monthSpend.Set(s.MonthSpend.InexactFloat64())
	m.monthlyBudget.Set(s.MonthlyBudget.InexactFloat64())
	m.budgetUsed.Set(s.UsedFraction)
	m.projected.Set(s.ProjectedMonthly.InexactFloat64())
	m.inventoryValue.Set(s.InventoryValue.InexactFloat64())
	m.lowStock.Set(float64(s.LowStock))
	m.openProjects.Set(float64(s.OpenProjects))
	m.recommendations.Set(float64(s.Recommendations))
	m.alertLevel.Set(float64(s.AlertLevel))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
