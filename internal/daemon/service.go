// Package daemon provides the long-running background budget monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/logging"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/notify"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/planner"
	"github.com/theirongolddev/partsbin/internal/pricefeed"
	"github.com/theirongolddev/partsbin/internal/recommend"
)

// Event types.
const (
	EventSnapshot        = "snapshot"
	EventBudgetDelta     = "budget_delta"
	EventBudgetAlert     = "budget_alert"
	EventRecommendations = "recommendations"
)

const (
	minInterval = 5 * time.Second
	quoteTTL    = 15 * time.Minute
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	MonthlyBudget decimal.Decimal
	Thresholds    []float64
	Converter     currency.Converter
	Recommend     recommend.Config
	TopN          int // recommendations kept in the snapshot
}

// QuoteSource fetches supplier quotes for price-drop recommendations.
type QuoteSource interface {
	FetchAll(ctx context.Context, skus []string) *pricefeed.QuoteSet
}

// Deps are the collaborators the service polls and notifies.
type Deps struct {
	Repo     pipeline.Repository
	Notifier notify.Notifier  // nil disables alert delivery
	Quotes   QuoteSource      // nil disables price-drop recommendations
	Now      func() time.Time // defaults to time.Now
}

// Snapshot is the compact budget state for status and event payloads.
type Snapshot struct {
	At               time.Time        `json:"at"`
	Currency         string           `json:"currency"`
	MonthSpend       decimal.Decimal  `json:"month_spend"`
	MonthlyBudget    decimal.Decimal  `json:"monthly_budget"`
	Remaining        decimal.Decimal  `json:"remaining"`
	UsedFraction     float64          `json:"used_fraction"`
	ProjectedMonthly decimal.Decimal  `json:"projected_monthly"`
	DailyBurnRate    decimal.Decimal  `json:"daily_burn_rate"`
	InventoryValue   decimal.Decimal  `json:"inventory_value"`
	Items            int              `json:"items"`
	LowStock         int              `json:"low_stock"`
	OpenProjects     int              `json:"open_projects"`
	Recommendations  int              `json:"recommendations"`
	AlertLevel       model.AlertLevel `json:"alert_level"`
	TopIDs           []string         `json:"top_recommendations"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	MonthSpend     decimal.Decimal `json:"month_spend"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	Items          int             `json:"items"`
	LowStock       int             `json:"low_stock"`
	OpenProjects   int             `json:"open_projects"`
}

func (d Delta) isZero() bool {
	return d.MonthSpend.IsZero() &&
		d.InventoryValue.IsZero() &&
		d.Items == 0 &&
		d.LowStock == 0 &&
		d.OpenProjects == 0
}

// AlertChange is the level transition carried by budget_alert events.
type AlertChange struct {
	Previous model.AlertLevel `json:"previous"`
	Level    model.AlertLevel `json:"level"`
}

// Event is emitted whenever the budget state updates.
type Event struct {
	ID              int64                  `json:"id"`
	Type            string                 `json:"type"`
	Timestamp       time.Time              `json:"timestamp"`
	Snapshot        Snapshot               `json:"snapshot"`
	Delta           Delta                  `json:"delta"`
	Alert           *AlertChange           `json:"alert,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	deps    Deps
	engine  *recommend.Engine
	metrics *metrics
	log     *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	recs        []model.Recommendation
	nextEventID int64
	events      []Event

	quotes    map[string]decimal.Decimal
	quotesAt  time.Time
	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, deps Deps) *Service {
	if cfg.Interval < minInterval {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.TopN < 1 {
		cfg.TopN = 5
	}
	if cfg.Converter.Base == "" {
		cfg.Converter = currency.NewConverter(currency.DefaultCode, nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		deps:      deps,
		engine:    recommend.NewEngine(cfg.Recommend),
		metrics:   newMetrics(),
		log:       logging.For(logging.ComponentDaemon),
		startedAt: deps.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/recommendations", s.handleRecommendations)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval.String())

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Current returns the latest snapshot and recommendations.
// ok is false before the first successful poll.
func (s *Service) Current() (snap Snapshot, recs []model.Recommendation, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, slices.Clone(s.recs), s.hasSnapshot
}

func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()
	now := s.deps.Now()

	data, err := pipeline.Load(ctx, s.deps.Repo)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.metrics.pollErrors.Inc()
		s.log.Error("poll failed", logging.FieldError, err)
		return
	}
	if missing := data.ConvertTo(s.cfg.Converter); missing > 0 {
		s.log.Warn("amounts without exchange rate left unconverted", "count", missing)
	}

	stats := planner.BudgetStatusWithThresholds(data.Purchases, s.cfg.MonthlyBudget, now, s.cfg.Thresholds)
	summary := pipeline.Summarize(data.Items, data.Projects, nil, now, now)
	recs := s.engine.Generate(recommend.Input{
		Items:     data.Items,
		Projects:  data.Projects,
		Purchases: data.Purchases,
		Quotes:    s.refreshQuotes(ctx, data.Items, now),
		Dismissed: data.Dismissed,
	}, now)
	top := recs[:min(len(recs), s.cfg.TopN)]

	snap := Snapshot{
		At:               now,
		Currency:         s.cfg.Converter.Base,
		MonthSpend:       stats.CurrentSpend,
		MonthlyBudget:    stats.MonthlyBudget,
		Remaining:        stats.Remaining,
		UsedFraction:     stats.UsedFraction,
		ProjectedMonthly: stats.ProjectedMonthly,
		DailyBurnRate:    stats.DailyBurnRate,
		InventoryValue:   summary.InventoryValue,
		Items:            summary.Items,
		LowStock:         summary.LowStock,
		OpenProjects:     summary.OpenProjects,
		Recommendations:  len(recs),
		AlertLevel:       stats.Level,
		TopIDs:           recIDs(top),
	}

	var (
		evs   []Event
		alert *notify.Alert
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.recs = recs
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	newEvent := func(typ string) Event {
		s.nextEventID++
		return Event{ID: s.nextEventID, Type: typ, Timestamp: now, Snapshot: snap}
	}

	prevLevel := model.AlertOK
	if !prevExists {
		evs = append(evs, newEvent(EventSnapshot))
	} else {
		prevLevel = prev.AlertLevel
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			ev := newEvent(EventBudgetDelta)
			ev.Delta = delta
			evs = append(evs, ev)
		}
		if !slices.Equal(prev.TopIDs, snap.TopIDs) {
			ev := newEvent(EventRecommendations)
			ev.Recommendations = slices.Clone(top)
			evs = append(evs, ev)
		}
	}
	if snap.AlertLevel != prevLevel {
		ev := newEvent(EventBudgetAlert)
		ev.Alert = &AlertChange{Previous: prevLevel, Level: snap.AlertLevel}
		evs = append(evs, ev)
		a := notify.NewAlert(prevLevel, stats, now)
		alert = &a
	}
	s.mu.Unlock()

	for _, ev := range evs {
		s.publishEvent(ev)
	}
	s.metrics.observe(snap)
	s.metrics.polls.Inc()

	if alert != nil && s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(ctx, *alert); err != nil {
			s.log.Error("alert delivery failed", logging.FieldError, err,
				logging.FieldAlertLevel, alert.Level.String())
		}
	}

	s.log.Debug("poll complete",
		logging.FieldDuration, time.Since(start).Milliseconds(),
		"events", len(evs))
}

// refreshQuotes returns cached quotes, refetching them once quoteTTL has passed.
func (s *Service) refreshQuotes(ctx context.Context, items []model.InventoryItem, now time.Time) map[string]decimal.Decimal {
	if s.deps.Quotes == nil {
		return nil
	}
	if s.quotes != nil && now.Sub(s.quotesAt) < quoteTTL {
		return s.quotes
	}

	skus := make([]string, 0, len(items))
	for _, it := range items {
		if it.SKU != "" {
			skus = append(skus, it.SKU)
		}
	}
	set := s.deps.Quotes.FetchAll(ctx, skus)
	if set.Error != nil {
		s.log.Warn("quote fetch incomplete", logging.FieldError, set.Error)
	}
	s.quotes = set.Prices(s.cfg.Converter)
	s.quotesAt = now
	return s.quotes
}

func recIDs(recs []model.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		MonthSpend:     curr.MonthSpend.Sub(prev.MonthSpend),
		InventoryValue: curr.InventoryValue.Sub(prev.InventoryValue),
		Items:          curr.Items - prev.Items,
		LowStock:       curr.LowStock - prev.LowStock,
		OpenProjects:   curr.OpenProjects - prev.OpenProjects,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.metrics.events.WithLabelValues(ev.Type).Inc()

	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe registers a subscriber with a buffer of buf events. Events that
// do not fit are dropped for that subscriber. cancel unregisters and closes
// the channel; it is safe to call more than once.
func (s *Service) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, max(buf, 1))

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	recs := recommend.Apply(s.recs, f)
	s.mu.RUnlock()
	if recs == nil {
		recs = []model.Recommendation{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}

// filterFromQuery reads type, category, q, min_score, max_cost, sort, order
// and limit query parameters.
func filterFromQuery(r *http.Request) (recommend.Filter, error) {
	q := r.URL.Query()
	f := recommend.DefaultFilter()

	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			t, err := model.ParseRecommendationType(part)
			if err != nil {
				return f, err
			}
			f.Types = append(f.Types, t)
		}
	}
	f.Category = q.Get("category")
	f.Query = q.Get("q")

	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("min_score: %w", err)
		}
		f.MinScore = score
	}
	if v := q.Get("max_cost"); v != "" {
		cost, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("max_cost: %w", err)
		}
		f.MaxCost = cost
	}
	if v := q.Get("sort"); v != "" {
		field, err := recommend.ParseSortField(v)
		if err != nil {
			return f, err
		}
		f.Sort = field
		f.Desc = field == recommend.SortRelevance || field == recommend.SortCost
	}
	switch q.Get("order") {
	case "asc":
		f.Desc = false
	case "desc":
		f.Desc = true
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit: invalid value %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Subscribe(16)
	defer cancel()

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.deps.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
