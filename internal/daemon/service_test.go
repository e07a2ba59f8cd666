package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/notify"
)

type fakeRepo struct {
	items     []model.InventoryItem
	projects  []model.Project
	purchases []model.Purchase
}

func (f *fakeRepo) ListItems(context.Context) ([]model.InventoryItem, error) {
	return append([]model.InventoryItem(nil), f.items...), nil
}

func (f *fakeRepo) ListProjects(context.Context) ([]model.Project, error) {
	return append([]model.Project(nil), f.projects...), nil
}

func (f *fakeRepo) ListPurchases(context.Context) ([]model.Purchase, error) {
	return append([]model.Purchase(nil), f.purchases...), nil
}

func (f *fakeRepo) Dismissed(context.Context) (map[string]bool, error) { return nil, nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)

func purchase(id, amount string) model.Purchase {
	return model.Purchase{ID: id, Quantity: 1, UnitPrice: dec(amount), PurchasedAt: testNow.AddDate(0, 0, -5)}
}

func newTestService(repo *fakeRepo, alerts *[]notify.Alert) *Service {
	return New(Config{
		Interval:      10 * time.Second,
		MonthlyBudget: dec("100"),
	}, Deps{
		Repo: repo,
		Notifier: notify.Func(func(_ context.Context, a notify.Alert) error {
			*alerts = append(*alerts, a)
			return nil
		}),
		Now: func() time.Time { return testNow },
	})
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func types(evs []Event) string {
	names := make([]string, len(evs))
	for i, ev := range evs {
		names[i] = ev.Type
	}
	return strings.Join(names, ",")
}

func TestPollOnceEvents(t *testing.T) {
	repo := &fakeRepo{
		items: []model.InventoryItem{
			{ID: "esp", Name: "ESP32", Quantity: 1, UnitPrice: dec("5")},
			{ID: "res", Name: "10k resistor", Quantity: 2, MinQuantity: 10, UnitPrice: dec("0.10")},
		},
		purchases: []model.Purchase{purchase("p1", "60")},
	}
	var alerts []notify.Alert
	s := newTestService(repo, &alerts)
	ctx := context.Background()

	ch, cancel := s.Subscribe(32)
	defer cancel()

	s.pollOnce(ctx)
	evs := drain(ch)
	if got := types(evs); got != "snapshot,budget_alert" {
		t.Fatalf("poll 1 events = %s, want snapshot,budget_alert", got)
	}
	if a := evs[1].Alert; a == nil || a.Previous != model.AlertOK || a.Level != model.AlertNotice {
		t.Fatalf("poll 1 alert = %+v, want ok -> notice", evs[1].Alert)
	}
	snap := evs[0].Snapshot
	if !snap.MonthSpend.Equal(dec("60")) || snap.LowStock != 1 || snap.Items != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.TopIDs) != 1 || snap.TopIDs[0] != "restock:res" {
		t.Fatalf("TopIDs = %v, want [restock:res]", snap.TopIDs)
	}

	repo.purchases = append(repo.purchases, purchase("p2", "35"))
	s.pollOnce(ctx)
	evs = drain(ch)
	if got := types(evs); got != "budget_delta,budget_alert" {
		t.Fatalf("poll 2 events = %s, want budget_delta,budget_alert", got)
	}
	if !evs[0].Delta.MonthSpend.Equal(dec("35")) {
		t.Fatalf("delta spend = %s, want 35", evs[0].Delta.MonthSpend)
	}
	if a := evs[1].Alert; a.Previous != model.AlertNotice || a.Level != model.AlertCritical {
		t.Fatalf("poll 2 alert = %+v, want notice -> critical", a)
	}

	s.pollOnce(ctx)
	if evs = drain(ch); len(evs) != 0 {
		t.Fatalf("poll 3 events = %s, want none", types(evs))
	}

	repo.items[1].Quantity = 20
	s.pollOnce(ctx)
	evs = drain(ch)
	if got := types(evs); got != "budget_delta,recommendations" {
		t.Fatalf("poll 4 events = %s, want budget_delta,recommendations", got)
	}
	if evs[0].Delta.LowStock != -1 {
		t.Fatalf("delta low stock = %d, want -1", evs[0].Delta.LowStock)
	}

	if len(alerts) != 2 || alerts[1].Level != model.AlertCritical || alerts[1].Previous != model.AlertNotice {
		t.Fatalf("alerts = %+v, want 2 ending notice -> critical", alerts)
	}

	st := s.snapshotStatus()
	if st.PollCount != 4 || st.EventCount != 6 || st.SubscriberCount != 1 {
		t.Fatalf("status = %+v", st)
	}
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	s := New(Config{}, Deps{})
	ch, cancel := s.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after cancel")
	}
	s.publishEvent(Event{ID: 1})
	if n := s.snapshotStatus().SubscriberCount; n != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", n)
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	s := New(Config{}, Deps{})
	ch, cancel := s.Subscribe(1)
	defer cancel()

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})

	evs := drain(ch)
	if len(evs) != 1 || evs[0].ID != 1 {
		t.Fatalf("received %+v, want only event 1", evs)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, Deps{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNewClampsInterval(t *testing.T) {
	s := New(Config{Interval: time.Second}, Deps{})
	if s.cfg.Interval != 60*time.Second {
		t.Fatalf("Interval = %v, want 60s", s.cfg.Interval)
	}
	s = New(Config{Interval: 5 * time.Second}, Deps{})
	if s.cfg.Interval != 5*time.Second {
		t.Fatalf("Interval = %v, want 5s", s.cfg.Interval)
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{MonthSpend: dec("10.50"), InventoryValue: dec("200"), Items: 10, LowStock: 2, OpenProjects: 3}
	curr := Snapshot{MonthSpend: dec("13.10"), InventoryValue: dec("180"), Items: 11, LowStock: 2, OpenProjects: 2}

	delta := diffSnapshots(prev, curr)
	if !delta.MonthSpend.Equal(dec("2.6")) {
		t.Fatalf("MonthSpend delta = %s, want 2.6", delta.MonthSpend)
	}
	if !delta.InventoryValue.Equal(dec("-20")) {
		t.Fatalf("InventoryValue delta = %s, want -20", delta.InventoryValue)
	}
	if delta.Items != 1 || delta.LowStock != 0 || delta.OpenProjects != -1 {
		t.Fatalf("delta = %+v", delta)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("self delta not zero")
	}
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestHTTPEndpoints(t *testing.T) {
	repo := &fakeRepo{
		items: []model.InventoryItem{
			{ID: "res", Name: "10k resistor", Category: "passives", Supplier: "digikey", Quantity: 2, MinQuantity: 10, UnitPrice: dec("0.10")},
			{ID: "cap", Name: "100nF cap", Category: "passives", Supplier: "digikey", Quantity: 0, MinQuantity: 5, UnitPrice: dec("0.05")},
		},
		purchases: []model.Purchase{purchase("p1", "95")},
	}
	var alerts []notify.Alert
	s := newTestService(repo, &alerts)
	s.pollOnce(context.Background())
	h := s.Handler()

	if code, body := get(t, h, "/healthz"); code != http.StatusOK || body != "ok\n" {
		t.Fatalf("/healthz = %d %q", code, body)
	}

	code, body := get(t, h, "/v1/status")
	if code != http.StatusOK {
		t.Fatalf("/v1/status = %d", code)
	}
	var st Status
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Summary.AlertLevel != model.AlertCritical || !st.Summary.MonthSpend.Equal(dec("95")) {
		t.Fatalf("status summary = %+v", st.Summary)
	}

	code, body = get(t, h, "/v1/recommendations?type=bundle")
	if code != http.StatusOK {
		t.Fatalf("/v1/recommendations = %d %s", code, body)
	}
	var recs []model.Recommendation
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "bundle:digikey" {
		t.Fatalf("bundle recommendations = %+v", recs)
	}

	_, body = get(t, h, "/v1/recommendations?sort=cost&order=asc&limit=1&type=component")
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "restock:cap" {
		t.Fatalf("cheapest component = %+v, want restock:cap", recs)
	}

	if code, _ := get(t, h, "/v1/recommendations?min_score=high"); code != http.StatusBadRequest {
		t.Fatalf("bad min_score status = %d, want 400", code)
	}

	code, body = get(t, h, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("/metrics = %d", code)
	}
	for _, want := range []string{"partsbin_month_spend 95", "partsbin_budget_alert_level 3", "partsbin_low_stock_items 2", `partsbin_events_total{type="snapshot"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("/metrics missing %q", want)
		}
	}

	code, body = get(t, h, "/v1/events")
	if code != http.StatusOK || !strings.Contains(body, `"type":"budget_alert"`) {
		t.Fatalf("/v1/events = %d %s", code, body)
	}
}
