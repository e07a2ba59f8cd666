package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

func testAlert(level model.AlertLevel) Alert {
	stats := model.BudgetStats{
		MonthlyBudget:    decimal.NewFromInt(100),
		CurrentSpend:     decimal.NewFromInt(92),
		ProjectedMonthly: decimal.NewFromInt(140),
		UsedFraction:     0.92,
		Level:            level,
	}
	return NewAlert(model.AlertWarning, stats, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
}

func TestNewAlert(t *testing.T) {
	a := testAlert(model.AlertCritical)
	if !a.Escalated() {
		t.Fatal("warning -> critical not escalated")
	}
	want := "budget critical: 92% used (92.00 of 100.00), projected 140.00"
	if a.Message != want {
		t.Fatalf("Message = %q, want %q", a.Message, want)
	}

	body, err := a.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["level"] != "critical" || m["previous_level"] != "warning" {
		t.Fatalf("levels = %v/%v, want critical/warning", m["level"], m["previous_level"])
	}
}

func TestMinLevel(t *testing.T) {
	var got []model.AlertLevel
	rec := Func(func(_ context.Context, a Alert) error {
		got = append(got, a.Level)
		return nil
	})
	n := MinLevel{Min: model.AlertWarning, Next: rec}

	for _, lvl := range []model.AlertLevel{model.AlertNotice, model.AlertWarning, model.AlertOK, model.AlertExceeded} {
		if err := n.Notify(context.Background(), testAlert(lvl)); err != nil {
			t.Fatalf("Notify(%s): %v", lvl, err)
		}
	}
	if len(got) != 2 || got[0] != model.AlertWarning || got[1] != model.AlertExceeded {
		t.Fatalf("delivered = %v, want [warning exceeded]", got)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	calls := 0
	m := Multi{
		Func(func(context.Context, Alert) error { calls++; return errA }),
		Func(func(context.Context, Alert) error { calls++; return nil }),
	}
	err := m.Notify(context.Background(), testAlert(model.AlertCritical))
	if !errors.Is(err, errA) {
		t.Fatalf("err = %v, want %v", err, errA)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := n.Notify(context.Background(), testAlert(model.AlertCritical)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "alert_level=critical", "previous_level=warning"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
}

type fakePublisher struct {
	exchange, key string
	msg           amqp091.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestAMQPNotifierPublishes(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{pub: pub, exchange: "partsbin", routingKey: "budget.alert", log: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	a := testAlert(model.AlertExceeded)
	if err := n.Notify(context.Background(), a); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.exchange != "partsbin" || pub.key != "budget.alert" {
		t.Fatalf("published to %s/%s, want partsbin/budget.alert", pub.exchange, pub.key)
	}
	if pub.msg.DeliveryMode != amqp091.Persistent || pub.msg.ContentType != "application/json" {
		t.Fatalf("publishing = %+v, want persistent json", pub.msg)
	}
	var got Alert
	if err := json.Unmarshal(pub.msg.Body, &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if got.Level != model.AlertExceeded || !got.Spend.Equal(decimal.NewFromInt(92)) {
		t.Fatalf("body = %+v", got)
	}
}

func TestAMQPNotifierPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := &AMQPNotifier{pub: pub, log: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	if err := n.Notify(context.Background(), testAlert(model.AlertCritical)); err == nil {
		t.Fatal("Notify succeeded on publish error")
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{12, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.want {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}
