package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{9_999, "9,999"},
		{12_345, "12.3K"},
		{-25_000, "-25.0K"},
		{3_400_000, "3.4M"},
		{2_000_000_000, "2.0B"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	f := currency.MustNew("USD")
	if got := FormatMoney(f, decimal.RequireFromString("1234.5")); got != "$1,234.50" {
		t.Fatalf("FormatMoney(1234.5) = %q", got)
	}
	if got := FormatMoney(f, decimal.NewFromInt(3_500_000)); got != "$3.5M" {
		t.Fatalf("FormatMoney(3.5M) = %q", got)
	}
}

func TestFormatDeadline(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		deadline time.Time
		want     string
	}{
		{time.Time{}, ""},
		{time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC), "today"},
		{time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), "in 3d"},
		{time.Date(2026, 3, 13, 23, 0, 0, 0, time.UTC), "2d overdue"},
	}
	for _, tt := range tests {
		if got := FormatDeadline(tt.deadline, now); got != tt.want {
			t.Errorf("FormatDeadline(%v) = %q, want %q", tt.deadline, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{-9876543, "-9,876,543"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatScoreAndTruncate(t *testing.T) {
	if got := FormatScore(0.876); got != "88" {
		t.Fatalf("FormatScore = %q, want 88", got)
	}
	if got := Truncate("Raspberry Pi Pico", 9); got != "Raspberr…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("ESP32", 9); got != "ESP32" {
		t.Fatalf("Truncate short = %q", got)
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Item", "Price"},
		Rows:    [][]string{{"OLED", "€8.00"}, {"---"}, {"Total", "€12.50"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d, want 7:\n%s", len(lines), out)
	}
	width := -1
	for _, l := range lines {
		w := len([]rune(stripANSI(l)))
		if width >= 0 && w != width {
			t.Fatalf("ragged table:\n%s", out)
		}
		width = w
	}
}

func TestRenderProgressBar(t *testing.T) {
	out := stripANSI(RenderProgressBar(1.2, 10, model.AlertExceeded))
	if out != "[██████████] 120.0%" {
		t.Fatalf("RenderProgressBar = %q", out)
	}
	if RenderProgressBar(0.5, 0, model.AlertOK) != "" {
		t.Fatal("zero width bar not empty")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			in = true
		case in && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}
