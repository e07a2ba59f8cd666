package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

// Bar is one labeled value in a chart.
type Bar struct {
	Label string
	Value float64
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a single row of block characters scaled to
// the largest value.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = min(max(idx, 0), len(sparkBlocks)-1)
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// ColumnChart renders bars as vertical columns with a y axis. prefix is
// prepended to axis labels (a currency symbol, usually). Narrow areas
// collapse to a sparkline.
func ColumnChart(bars []Bar, prefix string, color lipgloss.Color, width, height int) string {
	if len(bars) == 0 {
		return ""
	}
	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = b.Value
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	step := niceStep(peak)
	for int(math.Ceil(peak/step)) > max(height/2, 2) {
		step *= 2
	}
	ticks := max(int(math.Round(math.Ceil(peak/step))), 1)
	ceiling := step * float64(ticks)
	rowsPerTick := max(height/ticks, 2)
	rows := rowsPerTick * ticks

	axisW := max(len(prefix+compactLabel(ceiling))+1, 4)
	plotW := max(width-axisW-1, 5)

	// Too many bars for the plot: keep every k-th, always including the last.
	if n := len(bars); n > 1 && (plotW+1)/n < 3 {
		keep := max((plotW+1)/3, 2)
		sampled := make([]Bar, keep)
		for i := range sampled {
			sampled[i] = bars[i*(n-1)/(keep-1)]
		}
		bars = sampled
	}
	n := len(bars)
	colW := plotW
	if n > 1 {
		colW = min((plotW-(n-1))/n, 6)
	}
	plotLen := n*colW + (n - 1)

	surface := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	for row := rows; row >= 1; row-- {
		top := ceiling * float64(row) / float64(rows)
		bottom := ceiling * float64(row-1) / float64(rows)

		col := color
		if float64(row)/float64(rows) > 0.8 {
			col = t.AccentBright
		}
		fill := lipgloss.NewStyle().Foreground(col).Background(t.Surface)

		label := ""
		if row%rowsPerTick == 0 {
			label = prefix + compactLabel(step*float64(row/rowsPerTick))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))

		for i, bar := range bars {
			if i > 0 {
				b.WriteString(surface.Render(" "))
			}
			switch {
			case bar.Value >= top:
				b.WriteString(fill.Render(strings.Repeat("█", colW)))
			case bar.Value > bottom:
				idx := int((bar.Value - bottom) / (top - bottom) * 8)
				idx = min(max(idx, 1), 8)
				b.WriteString(fill.Render(strings.Repeat(string(sparkBlocks[idx-1]), colW)))
			default:
				b.WriteString(surface.Render(strings.Repeat(" ", colW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, prefix+"0", strings.Repeat("─", plotLen))))

	// Labels are placed left to right and skipped when they would collide.
	line := []rune(strings.Repeat(" ", plotLen))
	next := 0
	for i, bar := range bars {
		pos := i * (colW + 1)
		lbl := []rune(bar.Label)
		if pos < next || len(lbl) == 0 {
			continue
		}
		if pos+len(lbl) > plotLen {
			if plotLen-pos < 3 {
				continue
			}
			lbl = lbl[:plotLen-pos]
		}
		copy(line[pos:], lbl)
		next = pos + len(lbl) + 1
	}
	b.WriteString("\n")
	b.WriteString(surface.Render(strings.Repeat(" ", axisW+1)))
	b.WriteString(axis.Render(strings.TrimRight(string(line), " ")))
	return b.String()
}

// ShareBars renders one horizontal bar per row, scaled to the largest
// value, with the label on the left and valueText on the right.
func ShareBars(bars []Bar, valueText func(Bar) string, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	textW := 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		textW = max(textW, lipgloss.Width(valueText(b)))
		peak = math.Max(peak, b.Value)
	}
	labelW = min(labelW, width/3)
	barW := max(width-labelW-textW-2, 4)
	if peak == 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	fillStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	lines := make([]string, len(bars))
	for i, b := range bars {
		filled := int(math.Round(b.Value / peak * float64(barW)))
		filled = min(max(filled, 0), barW)
		lines[i] = labelStyle.Render(padTo(b.Label, labelW)) + " " +
			fillStyle.Render(strings.Repeat("▇", filled)) +
			emptyStyle.Render(strings.Repeat("·", barW-filled)) + " " +
			textStyle.Render(valueText(b))
	}
	return strings.Join(lines, "\n")
}

func padTo(s string, w int) string {
	s = Truncate(s, w)
	return s + strings.Repeat(" ", max(w-lipgloss.Width(s), 0))
}

// niceStep picks a 1/2/5 x 10^n interval giving roughly five ticks.
func niceStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func compactLabel(v float64) string {
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e6, "M"}, {1e3, "k"}} {
		if v >= u.div {
			if v == math.Trunc(v/u.div)*u.div {
				return fmt.Sprintf("%.0f%s", v/u.div, u.suffix)
			}
			return fmt.Sprintf("%.1f%s", v/u.div, u.suffix)
		}
	}
	if v >= 1 || v == 0 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
