package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/recommend"
	"github.com/theirongolddev/partsbin/internal/tui/components"
	"github.com/theirongolddev/partsbin/internal/tui/theme"
)

const scoreStep = 0.1

// recommendState holds the recommendations tab's filter and list position.
type recommendState struct {
	cursor   int
	offset   int
	typeIdx  int // index into model.RecommendationTypes; -1 shows every type
	minScore float64
	sortIdx  int // index into recommend.SortFields
	desc     bool

	lastDismissed string // id the next undo restores
}

func newRecommendState(minScore float64) recommendState {
	return recommendState{typeIdx: -1, minScore: clampScore(minScore), desc: true}
}

func (s *recommendState) clamp(n int) {
	s.cursor = min(max(s.cursor, 0), max(n-1, 0))
}

func (s recommendState) filter() recommend.Filter {
	f := recommend.Filter{
		MinScore: s.minScore,
		Sort:     recommend.SortFields[s.sortIdx],
		Desc:     s.desc,
	}
	if s.typeIdx >= 0 {
		f.Types = []model.RecommendationType{model.RecommendationTypes[s.typeIdx]}
	}
	return f
}

func (s recommendState) typeLabel() string {
	if s.typeIdx < 0 {
		return "all"
	}
	return string(model.RecommendationTypes[s.typeIdx])
}

// clampScore keeps the threshold in [0,1] and snaps float drift from
// repeated steps back to one decimal.
func clampScore(v float64) float64 {
	return math.Round(min(max(v, 0), 1)*10) / 10
}

func (a App) filteredRecs() []model.Recommendation {
	return recommend.Apply(a.recs, a.rec.filter())
}

func (a *App) recommendKey(key string) (bool, tea.Cmd) {
	recs := a.filteredRecs()
	n := len(recs)
	switch key {
	case "t":
		a.rec.typeIdx++
		if a.rec.typeIdx >= len(model.RecommendationTypes) {
			a.rec.typeIdx = -1
		}
		a.rec.cursor, a.rec.offset = 0, 0
	case "+", "=":
		a.rec.minScore = clampScore(a.rec.minScore + scoreStep)
		a.rec.cursor, a.rec.offset = 0, 0
	case "-":
		a.rec.minScore = clampScore(a.rec.minScore - scoreStep)
		a.rec.cursor, a.rec.offset = 0, 0
	case "s":
		a.rec.sortIdx = (a.rec.sortIdx + 1) % len(recommend.SortFields)
		a.rec.cursor, a.rec.offset = 0, 0
	case "v":
		a.rec.desc = !a.rec.desc
	case "d":
		if n == 0 || a.opts.Repo == nil {
			return true, nil
		}
		id := recs[a.rec.cursor].ID
		a.rec.lastDismissed = id
		return true, dismissCmd(a.opts.Repo, id, false)
	case "u":
		if a.rec.lastDismissed == "" || a.opts.Repo == nil {
			return true, nil
		}
		id := a.rec.lastDismissed
		a.rec.lastDismissed = ""
		return true, dismissCmd(a.opts.Repo, id, true)
	case "j", "down":
		a.rec.cursor++
	case "k", "up":
		a.rec.cursor--
	case "g":
		a.rec.cursor = 0
	case "G":
		a.rec.cursor = n - 1
	default:
		return false, nil
	}
	a.rec.clamp(len(a.filteredRecs()))
	return true, nil
}

func (a App) renderRecommendTab(cw, h int) string {
	t := theme.Active
	recs := a.filteredRecs()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	order := "desc"
	if !a.rec.desc {
		order = "asc"
	}
	bar := muted.Render("type ") + accent.Render(a.rec.typeLabel()) +
		muted.Render(" · min score ") + accent.Render(cli.FormatScore(a.rec.minScore)) +
		muted.Render(" · sort ") + accent.Render(string(recommend.SortFields[a.rec.sortIdx])+" "+order)
	if a.quotesErr != nil {
		bar += lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Render(" · quotes unavailable")
	}

	if len(recs) == 0 {
		body := bar + "\n\n" + muted.Render("Nothing matches. Lower the min score with [-] or press [t] to show every type.")
		if a.rec.lastDismissed != "" {
			body += "\n" + muted.Render("[u] undo last dismiss")
		}
		return components.ContentCard("Recommendations", body, cw)
	}

	if a.isCompactLayout() {
		return a.renderRecList(recs, bar, cw, h)
	}
	leftW := cw * 3 / 5
	return components.CardRow([]string{
		a.renderRecList(recs, bar, leftW, h),
		a.renderRecDetail(recs[a.rec.cursor], cw-leftW),
	})
}

func (a App) renderRecList(recs []model.Recommendation, bar string, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	header := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	scoreW, typeW, costW := 5, 9, 11
	titleW := max(inner-scoreW-typeW-costW-3, 10)

	var body strings.Builder
	body.WriteString(bar)
	body.WriteString("\n")
	body.WriteString(header.Render(fmt.Sprintf("%*s %-*s %-*s %*s", scoreW, "Score", typeW, "Type", titleW, "Suggestion", costW, "Cost")))
	body.WriteString("\n")

	start, end := visibleWindow(a.rec.cursor, a.rec.offset, len(recs), h-7)
	for i := start; i < end; i++ {
		r := recs[i]
		line := fmt.Sprintf("%*s %-*s %-*s %*s", scoreW, cli.FormatScore(r.Score), typeW, r.Type,
			titleW, components.Truncate(r.Title, titleW), costW, cli.FormatMoney(a.money, r.EstimatedCost))
		if i == a.rec.cursor {
			body.WriteString(selected.Render(line))
		} else {
			body.WriteString(row.Render(line))
		}
		body.WriteString("\n")
	}
	body.WriteString(hint.Render("[t] type  [+/-] score  [s] sort  [v] order  [d] dismiss  [u] undo"))

	return components.ContentCard(fmt.Sprintf("Recommendations [%d of %d]", len(recs), len(a.recs)), body.String(), w)
}

func (a App) renderRecDetail(r model.Recommendation, w int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	inner := components.CardInnerWidth(w)

	var body strings.Builder
	line := func(k, v string) {
		body.WriteString(label.Render(fmt.Sprintf("%-10s", k)))
		body.WriteString(value.Render(v))
		body.WriteString("\n")
	}
	line("Type", string(r.Type))
	line("Score", cli.FormatScore(r.Score)+" / 100")
	line("Cost", a.money.Format(r.EstimatedCost))
	line("Category", orDash(r.Category))
	line("Supplier", orDash(r.Supplier))
	if r.ProjectID != "" {
		if p, ok := a.projectByID(r.ProjectID); ok {
			line("Project", p.Name)
		}
	}

	body.WriteString("\n")
	body.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner).Render(r.Reasoning))

	if len(r.ItemIDs) > 0 && a.data != nil {
		names := make(map[string]string, len(a.data.Items))
		for _, it := range a.data.Items {
			names[it.ID] = it.Name
		}
		body.WriteString("\n\n")
		body.WriteString(label.Render("Parts"))
		for _, id := range r.ItemIDs[:min(len(r.ItemIDs), 6)] {
			name, ok := names[id]
			if !ok {
				continue
			}
			body.WriteString("\n")
			body.WriteString(value.Render("  " + components.Truncate(name, inner-2)))
		}
	}

	return components.ContentCard(components.Truncate(r.Title, inner), body.String(), w)
}
