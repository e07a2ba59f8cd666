// Package report renders the markdown budget report.
package report

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/model"
)

//go:embed templates/*.md
var templates embed.FS

// Data is everything the report shows.
type Data struct {
	Title           string
	GeneratedAt     time.Time
	Days            int
	Budget          model.BudgetStats
	Analysis        model.SpendingAnalysis
	Projects        []model.ProjectCostStats
	Totals          model.ProjectCostStats
	Recommendations []model.Recommendation

	Format *currency.Formatter
}

// Currency returns the report currency code.
func (d Data) Currency() string { return d.formatter().Code() }

func (d Data) formatter() *currency.Formatter {
	if d.Format == nil {
		return currency.MustNew(currency.DefaultCode)
	}
	return d.Format
}

var partials = map[string]string{
	"report_budget":          "report_budget.md",
	"report_spend":           "report_spend.md",
	"report_projects":        "report_projects.md",
	"report_recommendations": "report_recommendations.md",
}

// Markdown renders d as markdown.
func Markdown(d Data) (string, error) {
	if d.Title == "" {
		d.Title = "partsbin report"
	}
	f := d.formatter()
	funcs := template.FuncMap{
		"money": func(v decimal.Decimal) string { return f.Format(v) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	}
	return renderTemplate("report", "report.md", partials, funcs, d)
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(name, mainFile string, partials map[string]string, funcs template.FuncMap, data any) (string, error) {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return "", fmt.Errorf("reading template %q: %w", mainFile, err)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", mainFile, err)
	}

	for alias, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return "", fmt.Errorf("reading partial %q: %w", file, err)
		}
		if _, err := tmpl.New(alias).Parse(string(content)); err != nil {
			return "", fmt.Errorf("parsing partial %q: %w", file, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("executing template %q: %w", name, err)
	}
	return b.String(), nil
}

// Terminal renders markdown for a terminal of the given width.
// An empty style picks dark or light from the terminal background.
func Terminal(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width, 40))}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r.Render(md)
}
