package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

// SortField orders filtered recommendations.
type SortField string

const (
	SortRelevance SortField = "relevance"
	SortCost      SortField = "cost"
	SortName      SortField = "name"
	SortCategory  SortField = "category"
)

// SortFields lists the sort fields in cycle order.
var SortFields = []SortField{SortRelevance, SortCost, SortName, SortCategory}

// ParseSortField parses a sort field name; empty means relevance.
func ParseSortField(s string) (SortField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortRelevance, nil
	}
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("sort field %q: %w", s, model.ErrInvalid)
}

// Filter narrows and orders a recommendation list.
type Filter struct {
	Types    []model.RecommendationType // empty matches all
	Category string                     // case-insensitive substring
	Query    string                     // matched against title, reasoning and supplier
	MinScore float64                    // inclusive
	MaxCost  decimal.Decimal            // zero means no limit
	Sort     SortField
	Desc     bool
	Limit    int // 0 means unlimited
}

// DefaultFilter returns the filter used when nothing is set: most relevant first.
func DefaultFilter() Filter {
	return Filter{Sort: SortRelevance, Desc: true}
}

// Apply returns the recommendations matching f, ordered and truncated.
// The input slice is not modified.
func Apply(recs []model.Recommendation, f Filter) []model.Recommendation {
	types := make(map[model.RecommendationType]bool, len(f.Types))
	for _, t := range f.Types {
		types[t] = true
	}

	var out []model.Recommendation
	for _, r := range recs {
		if len(types) > 0 && !types[r.Type] {
			continue
		}
		if f.Category != "" && !containsIgnoreCase(r.Category, f.Category) {
			continue
		}
		if f.Query != "" && !containsIgnoreCase(r.Title, f.Query) &&
			!containsIgnoreCase(r.Reasoning, f.Query) && !containsIgnoreCase(r.Supplier, f.Query) {
			continue
		}
		if r.Score < f.MinScore {
			continue
		}
		if f.MaxCost.IsPositive() && r.EstimatedCost.GreaterThan(f.MaxCost) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], f.Sort)
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func compare(a, b model.Recommendation, field SortField) int {
	switch field {
	case SortCost:
		return a.EstimatedCost.Cmp(b.EstimatedCost)
	case SortName:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortCategory:
		return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	default:
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	}
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
