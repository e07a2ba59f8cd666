package recommend

import (
	"testing"

	"github.com/theirongolddev/partsbin/internal/model"
)

func filterRecs() []model.Recommendation {
	return []model.Recommendation{
		{ID: "a", Type: model.RecComponent, Title: "Buy resistors", Category: "passives", Supplier: "digikey", EstimatedCost: dec("2"), Score: 0.5},
		{ID: "b", Type: model.RecProject, Title: "Build clock", Category: "mcu", EstimatedCost: dec("30"), Score: 0.9},
		{ID: "c", Type: model.RecBundle, Title: "Order from mouser", Category: "mcu", Supplier: "mouser", EstimatedCost: dec("12"), Score: 0.7},
		{ID: "d", Type: model.RecComponent, Title: "Another part", Category: "display", EstimatedCost: dec("12"), Score: 0.5},
	}
}

func ids(recs []model.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"default", DefaultFilter(), []string{"b", "c", "a", "d"}},
		{"types", Filter{Types: []model.RecommendationType{model.RecComponent}, Desc: true}, []string{"a", "d"}},
		{"category", Filter{Category: "MC", Desc: true}, []string{"b", "c"}},
		{"query supplier", Filter{Query: "digi"}, []string{"a"}},
		{"min score inclusive", Filter{MinScore: 0.7, Desc: true}, []string{"b", "c"}},
		{"max cost", Filter{MaxCost: dec("12"), Sort: SortCost}, []string{"a", "c", "d"}},
		{"cost desc", Filter{Sort: SortCost, Desc: true}, []string{"b", "c", "d", "a"}},
		{"name", Filter{Sort: SortName}, []string{"d", "b", "a", "c"}},
		{"category asc", Filter{Sort: SortCategory}, []string{"d", "b", "c", "a"}},
		{"limit", Filter{Desc: true, Limit: 2}, []string{"b", "c"}},
		{"limit zero unlimited", Filter{Limit: 0}, []string{"a", "d", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(filterRecs(), tt.f))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Apply = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	recs := filterRecs()
	Apply(recs, Filter{Sort: SortName})
	if got := ids(recs); got[0] != "a" || got[3] != "d" {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestParseSortField(t *testing.T) {
	if f, err := ParseSortField(""); err != nil || f != SortRelevance {
		t.Fatalf("ParseSortField(\"\") = %q, %v", f, err)
	}
	if f, err := ParseSortField("Cost"); err != nil || f != SortCost {
		t.Fatalf("ParseSortField(Cost) = %q, %v", f, err)
	}
	if _, err := ParseSortField("price"); err == nil {
		t.Fatal("ParseSortField(price) succeeded")
	}
}
