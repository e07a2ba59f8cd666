package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecommendationType classifies a recommendation.
type RecommendationType string

const (
	RecComponent RecommendationType = "component"
	RecProject   RecommendationType = "project"
	RecBundle    RecommendationType = "bundle"
)

// RecommendationTypes lists all recommendation types.
var RecommendationTypes = []RecommendationType{RecComponent, RecProject, RecBundle}

// ParseRecommendationType parses a type name, case-insensitively.
func ParseRecommendationType(s string) (RecommendationType, error) {
	want := RecommendationType(strings.ToLower(strings.TrimSpace(s)))
	for _, rt := range RecommendationTypes {
		if rt == want {
			return rt, nil
		}
	}
	return "", fmt.Errorf("recommendation type %q: %w", s, ErrInvalid)
}

// Recommendation is a suggested purchase, build or bundle.
type Recommendation struct {
	ID            string             `json:"id"`
	Type          RecommendationType `json:"type"`
	Title         string             `json:"title"`
	Category      string             `json:"category,omitempty"`
	Supplier      string             `json:"supplier,omitempty"`
	EstimatedCost decimal.Decimal    `json:"estimated_cost"`
	Score         float64            `json:"score"` // relevance in [0,1]
	Reasoning     string             `json:"reasoning"`
	ItemIDs       []string           `json:"item_ids,omitempty"`
	ProjectID     string             `json:"project_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}
