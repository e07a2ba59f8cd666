package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusPaused    ProjectStatus = "paused"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []ProjectStatus{StatusPlanning, StatusActive, StatusPaused, StatusCompleted, StatusCancelled}

// ParseProjectStatus parses a status name, case-insensitively.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	want := ProjectStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("project status %q: %w", s, ErrInvalid)
}

// Project is a user-defined build with a bill of materials.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Budget      decimal.Decimal // zero means no budget set
	Priority    int             // 1 (highest) to 5
	Deadline    time.Time
	Components  []ProjectComponent
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectComponent is one bill-of-materials line.
// ItemID links to an inventory item; free-standing parts leave it empty.
type ProjectComponent struct {
	ItemID    string
	Name      string
	Category  string
	Supplier  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Cost returns the line cost.
func (c ProjectComponent) Cost() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cost returns the total planned cost of the bill of materials.
func (p Project) Cost() decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Components {
		total = total.Add(c.Cost())
	}
	return total
}

// IsOpen reports whether the project still needs parts or money.
func (p Project) IsOpen() bool {
	switch p.Status {
	case StatusPlanning, StatusActive, StatusPaused:
		return true
	}
	return false
}

// EffectivePriority clamps Priority into 1..5, treating unset as 3.
func (p Project) EffectivePriority() int {
	switch {
	case p.Priority <= 0:
		return 3
	case p.Priority > 5:
		return 5
	}
	return p.Priority
}
