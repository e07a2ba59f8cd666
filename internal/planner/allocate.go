package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/partsbin/internal/model"
)

// Strategy selects how Allocate splits money across needs.
type Strategy string

const (
	Proportional Strategy = "proportional"
	Priority     Strategy = "priority"
	Equal        Strategy = "equal"
)

// Strategies lists all allocation strategies.
var Strategies = []Strategy{Proportional, Priority, Equal}

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	want := Strategy(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Strategies {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("allocation strategy %q: %w", s, model.ErrInvalid)
}

// Need is one project's remaining purchase cost.
type Need struct {
	ProjectID string
	Name      string
	Priority  int
	Deadline  time.Time
	Amount    decimal.Decimal
}

// AllocationItem is the money assigned to one need.
type AllocationItem struct {
	ProjectID string
	Name      string
	Priority  int
	Requested decimal.Decimal
	Allocated decimal.Decimal
	Shortfall decimal.Decimal
	Share     float64 // allocated / total
}

// Allocation is the result of splitting a total across needs.
type Allocation struct {
	Strategy    Strategy
	Total       decimal.Decimal
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
	Funded      int // needs fully covered
	Items       []AllocationItem
}

// Allocate splits total across needs. Items come back in priority order
// (priority, then deadline with undated last, then name). Total and needs
// are rounded down to cents, so neither an item's allocation nor the
// allocated sum exceeds the real need or total; any rounding residue goes
// to the first item with room.
func Allocate(total decimal.Decimal, needs []Need, strategy Strategy) Allocation {
	sorted := append([]Need(nil), needs...)
	sortNeeds(sorted)

	avail := toCents(total)
	if avail < 0 {
		avail = 0
	}
	req := make([]int64, len(sorted))
	for i, n := range sorted {
		req[i] = max(toCents(n.Amount), 0)
	}

	var got []int64
	switch strategy {
	case Proportional:
		got = allocateProportional(avail, req)
	case Equal:
		got = allocateEqual(avail, req)
	default:
		strategy = Priority
		got = allocatePriority(avail, req)
	}

	a := Allocation{Strategy: strategy, Total: fromCents(avail)}
	var allocated int64
	for i, n := range sorted {
		item := AllocationItem{
			ProjectID: n.ProjectID,
			Name:      n.Name,
			Priority:  n.Priority,
			Requested: fromCents(req[i]),
			Allocated: fromCents(got[i]),
			Shortfall: fromCents(req[i] - got[i]),
		}
		if avail > 0 {
			item.Share = float64(got[i]) / float64(avail)
		}
		if req[i] > 0 && got[i] == req[i] {
			a.Funded++
		}
		allocated += got[i]
		a.Items = append(a.Items, item)
	}
	a.Allocated = fromCents(allocated)
	a.Unallocated = fromCents(avail - allocated)
	return a
}

func sortNeeds(needs []Need) {
	sort.SliceStable(needs, func(i, j int) bool {
		a, b := needs[i], needs[j]
		pa, pb := normPriority(a.Priority), normPriority(b.Priority)
		if pa != pb {
			return pa < pb
		}
		if !a.Deadline.Equal(b.Deadline) {
			switch {
			case a.Deadline.IsZero():
				return false
			case b.Deadline.IsZero():
				return true
			}
			return a.Deadline.Before(b.Deadline)
		}
		return a.Name < b.Name
	})
}

func normPriority(p int) int {
	return model.Project{Priority: p}.EffectivePriority()
}

func allocatePriority(avail int64, req []int64) []int64 {
	got := make([]int64, len(req))
	for i, r := range req {
		give := min(r, avail)
		got[i] = give
		avail -= give
	}
	return got
}

func allocateProportional(avail int64, req []int64) []int64 {
	got := make([]int64, len(req))
	var sum int64
	for _, r := range req {
		sum += r
	}
	if sum == 0 {
		return got
	}
	if avail >= sum {
		copy(got, req)
		return got
	}

	var given int64
	for i, r := range req {
		// avail < sum, so each share is strictly below its need.
		got[i] = mulDiv(avail, r, sum)
		given += got[i]
	}
	distributeResidue(got, req, avail-given)
	return got
}

func allocateEqual(avail int64, req []int64) []int64 {
	got := make([]int64, len(req))
	for {
		var open []int
		for i := range req {
			if got[i] < req[i] {
				open = append(open, i)
			}
		}
		if len(open) == 0 || avail == 0 {
			break
		}
		share := avail / int64(len(open))
		if share == 0 {
			distributeResidue(got, req, avail)
			break
		}
		for _, i := range open {
			give := min(share, req[i]-got[i])
			got[i] += give
			avail -= give
		}
	}
	return got
}

// distributeResidue gives leftover cents to the first items with room.
func distributeResidue(got, req []int64, residue int64) {
	for i := range got {
		if residue <= 0 {
			return
		}
		room := req[i] - got[i]
		give := min(room, residue)
		got[i] += give
		residue -= give
	}
}

// mulDiv returns floor(a*b/c) without overflowing int64 for realistic amounts.
func mulDiv(a, b, c int64) int64 {
	return decimal.NewFromInt(a).Mul(decimal.NewFromInt(b)).Div(decimal.NewFromInt(c)).Floor().IntPart()
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Floor().IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
