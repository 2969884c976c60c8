package planner

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrBudgetTable = errors.New("budget percentages do not sum to 100")

// BudgetBreakdown holds whole-number percentages per spending category.
type BudgetBreakdown struct {
	Flights       int `json:"flights" yaml:"flights"`
	Accommodation int `json:"accommodation" yaml:"accommodation"`
	Food          int `json:"food" yaml:"food"`
	Activities    int `json:"activities" yaml:"activities"`
	Transport     int `json:"transport" yaml:"transport"`
	Emergency     int `json:"emergency" yaml:"emergency"`
}

func (b BudgetBreakdown) Sum() int {
	return b.Flights + b.Accommodation + b.Food + b.Activities + b.Transport + b.Emergency
}

func (b BudgetBreakdown) Add(d BudgetBreakdown) BudgetBreakdown {
	return BudgetBreakdown{
		Flights:       b.Flights + d.Flights,
		Accommodation: b.Accommodation + d.Accommodation,
		Food:          b.Food + d.Food,
		Activities:    b.Activities + d.Activities,
		Transport:     b.Transport + d.Transport,
		Emergency:     b.Emergency + d.Emergency,
	}
}

func (b BudgetBreakdown) valid() bool {
	return b.Sum() == 100 && b.Flights >= 0 && b.Accommodation >= 0 && b.Food >= 0 &&
		b.Activities >= 0 && b.Transport >= 0 && b.Emergency >= 0
}

// BudgetAmounts is a breakdown applied to a total.
type BudgetAmounts struct {
	Flights       float64 `json:"flights"`
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Activities    float64 `json:"activities"`
	Transport     float64 `json:"transport"`
	Emergency     float64 `json:"emergency"`
}

func (a BudgetAmounts) Sum() float64 {
	return a.Flights + a.Accommodation + a.Food + a.Activities + a.Transport + a.Emergency
}

// Amounts splits total by the percentages. Rounding leftovers go to the
// emergency fund so the amounts always add back up to total.
func (b BudgetBreakdown) Amounts(total float64) BudgetAmounts {
	share := func(pct int) float64 { return roundCents(total * float64(pct) / 100) }
	a := BudgetAmounts{
		Flights:       share(b.Flights),
		Accommodation: share(b.Accommodation),
		Food:          share(b.Food),
		Activities:    share(b.Activities),
		Transport:     share(b.Transport),
	}
	a.Emergency = roundCents(total - a.Flights - a.Accommodation - a.Food - a.Activities - a.Transport)
	return a
}

// Breakdown picks the percentage table for a region and trip length.
func (r *Rules) Breakdown(region string, days int) (BudgetBreakdown, error) {
	table := r.Budget.Default
	if t, ok := r.Budget.Regions[strings.ToLower(region)]; ok {
		table = t
	}
	if r.Budget.LongTrip.AfterDays > 0 && days > r.Budget.LongTrip.AfterDays {
		table = table.Add(r.Budget.LongTrip.Delta)
	}
	if !table.valid() {
		return BudgetBreakdown{}, fmt.Errorf("%w: %+v", ErrBudgetTable, table)
	}
	return table, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
