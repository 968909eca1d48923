// Package filter applies faceted equality filters and a month-range predicate to order
// rows, and computes the facet choices and period presets offered to callers.
package filter

import (
	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Facet restricts Column to the Allowed values. An empty Allowed set restricts nothing.
type Facet struct {
	Column  string
	Allowed []string
}

func (f Facet) set() map[string]bool {
	allowed := make(map[string]bool, len(f.Allowed))
	for _, v := range f.Allowed {
		allowed[v] = true
	}
	return allowed
}

// Criteria is the full filter state of one view.
type Criteria struct {
	Period *Period
	Facets []Facet
}

// Without returns a copy of c with the facet on column removed.
func (c Criteria) Without(column string) Criteria {
	out := Criteria{Period: c.Period}
	for _, facet := range c.Facets {
		if facet.Column != column {
			out.Facets = append(out.Facets, facet)
		}
	}
	return out
}

// Facet returns the allowed values for column, or nil when unrestricted.
func (c Criteria) Facet(column string) []string {
	for _, facet := range c.Facets {
		if facet.Column == column {
			return facet.Allowed
		}
	}
	return nil
}

// Apply keeps the rows that satisfy every facet and, when a period is set and the frame
// carries a month-date column, fall within it. Facets are applied before the period.
func Apply(f *frame.Frame, c Criteria) *frame.Frame {
	type active struct {
		column  string
		allowed map[string]bool
	}
	var checks []active
	for _, facet := range c.Facets {
		if len(facet.Allowed) == 0 || !f.Has(facet.Column) {
			continue
		}
		checks = append(checks, active{column: facet.Column, allowed: facet.set()})
	}

	out := f
	if len(checks) > 0 {
		out = f.Filter(func(r frame.Row) bool {
			for _, check := range checks {
				v := r.Get(check.column)
				if v.IsNull() || !check.allowed[v.String()] {
					return false
				}
			}
			return true
		})
	}
	if c.Period != nil && out.Has(orders.ColMonthDate) {
		out = ApplyPeriod(out, *c.Period)
	}
	return out
}

// ApplyPeriod keeps rows whose month-date lies in p. Rows without a month-date are dropped.
func ApplyPeriod(f *frame.Frame, p Period) *frame.Frame {
	if !f.Has(orders.ColMonthDate) {
		return f
	}
	return f.Filter(func(r frame.Row) bool {
		start, ok := r.Get(orders.ColMonthDate).Time()
		return ok && p.Contains(start)
	})
}

// Choices returns the selectable values of every facet column present in f. They are
// drawn from the rows inside period (when given) before any facet is applied.
func Choices(f *frame.Frame, period *Period) map[string][]string {
	base := f
	if period != nil {
		base = ApplyPeriod(f, *period)
	}
	out := make(map[string][]string, len(orders.FacetColumns))
	for _, col := range orders.FacetColumns {
		if !base.Has(col) {
			continue
		}
		out[col] = base.Distinct(col)
	}
	return out
}
