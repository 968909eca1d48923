package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Priority is one ranked product.
type Priority struct {
	Rank      int     `json:"rank"`
	Product   string  `json:"product"`
	AvgDemand float64 `json:"avg_demand"`
	TotalQty  float64 `json:"total_qty"`
	POCount   int     `json:"po_count"`
	Streak    int     `json:"streak"`
	Share     float64 `json:"share"`

	hasAvg bool
}

// HasAvgDemand is false when none of the product's orders carried a quantity.
func (p Priority) HasAvgDemand() bool { return p.hasAvg }

// MaxConsecutiveMonths returns the longest run of calendar-adjacent months among months.
// Duplicates are ignored and adjacency is by year*12+month, not by day.
func MaxConsecutiveMonths(months []time.Time) int {
	seen := map[int]bool{}
	keys := make([]int, 0, len(months))
	for _, m := range months {
		if m.IsZero() {
			continue
		}
		key := m.Year()*12 + int(m.Month())
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return 0
	}
	sort.Ints(keys)
	best, current := 1, 1
	for i := 1; i < len(keys); i++ {
		if keys[i]-keys[i-1] == 1 {
			current++
		} else {
			current = 1
		}
		if current > best {
			best = current
		}
	}
	return best
}

// ProductPriority ranks the products of f by quantity share, then mean quantity per
// order, then monthly streak, all descending. Ties keep the order in which products first
// appear in f. Rows without a product name are ignored.
func ProductPriority(f *frame.Frame) []Priority {
	if f.Len() == 0 || !f.Has(orders.ColProduct) || !f.Has(orders.ColOrderQty) {
		return nil
	}
	f = normalize.AddMonthDate(f)

	named := f.Filter(func(r frame.Row) bool {
		v := r.Get(orders.ColProduct)
		return !v.IsNull() && strings.TrimSpace(v.String()) != ""
	})
	all := make([]int, named.Len())
	for i := range all {
		all[i] = i
	}
	grandTotal := Sum(named, orders.ColOrderQty, all)

	groups := named.GroupBy(orders.ColProduct)
	out := make([]Priority, 0, len(groups))
	for _, g := range groups {
		p := Priority{Product: g.Key[0].String()}
		p.TotalQty = Sum(named, orders.ColOrderQty, g.Rows)
		if avg, ok := Mean(named, orders.ColOrderQty, g.Rows); ok {
			p.AvgDemand, p.hasAvg = avg, true
		}
		p.POCount = distinctCount(named, orders.ColWorkOrder, g.Rows)

		var months []time.Time
		for _, i := range g.Rows {
			if t, ok := named.Value(i, orders.ColMonthDate).Time(); ok {
				months = append(months, t)
			}
		}
		p.Streak = MaxConsecutiveMonths(months)

		if grandTotal != 0 {
			p.Share = p.TotalQty / grandTotal * 100
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Share != b.Share {
			return a.Share > b.Share
		}
		if a.hasAvg != b.hasAvg {
			return a.hasAvg
		}
		if a.AvgDemand != b.AvgDemand {
			return a.AvgDemand > b.AvgDemand
		}
		return a.Streak > b.Streak
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func distinctCount(f *frame.Frame, col string, rows []int) int {
	seen := map[string]bool{}
	for _, i := range rows {
		v := f.Value(i, col)
		if v.IsNull() {
			continue
		}
		seen[v.String()] = true
	}
	return len(seen)
}

// PriorityColumns is the column order of PriorityFrame.
var PriorityColumns = []string{
	orders.ColPriority,
	orders.ColProduct,
	orders.ColAvgDemand,
	orders.ColTotalQty,
	orders.ColPOCount,
	orders.ColPOStreak,
	orders.ColShare,
}

// PriorityFrame lays the ranking out as a table typed by orders.PrioritySchema.
func PriorityFrame(ranking []Priority) *frame.Frame {
	out := frame.New(PriorityColumns...)
	for _, p := range ranking {
		avg := frame.Null()
		if p.hasAvg {
			avg = frame.Number(p.AvgDemand)
		}
		out.Append(
			frame.Number(float64(p.Rank)),
			frame.Text(p.Product),
			avg,
			frame.Number(p.TotalQty),
			frame.Number(float64(p.POCount)),
			frame.Number(float64(p.Streak)),
			frame.Number(p.Share),
		)
	}
	return out
}
