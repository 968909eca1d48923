package aggregate

import (
	"math"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// GroupRate is the on-time rate of one group.
type GroupRate struct {
	Key  []frame.Value
	Rate float64
}

// ComplianceRate returns the percentage of the given rows whose plan-due status is not
// delayed. Rows are counted by work order. An empty set, or a frame without the status
// column, yields NaN.
func ComplianceRate(f *frame.Frame, rows []int) float64 {
	if !f.Has(orders.ColDuePlan) {
		return math.NaN()
	}
	total, delayed := 0, 0
	for _, i := range rows {
		if f.Value(i, orders.ColWorkOrder).IsNull() {
			continue
		}
		total++
		if f.Value(i, orders.ColDuePlan).String() == orders.DelayedLabel {
			delayed++
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return float64(total-delayed) / float64(total) * 100
}

// ComplianceRates computes ComplianceRate for every group of keys.
func ComplianceRates(f *frame.Frame, keys ...string) []GroupRate {
	groups := f.GroupBy(keys...)
	out := make([]GroupRate, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupRate{Key: g.Key, Rate: ComplianceRate(f, g.Rows)})
	}
	return out
}
