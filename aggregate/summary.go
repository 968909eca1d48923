// Package aggregate computes the grouped order summaries, on-time compliance, monthly
// order streaks and the product priority ranking.
package aggregate

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Column pairs summed per group: source column -> summary column.
var summedColumns = []struct{ source, target string }{
	{orders.ColOrderQty, orders.ColQtyTotal},
	{orders.ColOrderAmount, orders.ColAmountTotal},
	{orders.ColAmountKRW, orders.ColKRWTotal},
	{orders.ColAmountUSD, orders.ColUSDTotal},
}

// SummaryColumns are the metric columns appended after the group keys.
var SummaryColumns = []string{
	orders.ColWorkOrderCount,
	orders.ColQtyTotal,
	orders.ColAmountTotal,
	orders.ColKRWTotal,
	orders.ColUSDTotal,
	orders.ColLeadtimeMean,
	orders.ColDuePlanRate,
}

type summaryRow struct {
	key   []frame.Value
	total bool
	cells []frame.Value
}

// Summarize groups f by keys and computes order counts, quantity and amount sums, mean
// leadtime and compliance rate. The last key is the category: for every combination of
// the preceding keys a "합계" row covering all categories is appended and sorted after
// the real ones.
func Summarize(f *frame.Frame, keys ...string) *frame.Frame {
	out := frame.New(append(append([]string{}, keys...), SummaryColumns...)...)
	if len(keys) == 0 || f.Len() == 0 {
		return out
	}
	outer := keys[:len(keys)-1]

	var rows []summaryRow
	for _, g := range f.GroupBy(keys...) {
		rows = append(rows, summaryRow{key: g.Key, cells: metrics(f, g.Rows)})
	}
	for _, g := range f.GroupBy(outer...) {
		key := append(append([]frame.Value{}, g.Key...), frame.Text(orders.TotalLabel))
		rows = append(rows, summaryRow{key: key, total: true, cells: metrics(f, g.Rows)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := range outer {
			if c := frame.Compare(a.key[k], b.key[k]); c != 0 {
				return c < 0
			}
		}
		if a.total != b.total {
			return !a.total
		}
		return frame.Compare(a.key[len(outer)], b.key[len(outer)]) < 0
	})

	for _, row := range rows {
		out.Append(append(row.key, row.cells...)...)
	}
	return out
}

func metrics(f *frame.Frame, rows []int) []frame.Value {
	cells := make([]frame.Value, 0, len(SummaryColumns))

	count := 0
	for _, i := range rows {
		if !f.Value(i, orders.ColWorkOrder).IsNull() {
			count++
		}
	}
	cells = append(cells, frame.Number(float64(count)))

	for _, pair := range summedColumns {
		if !f.Has(pair.source) {
			cells = append(cells, frame.Null())
			continue
		}
		cells = append(cells, frame.Number(Sum(f, pair.source, rows)))
	}

	if mean, ok := Mean(f, orders.ColLeadtime, rows); ok {
		cells = append(cells, frame.Number(mean))
	} else {
		cells = append(cells, frame.Null())
	}

	cells = append(cells, frame.Number(ComplianceRate(f, rows)))
	return cells
}

// Sum adds the numeric cells of col over rows, skipping nulls. Accumulation is decimal so
// currency totals do not drift.
func Sum(f *frame.Frame, col string, rows []int) float64 {
	total := decimal.Zero
	for _, i := range rows {
		if v, ok := f.Value(i, col).Float(); ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	return total.InexactFloat64()
}

// Mean averages the numeric cells of col over rows; false when there are none.
func Mean(f *frame.Frame, col string, rows []int) (float64, bool) {
	total := decimal.Zero
	n := 0
	for _, i := range rows {
		if v, ok := f.Value(i, col).Float(); ok {
			total = total.Add(decimal.NewFromFloat(v))
			n++
		}
	}
	if n == 0 {
		return math.NaN(), false
	}
	return total.InexactFloat64() / float64(n), true
}

// YearSummary is the year x type summary.
func YearSummary(f *frame.Frame) *frame.Frame {
	return Summarize(f, orders.ColYear, orders.ColType)
}

// MonthlySummary is the year x month x type summary.
func MonthlySummary(f *frame.Frame) *frame.Frame {
	return Summarize(f, orders.ColYear, orders.ColMonth, orders.ColType)
}

// BlankRepeated clears every occurrence of a value in col after its first, so an outer
// group key is shown once per block.
func BlankRepeated(f *frame.Frame, col string) *frame.Frame {
	out := f.Clone()
	seen := map[string]bool{}
	for i := 0; i < out.Len(); i++ {
		v := out.Value(i, col)
		token := v.String()
		if v.IsNull() {
			token = "\x00"
		}
		if seen[token] {
			out.Set(i, col, frame.Null())
			continue
		}
		seen[token] = true
	}
	return out
}
