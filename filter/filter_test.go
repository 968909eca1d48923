package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func detail() *frame.Frame {
	f := frame.New(orders.ColWorkOrder, orders.ColMonth, orders.ColType, orders.ColStatus, orders.ColOwner, orders.ColMonthDate)
	f.Append(frame.Text("W-1"), frame.Text("24.01"), frame.Text("수출"), frame.Text("출고완료"), frame.Text("kim"), frame.Date(month(2024, 1)))
	f.Append(frame.Text("W-2"), frame.Text("24.02"), frame.Text("내수"), frame.Text("미진행"), frame.Text("lee"), frame.Date(month(2024, 2)))
	f.Append(frame.Text("W-3"), frame.Text("24.03"), frame.Text("수출"), frame.Text("미진행"), frame.Text("kim"), frame.Date(month(2024, 3)))
	f.Append(frame.Text("W-4"), frame.Text("bad"), frame.Text("수출"), frame.Null(), frame.Text("park"), frame.Null())
	return f
}

func workOrders(f *frame.Frame) []string {
	var out []string
	for i := 0; i < f.Len(); i++ {
		out = append(out, f.Value(i, orders.ColWorkOrder).String())
	}
	return out
}

func TestApplyEmptyFacetsRestrictNothing(t *testing.T) {
	out := Apply(detail(), Criteria{Facets: []Facet{{Column: orders.ColType}, {Column: orders.ColStatus, Allowed: []string{}}}})
	assert.Equal(t, 4, out.Len())
}

func TestApplyConjunctionAcrossDisjunctionWithin(t *testing.T) {
	c := Criteria{Facets: []Facet{
		{Column: orders.ColType, Allowed: []string{"수출"}},
		{Column: orders.ColOwner, Allowed: []string{"kim", "park"}},
		{Column: orders.ColCountry, Allowed: []string{"KR"}},
	}}
	out := Apply(detail(), c)
	assert.Equal(t, []string{"W-1", "W-3", "W-4"}, workOrders(out))

	c.Facets = append(c.Facets, Facet{Column: orders.ColStatus, Allowed: []string{"미진행"}})
	assert.Equal(t, []string{"W-3"}, workOrders(Apply(detail(), c)))
}

func TestApplyPeriodDropsMissingMonthDate(t *testing.T) {
	p := MonthRange(month(2024, 2), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	out := Apply(detail(), Criteria{Period: &p})
	assert.Equal(t, []string{"W-2", "W-3"}, workOrders(out))
}

func TestApplyIsIdempotent(t *testing.T) {
	p := MonthRange(month(2024, 1), month(2024, 2))
	c := Criteria{Period: &p, Facets: []Facet{{Column: orders.ColOwner, Allowed: []string{"kim", "lee"}}}}
	once := Apply(detail(), c)
	twice := Apply(once, c)
	assert.Equal(t, workOrders(once), workOrders(twice))
}

func TestApplyZeroRows(t *testing.T) {
	out := Apply(frame.New(orders.ColType, orders.ColMonthDate), Criteria{Facets: []Facet{{Column: orders.ColType, Allowed: []string{"x"}}}})
	assert.Equal(t, 0, out.Len())
}

func TestWithout(t *testing.T) {
	c := Criteria{Facets: []Facet{{Column: orders.ColMonth, Allowed: []string{"24.01"}}, {Column: orders.ColType, Allowed: []string{"수출"}}}}
	out := Apply(detail(), c.Without(orders.ColMonth))
	assert.Equal(t, []string{"W-1", "W-3", "W-4"}, workOrders(out))
	assert.Nil(t, c.Without(orders.ColMonth).Facet(orders.ColMonth))
}

func TestChoicesUsePeriodBeforeFacets(t *testing.T) {
	p := MonthRange(month(2024, 2), month(2024, 3))
	choices := Choices(detail(), &p)
	assert.Equal(t, []string{"24.02", "24.03"}, choices[orders.ColMonth])
	assert.Equal(t, []string{"내수", "수출"}, choices[orders.ColType])
	assert.Equal(t, []string{"미진행"}, choices[orders.ColStatus])
	_, hasCountry := choices[orders.ColCountry]
	assert.False(t, hasCountry)

	all := Choices(detail(), nil)
	assert.Equal(t, []string{"kim", "lee", "park"}, all[orders.ColOwner])
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, month(2025, 1), AddMonths(month(2024, 11), 2))
	assert.Equal(t, month(2023, 12), AddMonths(month(2024, 1), -1))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), LastDayOfMonth(month(2024, 2)))
}

func TestQuarterAndHalf(t *testing.T) {
	day := time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, month(2024, 7), StartOfQuarter(day))
	assert.Equal(t, time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), EndOfQuarter(day))
	assert.Equal(t, month(2024, 7), StartOfHalfYear(day))
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), EndOfHalfYear(day))
}

func TestPresetClamped(t *testing.T) {
	today := time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC)
	lo, hi, ok := Bounds(detail())
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), hi)

	p, err := Preset(PresetThisYear, today, lo, hi)
	require.NoError(t, err)
	assert.Equal(t, MonthRange(month(2024, 1), month(2024, 3)), p)

	p, err = Preset(PresetThisQuarter, today, lo, hi)
	require.NoError(t, err)
	assert.Equal(t, month(2024, 7), p.Start, "start is only clamped from below")
	assert.Equal(t, month(2024, 7), p.End, "end never precedes start")

	_, err = Preset("decade", today, lo, hi)
	assert.Error(t, err)
}

func TestDefaultRange(t *testing.T) {
	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	p := DefaultRange(today, month(2023, 1), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, MonthRange(month(2024, 2), month(2024, 4)), p)
}
