package filter

import (
	"fmt"
	"sort"
	"time"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Period is a closed interval of months; Start and End are always month starts.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthRange converts arbitrary dates into the month-start period that covers them.
func MonthRange(start, end time.Time) Period {
	return Period{Start: monthStart(start), End: monthStart(end)}
}

func (p Period) Contains(t time.Time) bool {
	t = frame.DateOnly(t)
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01"), p.End.Format("2006-01"))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the first day of the month offset months after base.
func AddMonths(base time.Time, offset int) time.Time {
	total := int(base.Month()) - 1 + offset
	year := base.Year() + floorDiv(total, 12)
	month := floorMod(total, 12) + 1
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func LastDayOfMonth(t time.Time) time.Time {
	return AddMonths(t, 1).AddDate(0, 0, -1)
}

func StartOfQuarter(t time.Time) time.Time {
	quarter := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
}

func EndOfQuarter(t time.Time) time.Time {
	return LastDayOfMonth(AddMonths(StartOfQuarter(t), 2))
}

func StartOfHalfYear(t time.Time) time.Time {
	if t.Month() <= time.June {
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), time.July, 1, 0, 0, 0, 0, time.UTC)
}

func EndOfHalfYear(t time.Time) time.Time {
	if t.Month() <= time.June {
		return time.Date(t.Year(), time.June, 30, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// Clamp pulls [start, end] inside [min, max] and never lets end precede start.
func Clamp(start, end, min, max time.Time) (time.Time, time.Time) {
	if start.Before(min) {
		start = min
	}
	if end.After(max) {
		end = max
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

// Bounds returns the first month-date in f and the last day of its latest month.
func Bounds(f *frame.Frame) (time.Time, time.Time, bool) {
	var lo, hi time.Time
	found := false
	for i := 0; i < f.Len(); i++ {
		t, ok := f.Value(i, orders.ColMonthDate).Time()
		if !ok {
			continue
		}
		if !found || t.Before(lo) {
			lo = t
		}
		if !found || t.After(hi) {
			hi = t
		}
		found = true
	}
	if !found {
		return time.Time{}, time.Time{}, false
	}
	return lo, LastDayOfMonth(hi), true
}

// DefaultRange is the current month through the end of the month after next, clamped to
// the data.
func DefaultRange(today, min, max time.Time) Period {
	start := monthStart(today)
	end := LastDayOfMonth(AddMonths(start, 2))
	start, end = Clamp(start, end, min, max)
	return MonthRange(start, end)
}

// Preset names.
const (
	PresetThisMonth   = "this-month"
	PresetThisQuarter = "this-quarter"
	PresetThisHalf    = "this-half"
	PresetThisYear    = "this-year"
	PresetLastYear    = "last-year"
	PresetTwoYears    = "2y"
	PresetThreeYears  = "3y"
	PresetMax         = "max"
)

// Presets returns the preset names in display order.
func Presets() []string {
	return []string{
		PresetThisMonth, PresetThisQuarter, PresetThisHalf, PresetThisYear,
		PresetLastYear, PresetTwoYears, PresetThreeYears, PresetMax,
	}
}

// Preset resolves a named period relative to today, clamped to [min, max].
func Preset(name string, today, min, max time.Time) (Period, error) {
	today = frame.DateOnly(today)
	year := today.Year()
	jan1 := func(y int) time.Time { return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC) }
	dec31 := func(y int) time.Time { return time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC) }

	var start, end time.Time
	switch name {
	case PresetThisMonth:
		start, end = monthStart(today), LastDayOfMonth(today)
	case PresetThisQuarter:
		start, end = StartOfQuarter(today), EndOfQuarter(today)
	case PresetThisHalf:
		start, end = StartOfHalfYear(today), EndOfHalfYear(today)
	case PresetThisYear:
		start, end = jan1(year), dec31(year)
	case PresetLastYear:
		start, end = jan1(year-1), dec31(year-1)
	case PresetTwoYears:
		start, end = jan1(year-1), dec31(year)
	case PresetThreeYears:
		start, end = jan1(year-2), dec31(year)
	case PresetMax:
		start, end = min, max
	default:
		names := Presets()
		sort.Strings(names)
		return Period{}, fmt.Errorf("unknown period preset %q (want one of %v)", name, names)
	}
	start, end = Clamp(start, end, min, max)
	return MonthRange(start, end), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
