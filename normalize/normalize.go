// Package normalize coerces raw workbook cells into typed values and adds the derived
// year, month-date and search-index columns.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

var (
	yearPattern  = regexp.MustCompile(`(\d{2})\.`)
	monthPattern = regexp.MustCompile(`(\d{2})\.(\d{2})`)
)

// Apply converts every column of f that schema types as numeric, percent, date or
// mixed-date. Unparseable cells become Null; nothing here returns an error.
func Apply(f *frame.Frame, schema frame.Schema) *frame.Frame {
	out := f.Clone()
	for _, col := range out.Columns() {
		role := schema.Role(col)
		var convert func(frame.Value) frame.Value
		switch role {
		case frame.RoleNumeric, frame.RoleStat, frame.RolePercent:
			convert = toNumber
		case frame.RoleDate:
			convert = toDate
		case frame.RoleMixedDate:
			convert = MixedDate
		default:
			continue
		}
		for i := 0; i < out.Len(); i++ {
			out.Set(i, col, convert(out.Value(i, col)))
		}
	}
	return out
}

// YearOf returns 2000+yy for a "YY.MM" month label.
func YearOf(label string) (int, bool) {
	m := yearPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	yy, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return 2000 + yy, true
}

// MonthDateOf returns the first day of the month a "YY.MM" label encodes.
func MonthDateOf(label string) (time.Time, bool) {
	m := monthPattern.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}, false
	}
	yy, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm < 1 || mm > 12 {
		return time.Time{}, false
	}
	return time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, time.UTC), true
}

func AddYear(f *frame.Frame) *frame.Frame {
	if !f.Has(orders.ColMonth) {
		return f
	}
	return f.AddColumn(orders.ColYear, func(r frame.Row) frame.Value {
		if year, ok := YearOf(r.Get(orders.ColMonth).String()); ok {
			return frame.Number(float64(year))
		}
		return frame.Null()
	})
}

func AddMonthDate(f *frame.Frame) *frame.Frame {
	if !f.Has(orders.ColMonth) {
		return f
	}
	return f.AddColumn(orders.ColMonthDate, func(r frame.Row) frame.Value {
		if start, ok := MonthDateOf(r.Get(orders.ColMonth).String()); ok {
			return frame.Date(start)
		}
		return frame.Null()
	})
}

// AddSearchIndex appends the lowercase concatenation of every cell of the row.
func AddSearchIndex(f *frame.Frame) *frame.Frame {
	return f.AddColumn(orders.ColSearchIndex, func(r frame.Row) frame.Value {
		return frame.Text(IndexText(r.Cells()))
	})
}

// IndexText joins cells with single spaces, lowercased and NFC-normalised.
func IndexText(cells []frame.Value) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cell.String()
	}
	return Fold(strings.Join(parts, " "))
}

// Fold is the case and Unicode normalisation applied to both indexed text and queries.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Detail prepares an order-detail sheet: types per orders.DetailSchema, then the derived
// columns. Applying it to its own output changes nothing.
func Detail(f *frame.Frame) *frame.Frame {
	return AddSearchIndex(AddMonthDate(AddYear(Apply(f, orders.DetailSchema))))
}
