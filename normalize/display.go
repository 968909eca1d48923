package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ssungjun83/Order-Dashboard/frame"
)

// Display prepares f for presentation: numbers are rounded to integers, percents to one
// decimal, date columns lose any time of day and mixed-date columns are coerced.
// Rounding is half-to-even.
func Display(f *frame.Frame, schema frame.Schema) *frame.Frame {
	out := f.Clone()
	for _, col := range out.Columns() {
		role := schema.Role(col)
		for i := 0; i < out.Len(); i++ {
			v := out.Value(i, col)
			switch role {
			case frame.RoleNumeric, frame.RoleStat:
				out.Set(i, col, roundValue(toNumber(v), 0))
			case frame.RolePercent:
				out.Set(i, col, roundValue(toNumber(v), 1))
			case frame.RoleDate:
				out.Set(i, col, toDate(v))
			case frame.RoleMixedDate:
				out.Set(i, col, MixedDate(v))
			}
		}
	}
	return out
}

func roundValue(v frame.Value, places int) frame.Value {
	n, ok := v.Float()
	if !ok {
		return v
	}
	return frame.Number(Round(n, places))
}

// Round rounds half-to-even at the given number of decimal places.
func Round(v float64, places int) float64 {
	if places == 0 {
		return math.RoundToEven(v)
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}

// FormatNumber renders an integer with thousands separators, e.g. "12,346".
func FormatNumber(v frame.Value) string {
	n, ok := v.Float()
	if !ok {
		return v.String()
	}
	return groupThousands(int64(math.RoundToEven(n)))
}

// FormatPercent renders one decimal followed by a percent sign, e.g. "45.5%".
func FormatPercent(v frame.Value) string {
	n, ok := v.Float()
	if !ok {
		return v.String()
	}
	return fmt.Sprintf("%.1f%%", n)
}

// FormatDate renders dates as ISO; text is cut to its first ten characters.
func FormatDate(v frame.Value) string {
	if t, ok := v.Time(); ok {
		return t.Format("2006-01-02")
	}
	text := []rune(v.String())
	if len(text) >= 10 {
		return string(text[:10])
	}
	return string(text)
}

// FormatCell renders v according to role.
func FormatCell(role frame.Role, v frame.Value) string {
	if v.IsNull() {
		return ""
	}
	switch role {
	case frame.RolePercent:
		return FormatPercent(v)
	case frame.RoleNumeric, frame.RoleStat:
		return FormatNumber(v)
	case frame.RoleDate, frame.RoleMixedDate:
		return FormatDate(v)
	default:
		return v.String()
	}
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
