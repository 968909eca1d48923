package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/frame"
)

// Largest Excel serial date (9999-12-31).
const maxSerialDate = 2958465

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"01/02/2006",
	"01-02-2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"20060102",
}

// ParseNumber parses a numeric cell. Thousands separators and surrounding space are
// tolerated; anything else unparseable returns false.
func ParseNumber(value string) (float64, bool) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// ParseDate parses a date written as text. The time of day is discarded.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return frame.DateOnly(parsed), true
		}
	}
	return time.Time{}, false
}

// parseTemporal accepts everything ParseDate does plus Excel serial day numbers, which is
// how date-formatted cells arrive when a workbook is read with raw cell values. Only
// date columns use it; a mixed-date column may hold digit-only text that is not a date.
func parseTemporal(value string) (time.Time, bool) {
	if parsed, ok := ParseDate(value); ok {
		return parsed, true
	}
	serial, ok := ParseNumber(value)
	if !ok {
		return time.Time{}, false
	}
	return serialDate(serial)
}

func serialDate(serial float64) (time.Time, bool) {
	if serial < 1 || serial > maxSerialDate {
		return time.Time{}, false
	}
	parsed, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return frame.DateOnly(parsed), true
}

func toNumber(v frame.Value) frame.Value {
	switch v.Kind() {
	case frame.KindNumber:
		return v
	case frame.KindText:
		if parsed, ok := ParseNumber(v.String()); ok {
			return frame.Number(parsed)
		}
	}
	return frame.Null()
}

func toDate(v frame.Value) frame.Value {
	switch v.Kind() {
	case frame.KindDate:
		return v
	case frame.KindNumber:
		n, _ := v.Float()
		if parsed, ok := serialDate(n); ok {
			return frame.Date(parsed)
		}
	case frame.KindText:
		if parsed, ok := parseTemporal(v.String()); ok {
			return frame.Date(parsed)
		}
	}
	return frame.Null()
}

// MixedDate coerces a cell of a column that holds either dates or free text such as
// "TBD": null becomes empty text, dates stay dates, numbers are read as Excel serials,
// parseable date text becomes a date and any other text (digit-only included) is kept
// verbatim.
func MixedDate(v frame.Value) frame.Value {
	switch v.Kind() {
	case frame.KindNull:
		return frame.Text("")
	case frame.KindDate:
		return v
	case frame.KindNumber:
		n, _ := v.Float()
		if parsed, ok := serialDate(n); ok {
			return frame.Date(parsed)
		}
		return v
	case frame.KindText:
		text := v.String()
		if strings.TrimSpace(text) == "" {
			return frame.Text("")
		}
		if parsed, ok := ParseDate(text); ok {
			return frame.Date(parsed)
		}
		return v
	default:
		return v
	}
}
