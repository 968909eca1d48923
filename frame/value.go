// Package frame holds the typed tabular representation shared by every stage of the
// order pipeline: loading, normalisation, filtering, aggregation and export.
package frame

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which field of a Value is meaningful.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindDate
	KindText
	KindBool
)

const dateLayout = "2006-01-02"

// Value is a single cell. The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	date time.Time
	text string
	flag bool
}

func Null() Value { return Value{} }

// Number returns a numeric cell; NaN and infinities collapse to Null.
func Number(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: v}
}

// Date returns a date cell with the time of day discarded. A zero time is Null.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, date: DateOnly(t)}
}

func Text(s string) Value { return Value{kind: KindText, text: s} }

func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

func (v Value) Truth() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// String renders the cell the way it is matched by search and shown in plain text.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(dateLayout)
	case KindText:
		return v.text
	case KindBool:
		if v.flag {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Blank reports whether the cell is Null or whitespace-only text.
func (v Value) Blank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.date.Equal(o.date)
	case KindText:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	default:
		return true
	}
}

// Compare orders two cells: nulls sort last, numbers numerically, dates chronologically,
// everything else by rendered text. Mixed kinds fall back to kind order.
func Compare(a, b Value) int {
	if a.kind == KindNull || b.kind == KindNull {
		switch {
		case a.kind == b.kind:
			return 0
		case a.kind == KindNull:
			return 1
		default:
			return -1
		}
	}
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case KindDate:
		return a.date.Compare(b.date)
	default:
		return strings.Compare(a.String(), b.String())
	}
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
