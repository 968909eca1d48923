package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/schollz/closestmatch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssungjun83/Order-Dashboard/filter"
	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
	"github.com/ssungjun83/Order-Dashboard/search"
	"github.com/ssungjun83/Order-Dashboard/source"
)

const (
	sheetOrders = "orders"
	sheetByItem = "by-item"
)

// facetAliases lets the facet columns be named in ASCII on the command line.
var facetAliases = map[string]string{
	"month":    orders.ColMonth,
	"type":     orders.ColType,
	"status":   orders.ColStatus,
	"country":  orders.ColCountry,
	"owner":    orders.ColOwner,
	"customer": orders.ColCustomer,
}

// selection is the filter state given by flags: sheet, period, facets and search text.
type selection struct {
	sheet  string
	from   string
	to     string
	preset string
	facets []string
	query  string
}

func (s *selection) bind(cmd *cobra.Command, withSheet bool) {
	flags := cmd.Flags()
	if withSheet {
		flags.StringVar(&s.sheet, "sheet", sheetOrders, "Detail table (orders, by-item)")
	}
	flags.StringVar(&s.from, "from", "", "First month YYYY-MM (default current month, clamped to the data)")
	flags.StringVar(&s.to, "to", "", "Last month YYYY-MM (default two months after --from)")
	flags.StringVar(&s.preset, "preset", "", "Named period: "+strings.Join(filter.Presets(), ", "))
	flags.StringArrayVar(&s.facets, "facet", nil, "Facet restriction column=value; repeat to allow more values")
	flags.StringVarP(&s.query, "search", "q", "", "Free-text search; spaces AND tokens, commas OR groups")
}

// detail picks the detail table named by the selection.
func (s *selection) detail(wb *source.Workbook) (*frame.Frame, error) {
	switch s.sheet {
	case "", sheetOrders:
		return wb.Orders, nil
	case sheetByItem:
		return wb.ByItem, nil
	default:
		return nil, fmt.Errorf("unknown sheet %q (want %s or %s)", s.sheet, sheetOrders, sheetByItem)
	}
}

// period resolves the month range for f: a preset, explicit months, or the default
// three-month window. Nil when f has no month dates.
func (s *selection) period(f *frame.Frame, today time.Time) (*filter.Period, error) {
	lo, hi, ok := filter.Bounds(f)
	if !ok {
		return nil, nil
	}
	if s.preset != "" {
		if s.from != "" || s.to != "" {
			return nil, fmt.Errorf("--preset cannot be combined with --from/--to")
		}
		p, err := filter.Preset(s.preset, today, lo, hi)
		if err != nil {
			return nil, err
		}
		return &p, nil
	}
	if s.from == "" && s.to == "" {
		p := filter.DefaultRange(today, lo, hi)
		return &p, nil
	}

	start := lo
	if s.from != "" {
		t, err := parseMonth("--from", s.from)
		if err != nil {
			return nil, err
		}
		start = t
	}
	end := hi
	if s.to != "" {
		t, err := parseMonth("--to", s.to)
		if err != nil {
			return nil, err
		}
		end = filter.LastDayOfMonth(t)
	} else if s.from != "" {
		end = filter.LastDayOfMonth(filter.AddMonths(start, 2))
	}
	if end.Before(start) {
		return nil, fmt.Errorf("--to %s is before --from %s", s.to, s.from)
	}
	start, end = filter.Clamp(start, end, lo, hi)
	p := filter.MonthRange(start, end)
	return &p, nil
}

func parseMonth(flag, value string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM", flag, value)
	}
	return t, nil
}

// parseFacets groups repeated column=value flags into facets, in first-seen column order.
func parseFacets(raw []string) ([]filter.Facet, error) {
	var out []filter.Facet
	index := map[string]int{}
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid --facet %q: want column=value", item)
		}
		column, err := facetColumn(name)
		if err != nil {
			return nil, err
		}
		if pos, seen := index[column]; seen {
			out[pos].Allowed = append(out[pos].Allowed, value)
			continue
		}
		index[column] = len(out)
		out = append(out, filter.Facet{Column: column, Allowed: []string{value}})
	}
	return out, nil
}

func facetColumn(name string) (string, error) {
	if column, ok := facetAliases[strings.ToLower(name)]; ok {
		return column, nil
	}
	for _, column := range orders.FacetColumns {
		if name == column {
			return column, nil
		}
	}
	known := make([]string, 0, len(facetAliases)+len(orders.FacetColumns))
	for alias := range facetAliases {
		known = append(known, alias)
	}
	sort.Strings(known)
	known = append(known, orders.FacetColumns...)
	if hint := suggest(strings.ToLower(name), known); hint != "" {
		return "", fmt.Errorf("unknown facet column %q (did you mean %q?)", name, hint)
	}
	return "", fmt.Errorf("unknown facet column %q", name)
}

// suggest returns the closest candidate to value, or "" when nothing is close.
func suggest(value string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	cm := closestmatch.New(candidates, []int{2, 3})
	return cm.Closest(value)
}

// view is one filtered, searched detail table with the selection that produced it.
type view struct {
	period   *filter.Period
	criteria filter.Criteria
	query    string
	choices  map[string][]string
	rows     *frame.Frame
}

// apply filters f by the selection. ignoreMonth drops the month facet, as the per-item
// views do. Facet values outside the period's choices are reported but still applied.
func (s *selection) apply(f *frame.Frame, today time.Time, ignoreMonth bool, log logrus.FieldLogger) (*view, error) {
	period, err := s.period(f, today)
	if err != nil {
		return nil, err
	}
	facets, err := parseFacets(s.facets)
	if err != nil {
		return nil, err
	}
	criteria := filter.Criteria{Period: period, Facets: facets}
	if ignoreMonth {
		criteria = criteria.Without(orders.ColMonth)
	}

	choices := filter.Choices(f, period)
	for _, facet := range criteria.Facets {
		known := map[string]bool{}
		for _, v := range choices[facet.Column] {
			known[v] = true
		}
		for _, v := range facet.Allowed {
			if known[v] {
				continue
			}
			entry := log.WithFields(logrus.Fields{"column": facet.Column, "value": v})
			if hint := suggest(v, choices[facet.Column]); hint != "" {
				entry = entry.WithField("suggestion", hint)
			}
			entry.Warn("facet value not present in the selected period")
		}
	}

	rows := filter.Apply(f, criteria)
	rows = search.Filter(rows, s.query)
	return &view{
		period:   period,
		criteria: criteria,
		query:    strings.TrimSpace(s.query),
		choices:  choices,
		rows:     rows,
	}, nil
}
