package main

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/ssungjun83/Order-Dashboard/aggregate"
	"github.com/ssungjun83/Order-Dashboard/filter"
	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/issues"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

const ruleWidth = 38

func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

func printSelection(w io.Writer, path string, v *view) {
	fmt.Fprintf(w, "Input: %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Period: %s\n", periodLabel(v.period))
	for _, facet := range v.criteria.Facets {
		fmt.Fprintf(w, "Facet %s: %s\n", facet.Column, strings.Join(facet.Allowed, ", "))
	}
	if v.query != "" {
		fmt.Fprintf(w, "Search: %s\n", v.query)
	}
	fmt.Fprintf(w, "Rows: %d\n", v.rows.Len())
}

func periodLabel(p *filter.Period) string {
	if p == nil {
		return "all"
	}
	return p.String()
}

// printTable writes f as pipe-separated lines, formatting each cell by its schema role.
// The year is printed bare rather than with thousands separators.
func printTable(w io.Writer, f *frame.Frame, schema frame.Schema) {
	cols := visibleColumns(f)
	fmt.Fprintln(w, strings.Join(cols, " | "))
	for i := 0; i < f.Len(); i++ {
		cells := make([]string, len(cols))
		for j, col := range cols {
			v := f.Value(i, col)
			if col == orders.ColYear {
				cells[j] = v.String()
				continue
			}
			cells[j] = normalize.FormatCell(schema.Role(col), v)
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
		// A blank line closes each group after its total row.
		if orders.RowStyle(f.Row(i)).Kind == orders.StyleTotalRow && i < f.Len()-1 {
			fmt.Fprintln(w)
		}
	}
}

// visibleColumns drops the derived bookkeeping columns.
func visibleColumns(f *frame.Frame) []string {
	var out []string
	for _, col := range f.Columns() {
		if col == orders.ColMonthDate || col == orders.ColSearchIndex {
			continue
		}
		out = append(out, col)
	}
	return out
}

func printSummary(w io.Writer, path string, v *view, summary *frame.Frame, rate float64) {
	printHeading(w, "Order Status Summary")
	printSelection(w, path, v)
	if math.IsNaN(rate) {
		fmt.Fprintln(w, "Due compliance (first ship plan): n/a")
	} else {
		fmt.Fprintf(w, "Due compliance (first ship plan): %.1f%%\n", rate)
	}

	printSection(w, "Summary")
	if summary.Len() == 0 {
		fmt.Fprintln(w, "No orders found.")
		return
	}
	printTable(w, aggregate.BlankRepeated(summary, orders.ColYear), orders.SummarySchema)
}

func printPriority(w io.Writer, path string, v *view, ranking []aggregate.Priority) {
	printHeading(w, "Product Demand Priority")
	printSelection(w, path, v)

	printSection(w, "Ranking")
	if len(ranking) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}
	for _, p := range ranking {
		avg := "n/a"
		if p.HasAvgDemand() {
			avg = normalize.FormatNumber(frame.Number(p.AvgDemand))
		}
		fmt.Fprintf(w, "%d | %s | share %s | avg %s | total %s | PO %d | streak %d\n",
			p.Rank,
			p.Product,
			normalize.FormatPercent(frame.Number(p.Share)),
			avg,
			normalize.FormatNumber(frame.Number(p.TotalQty)),
			p.POCount,
			p.Streak,
		)
	}
}

func printChoices(w io.Writer, path string, v *view) {
	printHeading(w, "Facet Choices")
	fmt.Fprintf(w, "Input: %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Period: %s\n", periodLabel(v.period))
	for _, col := range orders.FacetColumns {
		values, ok := v.choices[col]
		if !ok {
			continue
		}
		printSection(w, fmt.Sprintf("%s (%d)", col, len(values)))
		if len(values) == 0 {
			fmt.Fprintln(w, "No values.")
			continue
		}
		for _, value := range values {
			fmt.Fprintln(w, value)
		}
	}
}

func printIssues(w io.Writer, path string, unresolved, resolved []issues.Issue, showResolved bool) {
	printHeading(w, "Production Issues")
	fmt.Fprintf(w, "Input: %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Unresolved: %d | Resolved: %d\n", len(unresolved), len(resolved))

	printSection(w, "Unresolved")
	printIssueLines(w, unresolved)
	if showResolved {
		printSection(w, "Resolved")
		printIssueLines(w, resolved)
	}
}

func printIssueLines(w io.Writer, list []issues.Issue) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No issues.")
		return
	}
	for _, issue := range list {
		line := fmt.Sprintf("%s | %s | %s | %s | %s | %s",
			issue.Month, issue.Type, issue.WorkOrder, issue.Customer, issue.Product, issue.Note)
		if !issue.Raised.IsZero() {
			line += " | raised " + issue.Raised.Format("2006-01-02")
		}
		if issue.Resolved && !issue.Closed.IsZero() {
			line += " | closed " + issue.Closed.Format("2006-01-02")
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "  key: %s\n", issue.Key())
	}
}
