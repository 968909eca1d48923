// Package search evaluates free-text queries against order rows. A query is a list of
// comma-separated alternatives, each a list of whitespace-separated tokens that must all
// occur in the row.
package search

import (
	"regexp"
	"strings"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Legal-entity suffixes that follow a comma inside a single company name. Order matters:
// the compound "co., ltd" forms must be removed before the bare ones.
var suffixPatterns = compileSuffixes(
	`co\.?\s*,\s*ltd\.?`,
	`co\.?\s*ltd\.?`,
	`ltd\.?`,
	`inc\.?`,
	`corp\.?`,
	`llc\.?`,
	`plc\.?`,
	`gmbh\.?`,
	`s\.?a\.?`,
	`srl\.?`,
	`bv\.?`,
	`kg\.?`,
)

// A suffix only counts when the word ends there, so ", samsung" is not read as ", sa".
func compileSuffixes(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`,\s*` + p + `(?:[^\p{L}\p{N}_,]|$)`)
	}
	return out
}

// Query is a disjunction of token groups. The zero Query matches everything.
type Query struct {
	Groups [][]string
}

// Parse splits text into OR-groups of AND-tokens. A comma separates alternatives unless
// every comma belongs to a company suffix such as "Acme, Inc".
func Parse(text string) Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}
	}
	parts := []string{text}
	if strings.Contains(text, ",") && !allCommasAreSuffixes(text) {
		parts = parts[:0]
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
	}
	var q Query
	for _, part := range parts {
		tokens := strings.Fields(normalize.Fold(part))
		if len(tokens) > 0 {
			q.Groups = append(q.Groups, tokens)
		}
	}
	return q
}

func allCommasAreSuffixes(text string) bool {
	stripped := strings.ToLower(text)
	for _, pattern := range suffixPatterns {
		stripped = pattern.ReplaceAllString(stripped, " ")
	}
	return !strings.Contains(stripped, ",")
}

func (q Query) Empty() bool { return len(q.Groups) == 0 }

// Match reports whether text (already folded) satisfies the query.
func (q Query) Match(text string) bool {
	if q.Empty() {
		return true
	}
	for _, group := range q.Groups {
		if containsAll(text, group) {
			return true
		}
	}
	return false
}

func containsAll(text string, tokens []string) bool {
	for _, token := range tokens {
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}

// MatchCells is the fallback used when no search index exists: each token may be found in
// any single cell of the row.
func (q Query) MatchCells(cells []string) bool {
	if q.Empty() {
		return true
	}
	for _, group := range q.Groups {
		ok := true
		for _, token := range group {
			if !anyContains(cells, token) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func anyContains(cells []string, token string) bool {
	for _, cell := range cells {
		if strings.Contains(cell, token) {
			return true
		}
	}
	return false
}

// Apply returns the rows of f matching q, using the search index column when present.
func Apply(f *frame.Frame, q Query) *frame.Frame {
	if q.Empty() {
		return f
	}
	if f.Has(orders.ColSearchIndex) {
		return f.Filter(func(r frame.Row) bool {
			return q.Match(r.Get(orders.ColSearchIndex).String())
		})
	}
	return f.Filter(func(r frame.Row) bool {
		cells := r.Cells()
		texts := make([]string, len(cells))
		for i, cell := range cells {
			texts[i] = normalize.Fold(cell.String())
		}
		return q.MatchCells(texts)
	})
}

// Filter parses text and applies it to f.
func Filter(f *frame.Frame, text string) *frame.Frame {
	return Apply(f, Parse(text))
}
