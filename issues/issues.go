// Package issues tracks the production and packing notes found on order rows and their
// resolution state. An issue is identified by its content, so the same note on the same
// order maps to the same ledger entry across reloads.
package issues

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
	"github.com/ssungjun83/Order-Dashboard/search"
)

// KeyVersion names the key derivation persisted in ledgers. Version 1 joins the four
// identifying fields with "|"; a field containing "|" can collide with another tuple.
const KeyVersion = 1

const keySeparator = "|"

var ErrNotFound = errors.New("issue not found")

// Issue is one note row merged with its resolution state. Zero times mean absent.
type Issue struct {
	Month     string    `json:"month"`
	Type      string    `json:"type"`
	WorkOrder string    `json:"work_order"`
	Customer  string    `json:"customer"`
	Product   string    `json:"product"`
	Note      string    `json:"note"`
	Raised    time.Time `json:"raised,omitempty"`
	Resolved  bool      `json:"resolved"`
	Closed    time.Time `json:"closed,omitempty"`
}

// Resolution is the persisted part of an issue.
type Resolution struct {
	Key      string
	Resolved bool
	Closed   time.Time
	Raised   time.Time
}

// DeriveKey joins the identifying fields. Missing values are passed as "".
func DeriveKey(workOrder, customer, product, note string) string {
	return strings.Join([]string{workOrder, customer, product, note}, keySeparator)
}

func (i Issue) Key() string {
	return DeriveKey(i.WorkOrder, i.Customer, i.Product, i.Note)
}

func text(v frame.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// Extract collects the rows of f that carry a non-blank note. Rows repeating an already
// seen (work order, customer, product, note) tuple are dropped; the first one wins.
func Extract(f *frame.Frame) []Issue {
	if !f.Has(orders.ColNote) {
		return nil
	}
	var out []Issue
	seen := map[string]bool{}
	for _, row := range f.Rows() {
		note := text(row.Get(orders.ColNote))
		if strings.TrimSpace(note) == "" {
			continue
		}
		issue := Issue{
			Month:     text(row.Get(orders.ColMonth)),
			Type:      text(row.Get(orders.ColType)),
			WorkOrder: text(row.Get(orders.ColWorkOrder)),
			Customer:  text(row.Get(orders.ColCustomer)),
			Product:   text(row.Get(orders.ColProduct)),
			Note:      note,
		}
		key := issue.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

// Merge left-joins issues with the stored resolutions by key. Issues without a stored
// entry are unresolved with no dates; an unresolved entry never carries a closed date.
func Merge(current []Issue, stored []Resolution) []Issue {
	byKey := make(map[string]Resolution, len(stored))
	for _, r := range stored {
		byKey[r.Key] = r
	}
	out := make([]Issue, len(current))
	for i, issue := range current {
		issue.Resolved, issue.Closed, issue.Raised = false, time.Time{}, time.Time{}
		if r, ok := byKey[issue.Key()]; ok {
			issue.Resolved = r.Resolved
			issue.Raised = r.Raised
			if r.Resolved {
				issue.Closed = r.Closed
			}
		}
		out[i] = issue
	}
	return out
}

// Split partitions issues into unresolved and resolved, keeping order.
func Split(all []Issue) (unresolved, resolved []Issue) {
	for _, issue := range all {
		if issue.Resolved {
			resolved = append(resolved, issue)
		} else {
			unresolved = append(unresolved, issue)
		}
	}
	return unresolved, resolved
}

// BulkResolve marks every unresolved issue resolved as of today. Issues that are already
// resolved keep their closed date.
func BulkResolve(all []Issue, today time.Time) []Issue {
	day := frame.DateOnly(today)
	out := make([]Issue, len(all))
	for i, issue := range all {
		if !issue.Resolved {
			issue.Resolved = true
			issue.Closed = day
		}
		out[i] = issue
	}
	return out
}

func find(all []Issue, key string) (int, error) {
	for i, issue := range all {
		if issue.Key() == key {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

// Resolve marks the issue with key resolved. A zero closed date is stamped on save.
func Resolve(all []Issue, key string, closed time.Time) ([]Issue, error) {
	i, err := find(all, key)
	if err != nil {
		return nil, err
	}
	out := append([]Issue(nil), all...)
	out[i].Resolved = true
	if !closed.IsZero() {
		out[i].Closed = frame.DateOnly(closed)
	}
	return out, nil
}

// Reopen clears the resolution of the issue with key.
func Reopen(all []Issue, key string) ([]Issue, error) {
	i, err := find(all, key)
	if err != nil {
		return nil, err
	}
	out := append([]Issue(nil), all...)
	out[i].Resolved = false
	out[i].Closed = time.Time{}
	return out, nil
}

// SetRaised records the date the issue was put on the agenda.
func SetRaised(all []Issue, key string, raised time.Time) ([]Issue, error) {
	i, err := find(all, key)
	if err != nil {
		return nil, err
	}
	out := append([]Issue(nil), all...)
	out[i].Raised = frame.DateOnly(raised)
	return out, nil
}

// PrepareSave turns edited issues into ledger entries. Resolved issues without a closed
// date get today, unresolved issues lose any closed date, and when a key repeats the last
// occurrence wins.
func PrepareSave(all []Issue, today time.Time) []Resolution {
	day := frame.DateOnly(today)
	last := map[string]int{}
	entries := make([]Resolution, len(all))
	for i, issue := range all {
		r := Resolution{Key: issue.Key(), Resolved: issue.Resolved, Raised: issue.Raised}
		switch {
		case !issue.Resolved:
			r.Closed = time.Time{}
		case issue.Closed.IsZero():
			r.Closed = day
		default:
			r.Closed = frame.DateOnly(issue.Closed)
		}
		entries[i] = r
		last[r.Key] = i
	}
	positions := make([]int, 0, len(last))
	for _, pos := range last {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	out := make([]Resolution, len(positions))
	for i, pos := range positions {
		out[i] = entries[pos]
	}
	return out
}

// Combine overlays updates on stored entries by key. Stored entries that no current issue
// touches are kept so orphaned notes stay in the ledger.
func Combine(stored, updates []Resolution) []Resolution {
	index := map[string]int{}
	out := make([]Resolution, 0, len(stored)+len(updates))
	for _, group := range [][]Resolution{stored, updates} {
		for _, r := range group {
			if pos, ok := index[r.Key]; ok {
				out[pos] = r
				continue
			}
			index[r.Key] = len(out)
			out = append(out, r)
		}
	}
	return out
}

// Search filters issues with the free-text query syntax of the order tables.
func Search(all []Issue, query string) []Issue {
	q := search.Parse(query)
	if q.Empty() {
		return all
	}
	var out []Issue
	for _, issue := range all {
		if q.Match(issue.indexText()) {
			out = append(out, issue)
		}
	}
	return out
}

func (i Issue) indexText() string {
	cells := []frame.Value{
		frame.Text(i.Month), frame.Text(i.Type), frame.Text(i.WorkOrder),
		frame.Text(i.Customer), frame.Text(i.Product), frame.Text(i.Note),
		frame.Date(i.Raised), frame.Bool(i.Resolved), frame.Date(i.Closed),
	}
	return normalize.IndexText(cells)
}

// Columns is the display order of Table.
var Columns = []string{
	orders.ColMonth, orders.ColType, orders.ColWorkOrder, orders.ColCustomer,
	orders.ColProduct, orders.ColNote, orders.ColIssueDate, orders.ColResolved, orders.ColClosedDate,
}

// Schema types the date columns of Table for display and export.
var Schema = orders.LedgerSchema

// Table lays issues out as a frame for display or export.
func Table(all []Issue) *frame.Frame {
	out := frame.New(Columns...)
	for _, issue := range all {
		out.Append(
			frame.Text(issue.Month), frame.Text(issue.Type), frame.Text(issue.WorkOrder),
			frame.Text(issue.Customer), frame.Text(issue.Product), frame.Text(issue.Note),
			frame.Date(issue.Raised), frame.Bool(issue.Resolved), frame.Date(issue.Closed),
		)
	}
	return out
}
