package frame

import (
	"sort"
	"strings"
)

// Frame is an ordered set of named columns with rows of cells aligned to them.
// Operations that change shape return a new Frame; Set mutates in place.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

func New(columns ...string) *Frame {
	f := &Frame{columns: make([]string, 0, len(columns)), index: make(map[string]int, len(columns))}
	for _, col := range columns {
		if _, exists := f.index[col]; exists {
			continue
		}
		f.index[col] = len(f.columns)
		f.columns = append(f.columns, col)
	}
	return f
}

// Append adds a row. Short rows are padded with Null, long rows truncated.
func (f *Frame) Append(cells ...Value) {
	row := make([]Value, len(f.columns))
	copy(row, cells)
	f.rows = append(f.rows, row)
}

func (f *Frame) Len() int { return len(f.rows) }

func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Value returns the cell at row i of col, or Null when the column is absent.
func (f *Frame) Value(i int, col string) Value {
	idx, ok := f.index[col]
	if !ok || i < 0 || i >= len(f.rows) {
		return Null()
	}
	return f.rows[i][idx]
}

func (f *Frame) Set(i int, col string, v Value) {
	idx, ok := f.index[col]
	if !ok || i < 0 || i >= len(f.rows) {
		return
	}
	f.rows[i][idx] = v
}

func (f *Frame) Row(i int) Row { return Row{frame: f, pos: i} }

// Rows returns a view of every row in order.
func (f *Frame) Rows() []Row {
	out := make([]Row, len(f.rows))
	for i := range f.rows {
		out[i] = Row{frame: f, pos: i}
	}
	return out
}

// Clone copies the frame so that Set on the copy leaves the original untouched.
func (f *Frame) Clone() *Frame {
	out := New(f.columns...)
	out.rows = make([][]Value, len(f.rows))
	for i, row := range f.rows {
		out.rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Filter returns the rows for which keep is true, in their original order.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := New(f.columns...)
	for i, row := range f.rows {
		if keep(Row{frame: f, pos: i}) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Take returns the listed rows in the listed order.
func (f *Frame) Take(positions []int) *Frame {
	out := New(f.columns...)
	for _, pos := range positions {
		if pos < 0 || pos >= len(f.rows) {
			continue
		}
		out.rows = append(out.rows, append([]Value(nil), f.rows[pos]...))
	}
	return out
}

// AddColumn appends a computed column. When the column already exists the frame is
// returned unchanged so repeated application is harmless.
func (f *Frame) AddColumn(name string, compute func(Row) Value) *Frame {
	if f.Has(name) {
		return f
	}
	out := New(append(f.Columns(), name)...)
	out.rows = make([][]Value, len(f.rows))
	for i, row := range f.rows {
		cells := make([]Value, len(row)+1)
		copy(cells, row)
		cells[len(row)] = compute(Row{frame: f, pos: i})
		out.rows[i] = cells
	}
	return out
}

// Select keeps the named columns in the given order, skipping absent ones.
func (f *Frame) Select(cols ...string) *Frame {
	kept := make([]string, 0, len(cols))
	for _, col := range cols {
		if f.Has(col) {
			kept = append(kept, col)
		}
	}
	out := New(kept...)
	out.rows = make([][]Value, len(f.rows))
	for i, row := range f.rows {
		cells := make([]Value, len(out.columns))
		for j, col := range out.columns {
			cells[j] = row[f.index[col]]
		}
		out.rows[i] = cells
	}
	return out
}

func (f *Frame) Drop(cols ...string) *Frame {
	drop := make(map[string]bool, len(cols))
	for _, col := range cols {
		drop[col] = true
	}
	kept := make([]string, 0, len(f.columns))
	for _, col := range f.columns {
		if !drop[col] {
			kept = append(kept, col)
		}
	}
	return f.Select(kept...)
}

// MoveBefore reorders col to sit immediately before anchor. Missing columns leave the
// frame unchanged.
func (f *Frame) MoveBefore(col, anchor string) *Frame {
	if !f.Has(col) || !f.Has(anchor) || col == anchor {
		return f
	}
	order := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if c == col {
			continue
		}
		if c == anchor {
			order = append(order, col)
		}
		order = append(order, c)
	}
	return f.Select(order...)
}

// Distinct returns the sorted distinct rendered values of col, ignoring blanks.
func (f *Frame) Distinct(col string) []string {
	if !f.Has(col) {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for i := range f.rows {
		v := f.Value(i, col)
		if v.IsNull() {
			continue
		}
		s := v.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Group is one distinct combination of key cells and the positions of its rows.
type Group struct {
	Key  []Value
	Rows []int
}

// GroupBy partitions rows by the given key columns. Null keys form their own group.
// Groups are returned in order of first appearance.
func (f *Frame) GroupBy(keys ...string) []Group {
	var groups []Group
	lookup := map[string]int{}
	for i := range f.rows {
		key := make([]Value, len(keys))
		parts := make([]string, len(keys))
		for k, col := range keys {
			key[k] = f.Value(i, col)
			parts[k] = groupToken(key[k])
		}
		token := strings.Join(parts, "\x1f")
		if idx, ok := lookup[token]; ok {
			groups[idx].Rows = append(groups[idx].Rows, i)
			continue
		}
		lookup[token] = len(groups)
		groups = append(groups, Group{Key: key, Rows: []int{i}})
	}
	return groups
}

func groupToken(v Value) string {
	if v.IsNull() {
		return "\x00"
	}
	return string(rune('0'+v.kind)) + v.String()
}

// Row is a read-only view of one frame row.
type Row struct {
	frame *Frame
	pos   int
}

func (r Row) Get(col string) Value { return r.frame.Value(r.pos, col) }

func (r Row) Index() int { return r.pos }

// Cells returns the row's values in column order.
func (r Row) Cells() []Value { return append([]Value(nil), r.frame.rows[r.pos]...) }

func (r Row) Columns() []string { return r.frame.Columns() }
