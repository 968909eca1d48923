package frame

import "strings"

// FromRecords builds a frame from a header record followed by data records, the shape
// spreadsheet and CSV readers return. Cells are kept as text; empty cells become Null.
// Columns with a blank header are dropped and a repeated header keeps its first column.
func FromRecords(records [][]string) *Frame {
	return FromRecordsFunc(records, func(_, _ int, text string) Value { return Text(text) })
}

// FromRecordsFunc is FromRecords with the value of each non-empty data cell built by cell,
// which receives the record and field indexes of the cell in records.
func FromRecordsFunc(records [][]string, cell func(row, col int, text string) Value) *Frame {
	if len(records) == 0 {
		return New()
	}
	var names []string
	var positions []int
	seen := map[string]bool{}
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		positions = append(positions, i)
	}

	f := New(names...)
	for r, record := range records[1:] {
		cells := make([]Value, len(positions))
		empty := true
		for c, pos := range positions {
			if pos >= len(record) || record[pos] == "" {
				continue
			}
			cells[c] = cell(r+1, pos, record[pos])
			empty = false
		}
		if empty {
			continue
		}
		f.rows = append(f.rows, cells)
	}
	return f
}
