// Package export renders a table into a styled single-sheet xlsx workbook: a SUM row on
// top, bold headers below it and the data from the third row on.
package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

const (
	Sheet    = "data"
	MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	OrderStatusFilename = "order_status_filtered.xlsx"
	ByItemFilename      = "order_status_by_item_filtered.xlsx"
	PriorityFilename    = "product_priority.xlsx"

	sumRow       = 1
	headerRow    = 2
	dataStartRow = 3
)

const (
	numberFormat  = "#,###"
	percentFormat = `0.0"%"`
	dateFormat    = "yyyy-mm-dd"
)

// Download is a finished workbook ready to hand to a client.
type Download struct {
	Filename string
	MIMEType string
	Data     []byte
}

type styles struct {
	header, text, number, percent, date, sum int
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func registerStyles(f *excelize.File) (styles, error) {
	var s styles
	numFmt := func(code string) *string { return &code }
	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&s.header, &excelize.Style{Font: &excelize.Font{Bold: true}, Border: thinBorder()}},
		{&s.text, &excelize.Style{Border: thinBorder()}},
		{&s.number, &excelize.Style{CustomNumFmt: numFmt(numberFormat), Border: thinBorder()}},
		{&s.percent, &excelize.Style{CustomNumFmt: numFmt(percentFormat), Border: thinBorder()}},
		{&s.date, &excelize.Style{CustomNumFmt: numFmt(dateFormat), Border: thinBorder()}},
		{&s.sum, &excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: numFmt(numberFormat)}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return s, fmt.Errorf("register style: %w", err)
		}
		*def.target = id
	}
	return s, nil
}

// Build renders f into a new workbook. Cell typing follows schema: numeric and stat columns
// are rounded and formatted "#,###", percent columns "0.0%", dates "yyyy-mm-dd", and
// mixed-date columns become ISO text. Only RoleNumeric columns get a SUM in row 1, and
// total rows are left out of it. Empty cells keep their column's style.
func Build(f *frame.Frame, schema frame.Schema) (*excelize.File, error) {
	display := normalize.Display(f, schema)
	columns := display.Columns()

	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", Sheet); err != nil {
		book.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	st, err := registerStyles(book)
	if err != nil {
		book.Close()
		return nil, err
	}

	spans := summedSpans(display)
	for c, col := range columns {
		role := schema.Role(col)
		letter, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			book.Close()
			return nil, err
		}
		if err := writeColumn(book, st, display, col, role, letter, spans); err != nil {
			book.Close()
			return nil, fmt.Errorf("write column %s: %w", col, err)
		}
		width := float64(columnWidth(display, col, role, spans))
		if err := book.SetColWidth(Sheet, letter, letter, width); err != nil {
			book.Close()
			return nil, err
		}
	}

	showGrid := false
	if err := book.SetSheetView(Sheet, 0, &excelize.ViewOptions{ShowGridLines: &showGrid}); err != nil {
		book.Close()
		return nil, fmt.Errorf("sheet view: %w", err)
	}
	return book, nil
}

// span is a run of data rows [first, last], as frame indexes.
type span struct{ first, last int }

// summedSpans are the runs of rows that count towards column totals: every row except
// the per-group total rows.
func summedSpans(f *frame.Frame) []span {
	var out []span
	for i := 0; i < f.Len(); i++ {
		if orders.RowStyle(f.Row(i)).Kind == orders.StyleTotalRow {
			continue
		}
		if n := len(out); n > 0 && out[n-1].last == i-1 {
			out[n-1].last = i
			continue
		}
		out = append(out, span{first: i, last: i})
	}
	return out
}

func sumFormula(letter string, spans []span) string {
	ranges := make([]string, len(spans))
	for i, s := range spans {
		ranges[i] = fmt.Sprintf("%s%d:%s%d", letter, dataStartRow+s.first, letter, dataStartRow+s.last)
	}
	return "SUM(" + strings.Join(ranges, ",") + ")"
}

func writeColumn(book *excelize.File, st styles, f *frame.Frame, col string, role frame.Role, letter string, spans []span) error {
	sumCell := fmt.Sprintf("%s%d", letter, sumRow)
	if role.Additive() && len(spans) > 0 {
		if err := book.SetCellFormula(Sheet, sumCell, sumFormula(letter, spans)); err != nil {
			return err
		}
	}
	if role == frame.RoleNumeric || role == frame.RoleStat {
		if err := book.SetCellStyle(Sheet, sumCell, sumCell, st.sum); err != nil {
			return err
		}
	}

	header := fmt.Sprintf("%s%d", letter, headerRow)
	if err := book.SetCellValue(Sheet, header, col); err != nil {
		return err
	}
	if err := book.SetCellStyle(Sheet, header, header, st.header); err != nil {
		return err
	}

	for i := 0; i < f.Len(); i++ {
		cell := fmt.Sprintf("%s%d", letter, dataStartRow+i)
		value, style := cellValue(st, role, f.Value(i, col))
		if value != nil {
			if err := book.SetCellValue(Sheet, cell, value); err != nil {
				return err
			}
		}
		if err := book.SetCellStyle(Sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// baseStyle is the style of every data cell of a role, written or not.
func baseStyle(st styles, role frame.Role) int {
	switch role {
	case frame.RoleNumeric, frame.RoleStat:
		return st.number
	case frame.RolePercent:
		return st.percent
	case frame.RoleDate:
		return st.date
	default:
		return st.text
	}
}

// cellValue is the value to write for v (nil leaves the cell empty) and its style.
func cellValue(st styles, role frame.Role, v frame.Value) (interface{}, int) {
	base := baseStyle(st, role)
	if v.IsNull() {
		return nil, base
	}
	if role == frame.RoleMixedDate {
		if t, ok := v.Time(); ok {
			return t.Format("2006-01-02"), st.text
		}
		if text := v.String(); text != "" {
			return text, st.text
		}
		return nil, st.text
	}
	if n, ok := v.Float(); ok {
		if role.Numeric() {
			return n, base
		}
		return n, st.text
	}
	if t, ok := v.Time(); ok {
		if role == frame.RoleDate {
			return t, st.date
		}
		return t.Format("2006-01-02"), st.text
	}
	if b, ok := v.Truth(); ok {
		return b, st.text
	}
	return v.String(), st.text
}

// columnWidth is the longest rendered value in col, its header, or its column total, plus two.
func columnWidth(f *frame.Frame, col string, role frame.Role, spans []span) int {
	longest := utf8.RuneCountInString(col)
	for i := 0; i < f.Len(); i++ {
		if n := utf8.RuneCountInString(normalize.FormatCell(role, f.Value(i, col))); n > longest {
			longest = n
		}
	}
	if role.Additive() && len(spans) > 0 {
		total := 0.0
		for _, s := range spans {
			for i := s.first; i <= s.last; i++ {
				if n, ok := f.Value(i, col).Float(); ok {
					total += n
				}
			}
		}
		if n := utf8.RuneCountInString(normalize.FormatCell(role, frame.Number(total))); n > longest {
			longest = n
		}
	}
	return longest + 2
}

// Bytes renders f and serialises the workbook.
func Bytes(f *frame.Frame, schema frame.Schema) ([]byte, error) {
	book, err := Build(f, schema)
	if err != nil {
		return nil, err
	}
	defer book.Close()
	buf, err := book.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// NewDownload renders f and wraps it with filename and content type.
func NewDownload(f *frame.Frame, schema frame.Schema, filename string) (Download, error) {
	data, err := Bytes(f, schema)
	if err != nil {
		return Download{}, err
	}
	return Download{Filename: filename, MIMEType: MIMEType, Data: data}, nil
}
