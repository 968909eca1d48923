// Package source reads the order-status workbook, keeps normalised copies in a
// content-addressed cache and watches the file for changes.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

var (
	ErrMissingSheet  = errors.New("missing sheet")
	ErrMissingColumn = errors.New("missing column")
)

// MissingSheetError names a sheet the workbook lacks.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingSheet, e.Sheet)
}

func (e *MissingSheetError) Unwrap() error { return ErrMissingSheet }

// MissingColumnError names a required column absent from a sheet.
type MissingColumnError struct {
	Sheet  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q in sheet %q", ErrMissingColumn, e.Column, e.Sheet)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// Workbook holds the four normalised tables of one source workbook.
type Workbook struct {
	Orders   *frame.Frame
	ByItem   *frame.Frame
	Monthly  *frame.Frame
	Leadtime *frame.Frame
}

// Sheets maps each source sheet name to its table.
func (w *Workbook) Sheets() map[string]*frame.Frame {
	return map[string]*frame.Frame{
		orders.SheetOrderStatus: w.Orders,
		orders.SheetByItem:      w.ByItem,
		orders.SheetMonthly:     w.Monthly,
		orders.SheetLeadtime:    w.Leadtime,
	}
}

// Sheet returns one table by its source sheet name.
func (w *Workbook) Sheet(name string) (*frame.Frame, bool) {
	f, ok := w.Sheets()[name]
	return f, ok && f != nil
}

// Read parses a workbook. Every sheet must be present; the two detail sheets must carry
// the month, type and work-order columns. Cells are read as text except numbers in
// mixed-date columns, which stay numbers so they are taken as Excel serial dates.
func Read(r io.Reader) (*Workbook, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheet := func(name string) (*frame.Frame, error) {
		if idx, err := book.GetSheetIndex(name); err != nil || idx < 0 {
			return nil, &MissingSheetError{Sheet: name}
		}
		records, err := book.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if len(records) == 0 {
			return frame.New(), nil
		}
		mixed := map[int]bool{}
		for i, header := range records[0] {
			if orders.DetailSchema.Role(strings.TrimSpace(header)) == frame.RoleMixedDate {
				mixed[i] = true
			}
		}
		return frame.FromRecordsFunc(records, func(row, col int, text string) frame.Value {
			if mixed[col] && numericCell(book, name, row, col) {
				if n, ok := normalize.ParseNumber(text); ok {
					return frame.Number(n)
				}
			}
			return frame.Text(text)
		}), nil
	}

	raw := map[string]*frame.Frame{}
	for _, name := range []string{orders.SheetOrderStatus, orders.SheetByItem, orders.SheetMonthly, orders.SheetLeadtime} {
		f, err := sheet(name)
		if err != nil {
			return nil, err
		}
		raw[name] = f
	}
	for _, name := range []string{orders.SheetOrderStatus, orders.SheetByItem} {
		for _, col := range orders.RequiredDetailColumns {
			if !raw[name].Has(col) {
				return nil, &MissingColumnError{Sheet: name, Column: col}
			}
		}
	}

	return &Workbook{
		Orders:   normalize.Detail(raw[orders.SheetOrderStatus]),
		ByItem:   normalize.Detail(raw[orders.SheetByItem]),
		Monthly:  normalize.Apply(raw[orders.SheetMonthly], orders.MonthlySchema),
		Leadtime: normalize.Apply(raw[orders.SheetLeadtime], orders.LeadtimeSchema),
	}, nil
}

// numericCell reports whether the cell at the zero-based record position is stored as a
// number. Numbers written without an explicit type come back as CellTypeUnset.
func numericCell(book *excelize.File, sheet string, row, col int) bool {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return false
	}
	kind, err := book.GetCellType(sheet, ref)
	if err != nil {
		return false
	}
	return kind == excelize.CellTypeNumber || kind == excelize.CellTypeUnset
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (*Workbook, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()
	return Read(file)
}
