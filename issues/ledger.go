package issues

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/logging"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

// Ledger persists resolutions. Save replaces the whole ledger.
type Ledger interface {
	Load(ctx context.Context) ([]Resolution, error)
	Save(ctx context.Context, entries []Resolution) error
}

// LedgerColumns are the four columns a ledger file holds, in order.
var LedgerColumns = []string{orders.ColIssueKey, orders.ColResolved, orders.ColClosedDate, orders.ColIssueDate}

const ledgerSheet = "Sheet1"

// FileLedger keeps the ledger in an xlsx workbook.
type FileLedger struct {
	Path string
	Log  logrus.FieldLogger
}

func NewFileLedger(path string, log logrus.FieldLogger) *FileLedger {
	return &FileLedger{Path: path, Log: logging.OrDiscard(log)}
}

func (l *FileLedger) Load(ctx context.Context) ([]Resolution, error) {
	entries, err := LoadFile(l.Path)
	if err != nil {
		return nil, err
	}
	logging.OrDiscard(l.Log).WithFields(logrus.Fields{"path": l.Path, "entries": len(entries)}).Debug("ledger loaded")
	return entries, nil
}

func (l *FileLedger) Save(ctx context.Context, entries []Resolution) error {
	if err := SaveFile(l.Path, entries); err != nil {
		return err
	}
	logging.OrDiscard(l.Log).WithFields(logrus.Fields{"path": l.Path, "entries": len(entries)}).Info("ledger saved")
	return nil
}

// LoadFile reads a ledger workbook. A missing file, or one without the key column, is an
// empty ledger. Missing flag or date columns default to unresolved and absent.
func LoadFile(path string) ([]Resolution, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	return fromFrame(normalize.Apply(frame.FromRecords(records), orders.LedgerSchema)), nil
}

func fromFrame(f *frame.Frame) []Resolution {
	if !f.Has(orders.ColIssueKey) {
		return nil
	}
	var out []Resolution
	for _, row := range f.Rows() {
		key := row.Get(orders.ColIssueKey)
		if key.IsNull() {
			continue
		}
		r := Resolution{Key: key.String(), Resolved: parseFlag(row.Get(orders.ColResolved))}
		if t, ok := row.Get(orders.ColClosedDate).Time(); ok {
			r.Closed = t
		}
		if t, ok := row.Get(orders.ColIssueDate).Time(); ok {
			r.Raised = t
		}
		out = append(out, r)
	}
	return out
}

func parseFlag(v frame.Value) bool {
	if b, ok := v.Truth(); ok {
		return b
	}
	if n, ok := v.Float(); ok {
		return n != 0
	}
	s := strings.TrimSpace(v.String())
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, ok := normalize.ParseNumber(s); ok {
		return n != 0
	}
	return false
}

// SaveFile writes exactly the four ledger columns. The workbook is written next to path
// and renamed over it.
func SaveFile(path string, entries []Resolution) error {
	book := excelize.NewFile()
	defer book.Close()

	dateFmt := "yyyy-mm-dd"
	dateStyle, err := book.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("ledger style: %w", err)
	}
	boldStyle, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("ledger style: %w", err)
	}

	header := make([]interface{}, len(LedgerColumns))
	for i, col := range LedgerColumns {
		header[i] = col
	}
	if err := book.SetSheetRow(ledgerSheet, "A1", &header); err != nil {
		return fmt.Errorf("ledger header: %w", err)
	}
	if err := book.SetCellStyle(ledgerSheet, "A1", "D1", boldStyle); err != nil {
		return err
	}

	for i, r := range entries {
		row := i + 2
		cells := []struct {
			col   string
			value interface{}
		}{
			{"A", r.Key},
			{"B", r.Resolved},
			{"C", dateCell(r.Closed)},
			{"D", dateCell(r.Raised)},
		}
		for _, c := range cells {
			if c.value == nil {
				continue
			}
			cell := fmt.Sprintf("%s%d", c.col, row)
			if err := book.SetCellValue(ledgerSheet, cell, c.value); err != nil {
				return fmt.Errorf("ledger row %d: %w", row, err)
			}
			if _, ok := c.value.(time.Time); ok {
				if err := book.SetCellStyle(ledgerSheet, cell, cell, dateStyle); err != nil {
					return err
				}
			}
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ledger dir: %w", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func dateCell(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return frame.DateOnly(t)
}

// Open extracts the issues of f and merges them with the ledger.
func Open(ctx context.Context, ledger Ledger, f *frame.Frame) ([]Issue, error) {
	stored, err := ledger.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Merge(Extract(f), stored), nil
}

// Commit prepares edited issues for storage, overlays them on what the ledger already
// holds and saves the result.
func Commit(ctx context.Context, ledger Ledger, edited []Issue, today time.Time) error {
	stored, err := ledger.Load(ctx)
	if err != nil {
		return err
	}
	return ledger.Save(ctx, Combine(stored, PrepareSave(edited, today)))
}
