package issues

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

var today = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func byItem() *frame.Frame {
	f := frame.New(orders.ColMonth, orders.ColType, orders.ColWorkOrder, orders.ColCustomer,
		orders.ColProduct, orders.ColNote, orders.ColOrderQty)
	f.Append(frame.Text("24.05"), frame.Text("수출"), frame.Text("W-1"), frame.Text("Acme"),
		frame.Text("Widget"), frame.Text("포장 지연"), frame.Number(10))
	f.Append(frame.Text("24.05"), frame.Text("수출"), frame.Text("W-1"), frame.Text("Acme"),
		frame.Text("Widget"), frame.Text("포장 지연"), frame.Number(20))
	f.Append(frame.Text("24.05"), frame.Text("내수"), frame.Text("W-2"), frame.Text("Beta"),
		frame.Text("Gadget"), frame.Text("   "), frame.Number(5))
	f.Append(frame.Text("24.06"), frame.Text("내수"), frame.Text("W-3"), frame.Null(),
		frame.Text("Gizmo"), frame.Text("자재 부족"), frame.Number(1))
	return f
}

func TestDeriveKey(t *testing.T) {
	assert.Equal(t, "W-1|Acme|Widget|note", DeriveKey("W-1", "Acme", "Widget", "note"))
	assert.Equal(t, "W-3||Gizmo|x", DeriveKey("W-3", "", "Gizmo", "x"))
	a := Issue{WorkOrder: "W", Customer: "C", Product: "P", Note: "N", Month: "24.01"}
	b := Issue{WorkOrder: "W", Customer: "C", Product: "P", Note: "N", Month: "24.02"}
	assert.Equal(t, a.Key(), b.Key())
}

func TestExtract(t *testing.T) {
	got := Extract(byItem())
	require.Len(t, got, 2)
	assert.Equal(t, "W-1", got[0].WorkOrder)
	assert.Equal(t, "W-3", got[1].WorkOrder)
	assert.Equal(t, "", got[1].Customer)
	assert.Equal(t, "W-3||Gizmo|자재 부족", got[1].Key())

	assert.Empty(t, Extract(byItem().Drop(orders.ColNote)))
}

func TestMergeLeftJoin(t *testing.T) {
	current := Extract(byItem())
	stored := []Resolution{
		{Key: current[0].Key(), Resolved: true, Closed: day(2024, 6, 1), Raised: day(2024, 5, 20)},
		{Key: "orphan|||", Resolved: true},
	}
	merged := Merge(current, stored)
	require.Len(t, merged, 2)
	assert.True(t, merged[0].Resolved)
	assert.Equal(t, day(2024, 6, 1), merged[0].Closed)
	assert.Equal(t, day(2024, 5, 20), merged[0].Raised)
	assert.False(t, merged[1].Resolved)
	assert.True(t, merged[1].Closed.IsZero())

	unresolved, resolved := Split(merged)
	assert.Len(t, unresolved, 1)
	assert.Len(t, resolved, 1)
}

func TestBulkResolveLeavesResolvedUntouched(t *testing.T) {
	all := []Issue{
		{WorkOrder: "A", Note: "n"},
		{WorkOrder: "B", Note: "n", Resolved: true, Closed: day(2024, 1, 2)},
	}
	out := BulkResolve(all, today)
	assert.True(t, out[0].Resolved)
	assert.Equal(t, today, out[0].Closed)
	assert.Equal(t, day(2024, 1, 2), out[1].Closed)
	assert.False(t, all[0].Resolved, "input is not modified")
}

func TestResolveAndReopen(t *testing.T) {
	all := Extract(byItem())
	key := all[1].Key()

	out, err := Resolve(all, key, time.Time{})
	require.NoError(t, err)
	assert.True(t, out[1].Resolved)

	out, err = Reopen(out, key)
	require.NoError(t, err)
	assert.False(t, out[1].Resolved)

	_, err = Resolve(all, "missing", today)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrepareSave(t *testing.T) {
	edited := []Issue{
		{WorkOrder: "A", Note: "n", Resolved: true},
		{WorkOrder: "B", Note: "n", Resolved: false, Closed: day(2024, 1, 1)},
		{WorkOrder: "C", Note: "n", Resolved: true, Closed: day(2024, 2, 2)},
		{WorkOrder: "A", Note: "n", Resolved: false, Raised: day(2024, 3, 3)},
	}
	out := PrepareSave(edited, today)
	require.Len(t, out, 3)

	assert.Equal(t, "B|||n", out[0].Key)
	assert.True(t, out[0].Closed.IsZero(), "unresolved rows lose their closed date")
	assert.Equal(t, day(2024, 2, 2), out[1].Closed)

	last := out[2]
	assert.Equal(t, "A|||n", last.Key)
	assert.False(t, last.Resolved, "last occurrence wins")
	assert.Equal(t, day(2024, 3, 3), last.Raised)

	stamped := PrepareSave(edited[:1], today)
	assert.Equal(t, today, stamped[0].Closed)
}

func TestCombineKeepsOrphans(t *testing.T) {
	stored := []Resolution{{Key: "old"}, {Key: "A", Resolved: false}}
	out := Combine(stored, []Resolution{{Key: "A", Resolved: true}, {Key: "new"}})
	require.Len(t, out, 3)
	assert.Equal(t, "old", out[0].Key)
	assert.True(t, out[1].Resolved)
	assert.Equal(t, "new", out[2].Key)
}

func TestSearch(t *testing.T) {
	all := Extract(byItem())
	assert.Len(t, Search(all, ""), 2)
	got := Search(all, "gizmo")
	require.Len(t, got, 1)
	assert.Equal(t, "W-3", got[0].WorkOrder)
	assert.Len(t, Search(all, "widget, 자재"), 2)
}

func TestLoadMissingFile(t *testing.T) {
	entries, err := LoadFile(filepath.Join(t.TempDir(), "issue_tracker.xlsx"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issue_tracker.xlsx")
	entries := []Resolution{
		{Key: "W-1|Acme|Widget|포장 지연", Resolved: true, Closed: day(2024, 6, 1), Raised: day(2024, 5, 20)},
		{Key: "W-3||Gizmo|자재 부족"},
	}
	require.NoError(t, SaveFile(path, entries))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	rows, err := book.GetRows(book.GetSheetList()[0])
	require.NoError(t, err)
	require.NoError(t, book.Close())
	assert.Equal(t, LedgerColumns, rows[0])

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestLoadWithoutKeyColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issue_tracker.xlsx")
	book := excelize.NewFile()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]interface{}{"something", orders.ColResolved}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]interface{}{"x", true}))
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	entries, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadDefaultsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issue_tracker.xlsx")
	book := excelize.NewFile()
	require.NoError(t, book.SetSheetRow("Sheet1", "A1", &[]interface{}{orders.ColIssueKey}))
	require.NoError(t, book.SetSheetRow("Sheet1", "A2", &[]interface{}{"k"}))
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	entries, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Resolution{{Key: "k"}}, entries)
}

func TestCommitThroughFileLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewFileLedger(filepath.Join(t.TempDir(), "book", "issue_tracker.xlsx"), nil)

	all, err := Open(ctx, ledger, byItem())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, Commit(ctx, ledger, BulkResolve(all, today), today))

	reloaded, err := Open(ctx, ledger, byItem())
	require.NoError(t, err)
	for _, issue := range reloaded {
		assert.True(t, issue.Resolved)
		assert.Equal(t, today, issue.Closed)
	}

	// A later save of a subset keeps entries for issues not in view.
	reopened, err := Reopen(reloaded[:1], reloaded[0].Key())
	require.NoError(t, err)
	require.NoError(t, Commit(ctx, ledger, reopened, today))

	stored, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.False(t, stored[0].Resolved)
	assert.True(t, stored[0].Closed.IsZero())
	assert.True(t, stored[1].Resolved)
}
