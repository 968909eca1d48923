package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ssungjun83/Order-Dashboard/config"
	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/issues"
	"github.com/ssungjun83/Order-Dashboard/normalize"
	"github.com/ssungjun83/Order-Dashboard/orders"
)

func detailRows() [][]interface{} {
	return [][]interface{}{
		{orders.ColMonth, orders.ColType, orders.ColStatus, orders.ColCustomer, orders.ColWorkOrder,
			orders.ColProduct, orders.ColOrderQty, orders.ColDuePlan, orders.ColNote},
		{"24.01", "수출", "생산중", "Acme", "W-1", "Widget", 100, "준수", "포장 지연"},
		{"24.02", "수출", "출고완료", "Beta", "W-2", "Widget", 50, orders.DelayedLabel, ""},
		{"24.01", "내수", "생산중", "Gamma", "W-3", "Gadget", 30, "준수", "라벨 누락"},
	}
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	sheets := map[string][][]interface{}{
		orders.SheetOrderStatus: detailRows(),
		orders.SheetByItem:      detailRows(),
		orders.SheetMonthly:     {{orders.ColMonth, orders.ColOrderCount}, {"24.01", 2}},
		orders.SheetLeadtime:    {{orders.ColMonth, orders.ColLeadtimeAvg}, {"24.01", 12}},
	}
	book := excelize.NewFile()
	defer book.Close()
	for i, name := range []string{orders.SheetOrderStatus, orders.SheetByItem, orders.SheetMonthly, orders.SheetLeadtime} {
		if i == 0 {
			require.NoError(t, book.SetSheetName("Sheet1", name))
		} else {
			_, err := book.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, book.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, book.SaveAs(path))
}

type fixture struct {
	dir    string
	source string
	ledger string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	for _, name := range []string{
		config.EnvSource, config.EnvLedger, config.EnvLedgerBackend, config.EnvDBURL,
		config.EnvDBURLFallback, config.EnvDBSchema, config.EnvDBTimeout, config.EnvLogLevel,
		config.EnvLogFormat, config.EnvMetricsFile,
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	fx := fixture{
		dir:    dir,
		source: filepath.Join(dir, "order_status.xlsx"),
		ledger: filepath.Join(dir, "issue_tracker.xlsx"),
		config: filepath.Join(dir, config.ProjectConfigFile),
	}
	writeWorkbook(t, fx.source)
	cfg := config.DefaultConfig()
	cfg.Source.Path = fx.source
	cfg.Ledger.Path = fx.ledger
	require.NoError(t, cfg.SaveToFile(fx.config))
	return fx
}

// run executes the root command with the fixture's config and a fixed reference date.
func (fx fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", fx.config, "--today", "2024-01-15"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "orderdash version "+Version)
}

func TestSummaryDefaultPeriod(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Order Status Summary")
	assert.Contains(t, out, "Period: 2024-01..2024-02")
	assert.Contains(t, out, "Rows: 3")
	assert.Contains(t, out, "Due compliance (first ship plan): 66.7%")
	assert.Contains(t, out, orders.TotalLabel)
}

func TestSummaryFacetAndSearch(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "summary", "--facet", "type=수출")
	require.NoError(t, err)
	assert.Contains(t, out, "Facet "+orders.ColType+": 수출")
	assert.Contains(t, out, "Rows: 2")

	out, _, err = fx.run(t, "summary", "--search", "gamma")
	require.NoError(t, err)
	assert.Contains(t, out, "Search: gamma")
	assert.Contains(t, out, "Rows: 1")

	out, _, err = fx.run(t, "summary", "--from", "2024-02", "--to", "2024-02")
	require.NoError(t, err)
	assert.Contains(t, out, "Period: 2024-02..2024-02")
	assert.Contains(t, out, "Rows: 1")
}

func TestSummaryWarnsOnUnknownFacetValue(t *testing.T) {
	fx := newFixture(t)
	out, errOut, err := fx.run(t, "summary", "--facet", "customer=Acm")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 0")
	assert.Contains(t, out, "No orders found.")
	assert.Contains(t, errOut, "facet value not present")
	assert.Contains(t, errOut, "Acme")
}

func TestPriority(t *testing.T) {
	fx := newFixture(t)
	jsonPath := filepath.Join(fx.dir, "priority.json")
	out, _, err := fx.run(t, "priority", "--json", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 | Widget | share 83.3% | avg 75 | total 150 | PO 2 | streak 2")
	assert.Contains(t, out, "2 | Gadget | share 16.7% | avg 30 | total 30 | PO 1 | streak 1")

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product": "Widget"`)
	assert.Contains(t, string(data), `"avg_demand": 75`)
}

func TestPriorityIgnoresMonthFacet(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "priority", "--facet", "month=24.01")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 3")
	assert.NotContains(t, out, "Facet "+orders.ColMonth)
}

func TestExportOrders(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "export", "orders", "--out", fx.dir)
	require.NoError(t, err)
	path := filepath.Join(fx.dir, "order_status_filtered.xlsx")
	assert.Contains(t, out, "Export saved to "+path+" (3 rows)")

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("data")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	header := rows[1]
	assert.Equal(t, orders.ColMonth, header[0])
	assert.NotContains(t, header, orders.ColSearchIndex)
	assert.NotContains(t, header, orders.ColMonthDate)
	assert.Less(t, indexOf(header, orders.ColNote), indexOf(header, orders.ColYear))
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

func TestExportUnknownTarget(t *testing.T) {
	fx := newFixture(t)
	_, _, err := fx.run(t, "export", "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export")
}

func TestChoices(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "choices", "--from", "2024-01", "--to", "2024-01")
	require.NoError(t, err)
	assert.Contains(t, out, orders.ColCustomer+" (2)")
	assert.Contains(t, out, "Acme")
	assert.NotContains(t, out, "Beta")
}

func TestIssuesResolveAndList(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Unresolved: 2 | Resolved: 0")

	key := issues.DeriveKey("W-1", "Acme", "Widget", "포장 지연")
	out, _, err = fx.run(t, "issues", "resolve", key, "--date", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 issue(s)")

	stored, err := issues.LoadFile(fx.ledger)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	out, _, err = fx.run(t, "issues", "list", "--resolved")
	require.NoError(t, err)
	assert.Contains(t, out, "Unresolved: 1 | Resolved: 1")
	assert.Contains(t, out, "closed 2024-03-01")

	_, _, err = fx.run(t, "issues", "reopen", key)
	require.NoError(t, err)
	out, _, err = fx.run(t, "issues", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Unresolved: 2 | Resolved: 0")
}

func TestIssuesResolveAll(t *testing.T) {
	fx := newFixture(t)
	out, _, err := fx.run(t, "issues", "resolve-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved 2 issue(s)")

	stored, err := issues.LoadFile(fx.ledger)
	require.NoError(t, err)
	for _, r := range stored {
		assert.True(t, r.Resolved)
		assert.Equal(t, "2024-01-15", r.Closed.Format("2006-01-02"))
	}
}

func TestIssuesUnknownKey(t *testing.T) {
	fx := newFixture(t)
	_, _, err := fx.run(t, "issues", "resolve", "W-1|Acme|Widget|포장")
	require.Error(t, err)
	assert.True(t, errors.Is(err, issues.ErrNotFound))
	assert.Contains(t, err.Error(), "did you mean")
}

func TestMetricsTextfile(t *testing.T) {
	fx := newFixture(t)
	path := filepath.Join(fx.dir, "orderdash.prom")
	_, _, err := fx.run(t, "summary", "--metrics-file", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "orderdash_")
}

func TestParseFacets(t *testing.T) {
	facets, err := parseFacets([]string{"type=수출", "customer=Acme, Inc", "type=내수", orders.ColOwner + "=Kim"})
	require.NoError(t, err)
	require.Len(t, facets, 3)
	assert.Equal(t, orders.ColType, facets[0].Column)
	assert.Equal(t, []string{"수출", "내수"}, facets[0].Allowed)
	assert.Equal(t, []string{"Acme, Inc"}, facets[1].Allowed)
	assert.Equal(t, orders.ColOwner, facets[2].Column)

	_, err = parseFacets([]string{"type"})
	assert.Error(t, err)

	_, err = parseFacets([]string{"custmer=Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "customer"`)
}

func monthFrame(months ...string) *frame.Frame {
	f := frame.New(orders.ColMonth)
	for _, m := range months {
		f.Append(frame.Text(m))
	}
	return normalize.AddMonthDate(f)
}

func TestSelectionPeriod(t *testing.T) {
	f := monthFrame("23.11", "24.01", "24.06")
	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		sel     selection
		want    string
		wantErr bool
	}{
		{"default window clamps to data", selection{}, "2024-05..2024-06", false},
		{"from only spans three months", selection{from: "2024-01"}, "2024-01..2024-03", false},
		{"to only starts at the data", selection{to: "2023-12"}, "2023-11..2023-12", false},
		{"explicit range", selection{from: "2024-02", to: "2024-04"}, "2024-02..2024-04", false},
		{"preset", selection{preset: "last-year"}, "2023-11..2023-12", false},
		{"reversed range", selection{from: "2024-04", to: "2024-02"}, "", true},
		{"preset with months", selection{preset: "max", from: "2024-01"}, "", true},
		{"bad month", selection{from: "2024/01"}, "", true},
		{"unknown preset", selection{preset: "decade"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.sel.period(f, today)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestSelectionPeriodWithoutMonths(t *testing.T) {
	sel := selection{}
	p, err := sel.period(frame.New(orders.ColMonth), time.Now())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDetailSheet(t *testing.T) {
	sel := selection{sheet: "monthly"}
	_, err := sel.detail(nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), sheetByItem))
}
