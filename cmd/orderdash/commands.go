package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssungjun83/Order-Dashboard/aggregate"
	"github.com/ssungjun83/Order-Dashboard/export"
	"github.com/ssungjun83/Order-Dashboard/frame"
	"github.com/ssungjun83/Order-Dashboard/issues"
	"github.com/ssungjun83/Order-Dashboard/orders"
	"github.com/ssungjun83/Order-Dashboard/source"
	"github.com/ssungjun83/Order-Dashboard/store"
)

const (
	summaryFilename = "order_summary.xlsx"
	issuesFilename  = "production_issues.xlsx"
)

func allRows(f *frame.Frame) []int {
	rows := make([]int, f.Len())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// summaryView filters the selected detail table; the per-item table ignores the month facet.
func (a *app) summaryView(sel *selection) (string, *view, error) {
	path, wb, err := a.workbook()
	if err != nil {
		return "", nil, err
	}
	detail, err := sel.detail(wb)
	if err != nil {
		return "", nil, err
	}
	v, err := sel.apply(detail, a.today, sel.sheet == sheetByItem, a.log)
	if err != nil {
		return "", nil, err
	}
	return path, v, nil
}

// priorityView is always drawn from the per-item table without the month facet.
func (a *app) priorityView(sel *selection) (string, *view, error) {
	sel.sheet = sheetByItem
	return a.summaryView(sel)
}

func summaryTable(v *view, monthly bool) *frame.Frame {
	if monthly {
		return aggregate.MonthlySummary(v.rows)
	}
	return aggregate.YearSummary(v.rows)
}

func summaryCmd(a *app) *cobra.Command {
	sel := &selection{}
	var monthly bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the year (or month) by type summary of the filtered orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, v, err := a.summaryView(sel)
			if err != nil {
				return err
			}
			rate := aggregate.ComplianceRate(v.rows, allRows(v.rows))
			printSummary(cmd.OutOrStdout(), path, v, summaryTable(v, monthly), rate)
			return nil
		},
	}
	sel.bind(cmd, true)
	cmd.Flags().BoolVar(&monthly, "monthly", false, "Group by year, month and type")
	return cmd
}

// priorityJSON is the JSON form of one ranking row.
type priorityJSON struct {
	Rank      int      `json:"rank"`
	Product   string   `json:"product"`
	AvgDemand *float64 `json:"avg_demand"`
	TotalQty  float64  `json:"total_qty"`
	POCount   int      `json:"po_count"`
	Streak    int      `json:"streak"`
	Share     float64  `json:"share"`
}

func writeJSON(ranking []aggregate.Priority, path string) error {
	rows := make([]priorityJSON, 0, len(ranking))
	for _, p := range ranking {
		row := priorityJSON{
			Rank:     p.Rank,
			Product:  p.Product,
			TotalQty: p.TotalQty,
			POCount:  p.POCount,
			Streak:   p.Streak,
			Share:    p.Share,
		}
		if p.HasAvgDemand() {
			avg := p.AvgDemand
			row.AvgDemand = &avg
		}
		rows = append(rows, row)
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func priorityCmd(a *app) *cobra.Command {
	sel := &selection{}
	var (
		jsonOut string
		storeDB bool
		tag     string
	)
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Rank products by demand share, average order size and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, v, err := a.priorityView(sel)
			if err != nil {
				return err
			}
			ranking := aggregate.ProductPriority(v.rows)
			out := cmd.OutOrStdout()
			printPriority(out, path, v, ranking)

			if jsonOut != "" {
				if err := writeJSON(ranking, jsonOut); err != nil {
					return err
				}
				fmt.Fprintf(out, "\nJSON ranking saved to %s\n", jsonOut)
			}
			if storeDB {
				s, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()
				runID, err := s.SavePriorityRun(cmd.Context(), store.PriorityRun{
					Tag:     tag,
					Period:  v.period,
					Query:   v.query,
					Facets:  v.criteria.Facets,
					Ranking: ranking,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nStored priority run in Postgres (run_id=%s)\n", runID)
			}
			return nil
		},
	}
	sel.bind(cmd, false)
	cmd.Flags().StringVar(&jsonOut, "json", "", "Optional JSON output path")
	cmd.Flags().BoolVar(&storeDB, "db", false, "Store the ranking in Postgres (requires ORDERDASH_DB_URL or DATABASE_URL)")
	cmd.Flags().StringVar(&tag, "db-tag", "", "Optional label for the stored run")
	return cmd
}

// exportTable builds the table and schema for one export target.
func (a *app) exportTable(cmd *cobra.Command, target string, sel *selection, monthly bool) (*frame.Frame, frame.Schema, string, error) {
	detailTable := func(v *view) *frame.Frame {
		return orders.MoveNoteBeforeYear(v.rows).Drop(orders.ColSearchIndex, orders.ColMonthDate)
	}
	switch target {
	case "orders":
		sel.sheet = sheetOrders
		_, v, err := a.summaryView(sel)
		if err != nil {
			return nil, nil, "", err
		}
		return detailTable(v), orders.DetailSchema, export.OrderStatusFilename, nil
	case "by-item":
		sel.sheet = sheetByItem
		_, v, err := a.summaryView(sel)
		if err != nil {
			return nil, nil, "", err
		}
		return detailTable(v), orders.DetailSchema, export.ByItemFilename, nil
	case "priority":
		_, v, err := a.priorityView(sel)
		if err != nil {
			return nil, nil, "", err
		}
		return aggregate.PriorityFrame(aggregate.ProductPriority(v.rows)), orders.PrioritySchema, export.PriorityFilename, nil
	case "summary":
		_, v, err := a.summaryView(sel)
		if err != nil {
			return nil, nil, "", err
		}
		return summaryTable(v, monthly), orders.SummarySchema, summaryFilename, nil
	case "issues":
		_, wb, err := a.workbook()
		if err != nil {
			return nil, nil, "", err
		}
		ledger, closeLedger, err := a.ledger(cmd.Context())
		if err != nil {
			return nil, nil, "", err
		}
		defer closeLedger()
		all, err := issues.Open(cmd.Context(), ledger, wb.ByItem)
		if err != nil {
			return nil, nil, "", err
		}
		return issues.Table(issues.Search(all, sel.query)), issues.Schema, issuesFilename, nil
	default:
		return nil, nil, "", fmt.Errorf("unknown export %q (want orders, by-item, priority, summary or issues)", target)
	}
}

func exportCmd(a *app) *cobra.Command {
	sel := &selection{}
	var (
		outPath string
		monthly bool
	)
	cmd := &cobra.Command{
		Use:   "export orders|by-item|priority|summary|issues",
		Short: "Write a filtered table as a styled xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, schema, filename, err := a.exportTable(cmd, args[0], sel, monthly)
			if err != nil {
				return err
			}
			download, err := export.NewDownload(table, schema, filename)
			if err != nil {
				return err
			}
			path := outPath
			if path == "" {
				path = download.Filename
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, download.Filename)
			}
			if err := os.WriteFile(path, download.Data, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.metrics.Export(download.Filename)
			fmt.Fprintf(cmd.OutOrStdout(), "Export saved to %s (%d rows)\n", path, table.Len())
			return nil
		},
	}
	sel.bind(cmd, true)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file or directory (default the descriptive filename)")
	cmd.Flags().BoolVar(&monthly, "monthly", false, "Monthly grouping for the summary export")
	return cmd
}

func choicesCmd(a *app) *cobra.Command {
	sel := &selection{}
	cmd := &cobra.Command{
		Use:   "choices",
		Short: "List the facet values available in the selected period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, v, err := a.summaryView(sel)
			if err != nil {
				return err
			}
			printChoices(cmd.OutOrStdout(), path, v)
			return nil
		},
	}
	sel.bind(cmd, true)
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the source workbook whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path, err := a.sourcePath()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reload := func() {
				wb, err := a.cache.LoadPath(path)
				if err != nil {
					// A half-written file fails to open; the next event retries.
					a.log.WithError(err).WithField("path", path).Warn("reload failed")
					return
				}
				printLoaded(out, path, wb)
			}
			reload()

			changes, err := source.Watch(ctx, a.cache, path, a.log)
			if err != nil {
				return err
			}
			for change := range changes {
				fmt.Fprintf(out, "%s %s\n", change.At.Format("15:04:05"), change.Op)
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					continue
				}
				reload()
			}
			return nil
		},
	}
}

func printLoaded(w io.Writer, path string, wb *source.Workbook) {
	fmt.Fprintf(w, "Loaded %s: %d orders, %d item rows\n", filepath.Base(path), wb.Orders.Len(), wb.ByItem.Len())
}
