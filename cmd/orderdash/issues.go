package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssungjun83/Order-Dashboard/issues"
)

func issuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List and resolve production issues noted in the per-item table",
	}
	cmd.AddCommand(
		issuesListCmd(a),
		issuesEditCmd(a, "resolve", "Mark issues resolved", resolveIssue),
		issuesEditCmd(a, "reopen", "Mark issues unresolved", reopenIssue),
		issuesEditCmd(a, "raise", "Record the date issues were raised", raiseIssue),
		issuesResolveAllCmd(a),
	)
	return cmd
}

// editFunc applies one single-issue edit; date is the --date flag or today.
type editFunc func(all []issues.Issue, key string, date time.Time) ([]issues.Issue, error)

func resolveIssue(all []issues.Issue, key string, date time.Time) ([]issues.Issue, error) {
	return issues.Resolve(all, key, date)
}

func reopenIssue(all []issues.Issue, key string, _ time.Time) ([]issues.Issue, error) {
	return issues.Reopen(all, key)
}

func raiseIssue(all []issues.Issue, key string, date time.Time) ([]issues.Issue, error) {
	return issues.SetRaised(all, key, date)
}

// session is the merged issue list of one command together with its ledger.
type session struct {
	path   string
	all    []issues.Issue
	ledger issues.Ledger
	close  func()
}

func (a *app) openIssues(cmd *cobra.Command) (*session, error) {
	path, wb, err := a.workbook()
	if err != nil {
		return nil, err
	}
	ledger, closeLedger, err := a.ledger(cmd.Context())
	if err != nil {
		return nil, err
	}
	all, err := issues.Open(cmd.Context(), ledger, wb.ByItem)
	if err != nil {
		closeLedger()
		return nil, fmt.Errorf("load issue ledger: %w", err)
	}
	return &session{path: path, all: all, ledger: ledger, close: closeLedger}, nil
}

func (a *app) commit(cmd *cobra.Command, s *session) error {
	if err := issues.Commit(cmd.Context(), s.ledger, s.all, a.today); err != nil {
		return fmt.Errorf("save issue ledger: %w", err)
	}
	a.metrics.LedgerSave()
	return nil
}

func issuesListCmd(a *app) *cobra.Command {
	var (
		query        string
		showResolved bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print unresolved (and optionally resolved) issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openIssues(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			unresolved, resolved := issues.Split(issues.Search(s.all, query))
			printIssues(cmd.OutOrStdout(), s.path, unresolved, resolved, showResolved)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "q", "", "Free-text search over the issue fields")
	cmd.Flags().BoolVar(&showResolved, "resolved", false, "Also list resolved issues")
	return cmd
}

func issuesEditCmd(a *app, use, short string, edit editFunc) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   use + " KEY...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := a.today
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				when = parsed
			}

			s, err := a.openIssues(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			for _, key := range args {
				edited, err := edit(s.all, key, when)
				if errors.Is(err, issues.ErrNotFound) {
					return notFound(key, s.all)
				}
				if err != nil {
					return err
				}
				s.all = edited
			}
			if err := a.commit(cmd, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d issue(s) in the ledger\n", len(args))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default --today)")
	return cmd
}

func notFound(key string, all []issues.Issue) error {
	keys := make([]string, len(all))
	for i, issue := range all {
		keys[i] = issue.Key()
	}
	if hint := suggest(key, keys); hint != "" {
		return fmt.Errorf("%w: %q (did you mean %q?)", issues.ErrNotFound, key, hint)
	}
	return fmt.Errorf("%w: %q", issues.ErrNotFound, key)
}

func issuesResolveAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve-all",
		Short: "Resolve every open issue with today's closed date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openIssues(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			open, _ := issues.Split(s.all)
			s.all = issues.BulkResolve(s.all, a.today)
			if err := a.commit(cmd, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d issue(s)\n", len(open))
			return nil
		},
	}
}
