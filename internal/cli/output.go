package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

const dateLayout = "2006-01-02"

// PrintHeader prints the command header
func PrintHeader(w io.Writer, command string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "ynab-reconcile: %s (%s mode)\n", command, mode)
}

// PrintPullSummary prints one block per pulled source, ynab first
func PrintPullSummary(w io.Writer, results map[string]*appsync.PullResult, dryRun bool) {
	sources := make([]string, 0, len(results))
	for source := range results {
		sources = append(sources, source)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(sources))) // "ynab" before "amazon"

	for _, source := range sources {
		r := results[source]
		fmt.Fprintln(w, strings.Repeat("-", 60))
		fmt.Fprintf(w, "%s: Fetched=%d Inserted=%d Updated=%d Total=%d\n",
			strings.ToUpper(source), r.Fetched, r.Inserted, r.Updated, r.Total)
		if !r.OldestDate.IsZero() {
			fmt.Fprintf(w, "  Range: %s to %s\n", r.OldestDate.Format(dateLayout), r.NewestDate.Format(dateLayout))
		}
		if r.Conflicts > 0 {
			fmt.Fprintf(w, "  Conflicts: %d (fixed %d)\n", r.Conflicts, r.Fixed)
		}
		if len(r.Errors) > 0 {
			fmt.Fprintln(w, "  Errors:")
			for _, err := range r.Errors {
				fmt.Fprintf(w, "    - %s\n", err)
			}
		}
	}

	if dryRun {
		fmt.Fprintln(w, "\nDry run: nothing was written.")
	}
}

// PrintPending prints the pending change queue
func PrintPending(w io.Writer, changes []*storage.PendingChange) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No pending changes.")
		return
	}

	fmt.Fprintf(w, "%d pending change(s):\n", len(changes))
	for _, c := range changes {
		from := c.OriginalCategoryName
		if from == "" {
			from = "(uncategorized)"
		}
		to := c.NewCategoryName
		if to == "" {
			to = c.NewCategoryID
		}
		approve := ""
		if c.NewApproved && !c.OriginalApproved {
			approve = " +approve"
		}
		fmt.Fprintf(w, "  %s  %s  %-30s %s -> %s%s\n",
			c.Date.Format(dateLayout),
			matcher.FormatDisplayAmount(c.Amount),
			truncate(c.PayeeName, 30),
			from, to, approve)
	}
}

// PrintPushSummary prints the push outcome
func PrintPushSummary(w io.Writer, result *appsync.PushResult) {
	if result.DryRun {
		fmt.Fprintf(w, "Would push %d change(s).\n", result.Pushed)
		PrintPending(w, result.Pending)
		return
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Pushed=%d Succeeded=%d Failed=%d\n", result.Pushed, result.Succeeded, result.Failed)
	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
	}
	if result.Pushed > 0 && result.Success() {
		fmt.Fprintln(w, "\nPush completed successfully.")
	}
}

// PrintStatus prints the store summary
func PrintStatus(w io.Writer, status *appsync.Status) {
	printSource(w, "YNAB transactions", status.YNAB)
	printSource(w, "Amazon orders", status.Amazon)
	fmt.Fprintf(w, "Order items:    %d\n", status.OrderItems)
	fmt.Fprintf(w, "Uncategorized:  %d\n", status.Uncategorized)
	fmt.Fprintf(w, "Conflicts:      %d\n", status.Conflicts)
	fmt.Fprintf(w, "Pending push:   %d\n", status.PendingPush)
}

func printSource(w io.Writer, label string, s appsync.SourceStatus) {
	fmt.Fprintf(w, "%s: %d", label, s.Count)
	if s.EarliestDate != "" {
		fmt.Fprintf(w, " (%s to %s)", s.EarliestDate, s.LatestDate)
	}
	if !s.LastSyncAt.IsZero() {
		fmt.Fprintf(w, ", last sync %s", s.LastSyncAt.Local().Format(time.DateTime))
	} else {
		fmt.Fprint(w, ", never synced")
	}
	fmt.Fprintln(w)
}

// PrintRuns prints recent runs, newest first
func PrintRuns(w io.Writer, runs []storage.SyncRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		PrintRun(w, run)
	}
}

// PrintRun prints one run on a single line
func PrintRun(w io.Writer, run storage.SyncRun) {
	dry := ""
	if run.DryRun {
		dry = " (dry-run)"
	}
	fmt.Fprintf(w, "%s  %-6s %-9s fetched=%d inserted=%d updated=%d errored=%d  %s%s\n",
		run.StartedAt, run.Source, run.Status,
		run.Fetched, run.Inserted, run.Updated, run.Errored,
		run.ID, dry)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
