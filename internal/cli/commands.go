package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
	"github.com/eshaffer321/ynab-reconcile/internal/report"
)

// ErrIncomplete is returned when a command finished but some work failed.
// main exits non-zero on it without repeating the output.
var ErrIncomplete = errors.New("completed with errors")

// RunPull pulls the selected sources into the store
func RunPull(ctx context.Context, app *App, flags PullFlags) error {
	PrintHeader(app.Out, "pull", flags.DryRun)
	opts := flags.ToPullOptions()

	var results map[string]*appsync.PullResult
	switch flags.Source {
	case SourceYNAB:
		results = map[string]*appsync.PullResult{SourceYNAB: app.Service.PullYNAB(ctx, opts)}
	case SourceAmazon:
		results = map[string]*appsync.PullResult{SourceAmazon: app.Service.PullAmazon(ctx, opts)}
	default:
		var err error
		results, err = app.Service.Pull(ctx, opts)
		if err != nil {
			return err
		}
	}

	PrintPullSummary(app.Out, results, flags.DryRun)
	for _, r := range results {
		if !r.Success() {
			return ErrIncomplete
		}
	}
	return nil
}

// RunMatch matches stored transactions against cached orders and prints the report
func RunMatch(ctx context.Context, app *App, flags MatchFlags) error {
	matchReport, err := app.Service.Match(ctx, appsync.MatchOptions{
		Since:             app.Service.SinceDays(flags.Days),
		UncategorizedOnly: flags.Uncategorized,
	})
	if err != nil {
		return err
	}

	cfg := app.Service.Settings().Matcher
	opts := report.TextOptions{Stage1Window: cfg.Stage1Window, Stage2Window: cfg.Stage2Window}

	if matchReport.Transactions == 0 {
		fmt.Fprintln(app.Out, "No Amazon transactions to match. Run 'pull' first.")
		return nil
	}
	fmt.Fprintf(app.Out, "Matching %d transaction(s) against %d order(s) from %s to %s\n\n",
		matchReport.Transactions, matchReport.Orders,
		matchReport.Start.Format(dateLayout), matchReport.End.Format(dateLayout))

	if flags.SummaryOnly {
		fmt.Fprintf(app.Out, "Summary: %s\n", report.Summary(matchReport.Result, opts))
	} else if err := report.WriteText(app.Out, matchReport.Result, opts); err != nil {
		return err
	}

	if flags.XLSXPath != "" {
		if err := report.SaveXLSX(flags.XLSXPath, matchReport.Result, opts); err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "\nReport written to %s\n", flags.XLSXPath)
	}
	return nil
}

// RunCategorize queues a category change for the next push
func RunCategorize(ctx context.Context, app *App, flags CategorizeFlags) error {
	outcome, err := app.Service.Categorize(ctx, flags.ToRequest())
	if err != nil {
		return err
	}

	switch outcome {
	case storage.PendingCreated:
		fmt.Fprintf(app.Out, "Queued %s -> %s\n", flags.TransactionID, categoryLabel(flags))
	case storage.PendingUpdated:
		fmt.Fprintf(app.Out, "Updated pending change for %s -> %s\n", flags.TransactionID, categoryLabel(flags))
	case storage.PendingDeleted:
		fmt.Fprintf(app.Out, "%s already has that category; pending change cleared\n", flags.TransactionID)
	}
	return nil
}

// RunUndo drops the pending change for a transaction
func RunUndo(ctx context.Context, app *App, transactionID string) error {
	if err := app.Service.Undo(ctx, transactionID); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Pending change for %s removed\n", transactionID)
	return nil
}

// RunPending lists the pending change queue
func RunPending(ctx context.Context, app *App) error {
	changes, err := app.Service.ListPending(ctx)
	if err != nil {
		return err
	}
	PrintPending(app.Out, changes)
	return nil
}

// RunPush sends pending changes to YNAB
func RunPush(ctx context.Context, app *App, dryRun bool) error {
	PrintHeader(app.Out, "push", dryRun)
	result, err := app.Service.Push(ctx, dryRun)
	if err != nil {
		return err
	}
	PrintPushSummary(app.Out, result)
	if !result.Success() {
		return ErrIncomplete
	}
	return nil
}

// RunStatus prints what the store holds
func RunStatus(ctx context.Context, app *App) error {
	status, err := app.Service.Status(ctx)
	if err != nil {
		return err
	}
	PrintStatus(app.Out, status)
	return nil
}

// RunRuns lists recent runs, or shows one
func RunRuns(ctx context.Context, app *App, flags RunsFlags) error {
	if flags.RunID != "" {
		run, err := app.Service.Run(ctx, flags.RunID)
		if err != nil {
			return err
		}
		PrintRun(app.Out, *run)
		return nil
	}

	runs, err := app.Service.RecentRuns(ctx, flags.Limit)
	if err != nil {
		return err
	}
	PrintRuns(app.Out, runs)
	return nil
}

func categoryLabel(flags CategorizeFlags) string {
	if strings.TrimSpace(flags.CategoryName) != "" {
		return flags.CategoryName
	}
	return flags.CategoryID
}
