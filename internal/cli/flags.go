package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
)

// Pull sources accepted by -source
const (
	SourceAll    = "all"
	SourceYNAB   = appsync.SourceYNAB
	SourceAmazon = appsync.SourceAmazon
)

// PullFlags are the flags of the pull command
type PullFlags struct {
	Source string
	Full   bool
	Days   int
	DryRun bool
	Fix    bool
}

// ParsePullFlags parses pull's arguments
func ParsePullFlags(args []string) (PullFlags, error) {
	var flags PullFlags
	fs := newFlagSet("pull")
	fs.StringVar(&flags.Source, "source", SourceAll, "Source to pull: all, ynab or amazon")
	fs.BoolVar(&flags.Full, "full", false, "Ignore sync state and fetch all history")
	fs.IntVar(&flags.Days, "days", 0, "Fetch the last N days regardless of sync state")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Fetch and compare without writing")
	fs.BoolVar(&flags.Fix, "fix", false, "Queue conflicted transactions to restore their category on push")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}

	switch flags.Source {
	case SourceAll, SourceYNAB, SourceAmazon:
	default:
		return flags, fmt.Errorf("unknown source %q (want all, ynab or amazon)", flags.Source)
	}
	if flags.Days < 0 {
		return flags, errors.New("-days must not be negative")
	}
	return flags, nil
}

// ToPullOptions converts PullFlags to appsync.PullOptions
func (f PullFlags) ToPullOptions() appsync.PullOptions {
	return appsync.PullOptions{
		Full:      f.Full,
		SinceDays: f.Days,
		DryRun:    f.DryRun,
		Fix:       f.Fix,
	}
}

// MatchFlags are the flags of the match command
type MatchFlags struct {
	Days          int
	Uncategorized bool
	XLSXPath      string
	SummaryOnly   bool
}

// ParseMatchFlags parses match's arguments
func ParseMatchFlags(args []string) (MatchFlags, error) {
	var flags MatchFlags
	fs := newFlagSet("match")
	fs.IntVar(&flags.Days, "days", 0, "Only match transactions from the last N days (0 = all)")
	fs.BoolVar(&flags.Uncategorized, "uncategorized", false, "Only match uncategorized transactions")
	fs.StringVar(&flags.XLSXPath, "xlsx", "", "Also write the report to this XLSX file")
	fs.BoolVar(&flags.SummaryOnly, "summary", false, "Print only the summary line")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if flags.Days < 0 {
		return flags, errors.New("-days must not be negative")
	}
	return flags, nil
}

// CategorizeFlags are the flags and arguments of the categorize command
type CategorizeFlags struct {
	TransactionID string
	CategoryID    string
	CategoryName  string
	Approve       bool
}

// ParseCategorizeFlags parses "categorize [-name N] [-approve] <transaction-id> <category-id>"
func ParseCategorizeFlags(args []string) (CategorizeFlags, error) {
	var flags CategorizeFlags
	fs := newFlagSet("categorize")
	fs.StringVar(&flags.CategoryName, "name", "", "Category name shown in pending lists")
	fs.BoolVar(&flags.Approve, "approve", false, "Also approve the transaction")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if fs.NArg() != 2 {
		return flags, errors.New("usage: categorize [-name NAME] [-approve] <transaction-id> <category-id>")
	}
	flags.TransactionID = fs.Arg(0)
	flags.CategoryID = fs.Arg(1)
	return flags, nil
}

// ToRequest converts CategorizeFlags to an appsync.CategorizeRequest
func (f CategorizeFlags) ToRequest() appsync.CategorizeRequest {
	return appsync.CategorizeRequest{
		TransactionID: f.TransactionID,
		CategoryID:    f.CategoryID,
		CategoryName:  f.CategoryName,
		Approve:       f.Approve,
	}
}

// ParseUndoArgs parses "undo <transaction-id>"
func ParseUndoArgs(args []string) (string, error) {
	fs := newFlagSet("undo")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", errors.New("usage: undo <transaction-id>")
	}
	return fs.Arg(0), nil
}

// ParsePushFlags parses push's arguments and returns whether it is a dry run
func ParsePushFlags(args []string) (bool, error) {
	var dryRun bool
	fs := newFlagSet("push")
	fs.BoolVar(&dryRun, "dry-run", false, "Show what would be pushed")
	err := fs.Parse(args)
	return dryRun, err
}

// RunsFlags are the flags of the runs command
type RunsFlags struct {
	Limit int
	RunID string // Show one run when set
}

// ParseRunsFlags parses "runs [-limit N] [run-id]"
func ParseRunsFlags(args []string) (RunsFlags, error) {
	var flags RunsFlags
	fs := newFlagSet("runs")
	fs.IntVar(&flags.Limit, "limit", 20, "Number of runs to list")
	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if flags.Limit <= 0 {
		return flags, errors.New("-limit must be positive")
	}
	flags.RunID = fs.Arg(0)
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port     int
	Schedule string
}

// ParseServeFlags parses command line flags for the serve command.
// Zero values fall back to config.
func ParseServeFlags(args []string) (ServeFlags, error) {
	var flags ServeFlags
	fs := newFlagSet("serve")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default from config)")
	fs.StringVar(&flags.Schedule, "schedule", "", "Cron spec for background pulls (default from config)")
	err := fs.Parse(args)
	return flags, err
}

// newFlagSet returns a flag set that reports errors instead of exiting
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
