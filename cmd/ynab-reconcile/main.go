package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eshaffer321/ynab-reconcile/internal/cli"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	subcommand, subArgs := args[0], args[1:]

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Observability.Logging)

	if err := run(subcommand, subArgs, cfg, logger); err != nil {
		if !errors.Is(err, cli.ErrIncomplete) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(subcommand string, args []string, cfg *config.Config, logger *slog.Logger) error {
	if subcommand == "help" {
		printUsage()
		return nil
	}

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch subcommand {
	case "pull":
		flags, err := cli.ParsePullFlags(args)
		if err != nil {
			return err
		}
		return cli.RunPull(ctx, app, flags)
	case "match":
		flags, err := cli.ParseMatchFlags(args)
		if err != nil {
			return err
		}
		return cli.RunMatch(ctx, app, flags)
	case "categorize":
		flags, err := cli.ParseCategorizeFlags(args)
		if err != nil {
			return err
		}
		return cli.RunCategorize(ctx, app, flags)
	case "undo":
		id, err := cli.ParseUndoArgs(args)
		if err != nil {
			return err
		}
		return cli.RunUndo(ctx, app, id)
	case "pending":
		return cli.RunPending(ctx, app)
	case "push":
		dryRun, err := cli.ParsePushFlags(args)
		if err != nil {
			return err
		}
		return cli.RunPush(ctx, app, dryRun)
	case "status":
		return cli.RunStatus(ctx, app)
	case "runs":
		flags, err := cli.ParseRunsFlags(args)
		if err != nil {
			return err
		}
		return cli.RunRuns(ctx, app, flags)
	case "serve":
		stop() // serve handles its own signals
		flags, err := cli.ParseServeFlags(args)
		if err != nil {
			return err
		}
		return cli.RunServe(app, flags)
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

func printUsage() {
	fmt.Println("ynab-reconcile: match YNAB transactions with Amazon orders")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ynab-reconcile [-config FILE] [-verbose] <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  pull        Fetch YNAB transactions and Amazon orders (-source, -full, -days, -dry-run, -fix)")
	fmt.Println("  match       Match stored transactions to orders (-days, -uncategorized, -xlsx, -summary)")
	fmt.Println("  categorize  Queue a category change: categorize [-name N] [-approve] <txn-id> <category-id>")
	fmt.Println("  undo        Drop the pending change for a transaction")
	fmt.Println("  pending     List pending changes")
	fmt.Println("  push        Send pending changes to YNAB (-dry-run)")
	fmt.Println("  status      Show what the local database holds")
	fmt.Println("  runs        List recent pull/push runs (-limit, or a run ID)")
	fmt.Println("  serve       Run the HTTP API (-port, -schedule)")
}

// loadConfig reads -config when given, otherwise config.yaml or the environment
func loadConfig(configFile string) (*config.Config, error) {
	var cfg *config.Config
	if configFile == "" {
		cfg = config.LoadOrEnv()
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, cfg.Validate()
}
