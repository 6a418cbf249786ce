// Package amazon fetches Amazon order history by shelling out to the
// amazon-order-scraper CLI (npm package).
//
// The CLI must be installed globally or available via npx:
//
//	npm install -g amazon-order-scraper
//
// Authentication is managed by the CLI - run `amazon-scraper --login` to authenticate.
package amazon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
)

// DefaultCommand is the scraper binary looked up on PATH
const DefaultCommand = "amazon-scraper"

// npmPackage is what npx runs when the binary is not installed
const npmPackage = "amazon-order-scraper"

// ErrLoginRequired is returned when the scraper has no valid Amazon session
var ErrLoginRequired = errors.New("amazon login required: run 'amazon-scraper --login' to authenticate")

// validProfilePattern matches alphanumeric, dash, and underscore characters only
var validProfilePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidProfile checks if a profile name is safe to pass to the CLI
func isValidProfile(profile string) bool {
	if profile == "" {
		return true
	}
	return validProfilePattern.MatchString(profile)
}

// runFunc executes name with args and returns stdout, stderr and the exit error
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Provider fetches orders through the scraper CLI
type Provider struct {
	logger   *slog.Logger
	command  string
	profile  string // Optional profile name for multi-account support
	headless bool   // Run browser in headless mode
	run      runFunc
	lookPath func(string) (string, error)
}

// Compile-time check that Provider implements OrderProvider
var _ providers.OrderProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the Amazon provider
type ProviderConfig struct {
	Command  string // Scraper binary; default amazon-scraper
	Profile  string // Profile name for multi-account support
	Headless bool   // Run in headless mode (for automated/cron runs)
}

// NewProvider creates a new Amazon provider
func NewProvider(logger *slog.Logger, cfg *ProviderConfig) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		logger:   logger.With(slog.String("provider", "amazon")),
		command:  DefaultCommand,
		run:      runCommand,
		lookPath: exec.LookPath,
	}

	if cfg != nil {
		if cfg.Command != "" {
			p.command = cfg.Command
		}
		// Validate profile name to prevent command injection
		if cfg.Profile != "" {
			if isValidProfile(cfg.Profile) {
				p.profile = cfg.Profile
			} else {
				logger.Warn("invalid profile name ignored (must be alphanumeric, dash, or underscore)",
					slog.String("profile", cfg.Profile))
			}
		}
		p.headless = cfg.Headless
	}

	return p
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "amazon"
}

// FetchOrders fetches orders dated within opts' range.
// Orders that fail to parse are logged and skipped.
func (p *Provider) FetchOrders(ctx context.Context, opts providers.FetchOptions) ([]*providers.Order, error) {
	p.logger.Info("fetching orders",
		slog.Time("start_date", opts.StartDate),
		slog.Time("end_date", opts.EndDate),
	)

	output, err := p.execute(ctx, p.buildArgs(opts))
	if err != nil {
		return nil, err
	}

	parsed, err := ParseOutputBytes(output)
	if err != nil {
		return nil, err
	}

	orders := make([]*providers.Order, 0, len(parsed.Orders))
	skipped := 0
	for _, raw := range parsed.Orders {
		order, err := ConvertOrder(raw)
		if err != nil {
			skipped++
			p.logger.Warn("failed to parse order, skipping",
				slog.String("order_id", raw.OrderID),
				slog.String("error", err.Error()),
			)
			continue
		}

		// The scraper works in whole pages; trim to the requested window
		if !opts.StartDate.IsZero() && order.Date.Before(truncateDay(opts.StartDate)) {
			continue
		}
		if !opts.EndDate.IsZero() && order.Date.After(truncateDay(opts.EndDate)) {
			continue
		}

		orders = append(orders, order)
	}

	if opts.MaxOrders > 0 && len(orders) > opts.MaxOrders {
		orders = orders[:opts.MaxOrders]
	}

	p.logger.Info("fetched orders", slog.Int("count", len(orders)), slog.Int("skipped", skipped))
	return orders, nil
}

// buildArgs builds the command line arguments for the scraper
func (p *Provider) buildArgs(opts providers.FetchOptions) []string {
	var args []string

	if !opts.StartDate.IsZero() {
		args = append(args, "--since", opts.StartDate.Format("2006-01-02"))
	}
	if !opts.EndDate.IsZero() {
		args = append(args, "--until", opts.EndDate.Format("2006-01-02"))
	}

	// Default to last 14 days if nothing specified
	if opts.StartDate.IsZero() && opts.EndDate.IsZero() {
		args = append(args, "--days", "14")
	}

	if p.profile != "" {
		args = append(args, "--profile", p.profile)
	}
	if p.headless {
		args = append(args, "--headless")
	}

	// Always output to stdout for parsing
	return append(args, "--stdout")
}

// execute runs the scraper and maps its exit codes to errors
func (p *Provider) execute(ctx context.Context, args []string) ([]byte, error) {
	name, args := p.resolve(args)
	p.logger.Debug("executing scraper", slog.String("command", name), slog.String("args", strings.Join(args, " ")))

	stdout, stderr, err := p.run(ctx, name, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case 2:
				return nil, ErrLoginRequired
			default:
				return nil, fmt.Errorf("scraper failed (exit %d): %s", exitErr.ExitCode(), strings.TrimSpace(string(stderr)))
			}
		}
		return nil, fmt.Errorf("failed to execute scraper: %w", err)
	}

	return stdout, nil
}

// resolve picks the installed binary, falling back to npx
func (p *Provider) resolve(args []string) (string, []string) {
	if path, err := p.lookPath(p.command); err == nil {
		return path, args
	}
	return "npx", append([]string{npmPackage}, args...)
}

// HealthCheck verifies the scraper can be started
func (p *Provider) HealthCheck(ctx context.Context) error {
	name, args := p.resolve([]string{"--help"})
	if _, _, err := p.run(ctx, name, args...); err != nil {
		return fmt.Errorf("amazon-order-scraper CLI not available: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
