// Package cli holds the subcommands of the ynab-reconcile binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients"
	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	appsync "github.com/eshaffer321/ynab-reconcile/internal/application/sync"
	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// App is everything a subcommand needs
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *appsync.Service
	Metrics *metrics.Metrics
	Out     io.Writer

	closer io.Closer
}

// NewApp opens the store and builds the service from cfg.
// A missing YNAB token only fails the commands that call YNAB.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger.With("system", "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := clients.NewClients(cfg, logger)
	var budget appsync.BudgetClient = missingToken{}
	if c.YNAB != nil {
		budget = c.YNAB
	}

	m := metrics.New()
	svc := appsync.NewService(store, budget, c.Amazon, ServiceSettings(cfg), m, logger.With("system", "sync"))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Service: svc,
		Metrics: m,
		Out:     os.Stdout,
		closer:  store,
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// ServiceSettings maps config onto the sync service's tunables
func ServiceSettings(cfg *config.Config) appsync.Settings {
	return appsync.Settings{
		Matcher: matcher.Config{
			Stage1Window:    cfg.Amazon.Stage1WindowDays,
			Stage2Window:    cfg.Amazon.Stage2WindowDays,
			AmountTolerance: cfg.Amazon.AmountTolerance,
		},
		OverlapDays:         cfg.Sync.OverlapDays,
		EarliestHistoryDays: cfg.Amazon.EarliestHistoryDays,
		PayeeFilter:         cfg.Amazon.PayeeFilter,
	}
}

// missingToken stands in for the YNAB client when no token is configured
type missingToken struct{}

func (missingToken) GetTransactions(context.Context, time.Time) ([]ynab.Transaction, error) {
	return nil, clients.ErrMissingToken
}

func (missingToken) UpdateTransactionCategory(context.Context, string, string, bool) (*ynab.Transaction, error) {
	return nil, clients.ErrMissingToken
}
