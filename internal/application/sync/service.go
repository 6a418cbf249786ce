// Package sync moves data between YNAB, Amazon and the local store, and runs
// the order matcher over what the store holds.
//
// Git-style nomenclature:
//   - pull: download from YNAB and Amazon into SQLite
//   - push: upload local category edits to YNAB
//
// Edits are local-first: Categorize and Undo only touch the store, and
// nothing reaches YNAB until Push is called.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
	"github.com/eshaffer321/ynab-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/storage"
)

// BudgetClient is the part of the YNAB API the service uses
type BudgetClient interface {
	GetTransactions(ctx context.Context, since time.Time) ([]ynab.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, transactionID, categoryID string, approve bool) (*ynab.Transaction, error)
}

// Settings holds the service's tunables
type Settings struct {
	Matcher             matcher.Config
	OverlapDays         int    // Incremental pulls re-fetch this many days before the last sync
	EarliestHistoryDays int    // How far back a full Amazon pull goes
	PayeeFilter         string // Payee substring that marks a transaction as an Amazon charge
}

// DefaultSettings returns the defaults used when config leaves values unset
func DefaultSettings() Settings {
	return Settings{
		Matcher:             matcher.DefaultConfig(),
		OverlapDays:         7,
		EarliestHistoryDays: 365,
		PayeeFilter:         "amazon",
	}
}

// Service runs pulls, matches and pushes
type Service struct {
	repo     storage.Repository
	budget   BudgetClient
	orders   providers.OrderProvider // nil when Amazon is not configured
	matcher  *matcher.Matcher
	settings Settings
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new sync service. orders may be nil; m may be nil
// when nothing scrapes metrics.
func NewService(
	repo storage.Repository,
	budget BudgetClient,
	orders providers.OrderProvider,
	settings Settings,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:     repo,
		budget:   budget,
		orders:   orders,
		matcher:  matcher.NewMatcher(settings.Matcher),
		settings: settings,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Settings returns the service's settings
func (s *Service) Settings() Settings {
	return s.settings
}
