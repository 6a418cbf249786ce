// Package clients builds the remote clients the reconciler talks to from config.
package clients

import (
	"errors"
	"log/slog"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/clients/ynab"
	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers/amazon"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/resilience"
)

// ErrMissingToken is returned when no YNAB access token is configured
var ErrMissingToken = errors.New("YNAB token not configured (set ynab.token or YNAB_TOKEN)")

type Clients struct {
	YNAB   *ynab.Client // nil without a token
	Amazon *amazon.Provider
}

func NewClients(cfg *config.Config, logger *slog.Logger) *Clients {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Clients{
		Amazon: amazon.NewProvider(logger.With("system", "amazon"), &amazon.ProviderConfig{
			Command:  cfg.Amazon.ScraperCommand,
			Profile:  cfg.Amazon.Profile,
			Headless: cfg.Amazon.Headless,
		}),
	}

	// Get the token with fallback to alternative env var names
	token := cfg.GetAPIKey(cfg.YNAB.Token, "YNAB_TOKEN", "YNAB_API_KEY")
	if token == "" {
		logger.Debug("YNAB token not configured; pull and push are unavailable")
		return c
	}

	c.YNAB = ynab.NewClient(token,
		ynab.WithBaseURL(cfg.YNAB.BaseURL),
		ynab.WithBudgetID(cfg.YNAB.BudgetID),
		ynab.WithRetry(resilience.DefaultConfig()),
		ynab.WithLogger(logger.With("system", "ynab")),
	)
	return c
}
