// Package ynab is a small client for the parts of the YNAB v1 API the
// reconciler needs: listing transactions and updating a category.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/resilience"
)

const (
	// DefaultBaseURL is the public YNAB API
	DefaultBaseURL = "https://api.ynab.com/v1"

	// DefaultBudgetID makes YNAB pick the most recently used budget
	DefaultBudgetID = "last-used"

	dateLayout = "2006-01-02"
)

var (
	// ErrUnauthorized is returned when YNAB rejects the access token
	ErrUnauthorized = errors.New("ynab: unauthorized (check the access token)")

	// ErrNotFound is returned for unknown budgets or transactions
	ErrNotFound = errors.New("ynab: not found")

	// ErrRateLimited is returned when YNAB answers 429; the retry loop backs off on it
	ErrRateLimited = errors.New("ynab: rate limited")
)

// Client talks to the YNAB API with retries behind a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	budgetID   string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another server (tests, proxies)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithBudgetID selects the budget; default "last-used"
func WithBudgetID(budgetID string) Option {
	return func(c *Client) {
		if budgetID != "" {
			c.budgetID = budgetID
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the retry policy
func WithRetry(cfg resilience.Config) Option {
	return func(c *Client) { c.cfg = cfg }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a YNAB client authenticated with a personal access token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
		budgetID:   DefaultBudgetID,
		cb:         resilience.NewCircuitBreaker("ynab"),
		cfg:        resilience.DefaultConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BudgetID returns the budget the client operates on
func (c *Client) BudgetID() string {
	return c.budgetID
}

// GetTransactions returns non-deleted transactions dated on or after since.
// A zero since fetches the whole budget history.
func (c *Client) GetTransactions(ctx context.Context, since time.Time) ([]Transaction, error) {
	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(c.budgetID))
	if !since.IsZero() {
		path += "?since_date=" + since.Format(dateLayout)
	}

	var resp transactionsResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	txns := make([]Transaction, 0, len(resp.Data.Transactions))
	for _, raw := range resp.Data.Transactions {
		if raw.Deleted {
			continue
		}
		txn, err := raw.toTransaction()
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	c.logger.Debug("fetched ynab transactions",
		"count", len(txns),
		"since", since.Format(dateLayout),
		"server_knowledge", resp.Data.ServerKnowledge)

	return txns, nil
}

// UpdateTransactionCategory sets a transaction's category and approval and
// returns the transaction as YNAB stored it.
func (c *Client) UpdateTransactionCategory(ctx context.Context, transactionID, categoryID string, approve bool) (*Transaction, error) {
	body := updateTransactionRequest{
		Transaction: updateTransaction{CategoryID: categoryID, Approved: approve},
	}
	path := fmt.Sprintf("/budgets/%s/transactions/%s", url.PathEscape(c.budgetID), url.PathEscape(transactionID))

	var resp transactionResponse
	if err := c.call(ctx, http.MethodPut, path, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}

	txn, err := resp.Data.Transaction.toTransaction()
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// call runs one API request through the breaker and retry loop and decodes the JSON reply into out
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.doRequest(ctx, method, path, payload, out)
		})
	})
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ynab: request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resilience.Permanent(ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return resilience.Permanent(fmt.Errorf("%w: %s", ErrNotFound, path))
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("ynab returned status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resilience.Permanent(apiError(resp.StatusCode, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resilience.Permanent(fmt.Errorf("failed to decode ynab response: %w", err))
	}
	return nil
}

// apiError builds an error from YNAB's {"error": {...}} envelope
func apiError(status int, data []byte) error {
	var env errorResponse
	if err := json.Unmarshal(data, &env); err == nil && env.Error.Detail != "" {
		return fmt.Errorf("ynab returned status %d (%s): %s", status, env.Error.Name, env.Error.Detail)
	}
	return fmt.Errorf("ynab returned status %d: %s", status, string(data))
}
