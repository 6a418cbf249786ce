package amazon

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/adapters/providers"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
)

// fakeRunner records the invocation and replays canned output
type fakeRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func newTestProvider(cfg *ProviderConfig, runner *fakeRunner, installed bool) *Provider {
	p := NewProvider(logging.NewNopLogger(), cfg)
	p.run = runner.run
	p.lookPath = func(name string) (string, error) {
		if installed {
			return "/usr/local/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	return p
}

// exitError produces a real *exec.ExitError with the given code
func exitError(t *testing.T, code string) error {
	t.Helper()
	err := exec.Command("sh", "-c", "exit "+code).Run()
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	return err
}

func TestProvider_Name(t *testing.T) {
	provider := NewProvider(nil, nil)
	assert.Equal(t, "amazon", provider.Name())
}

func TestProvider_WithConfig(t *testing.T) {
	cfg := &ProviderConfig{
		Command:  "my-scraper",
		Profile:  "household",
		Headless: true,
	}

	provider := NewProvider(nil, cfg)
	assert.Equal(t, "my-scraper", provider.command)
	assert.Equal(t, "household", provider.profile)
	assert.True(t, provider.headless)
}

func TestProvider_InvalidProfileIgnored(t *testing.T) {
	provider := NewProvider(logging.NewNopLogger(), &ProviderConfig{Profile: "me; rm -rf /"})
	assert.Empty(t, provider.profile)
}

func TestProvider_BuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		provider *Provider
		opts     providers.FetchOptions
		expected []string
	}{
		{
			name:     "default - no dates",
			provider: NewProvider(nil, nil),
			opts:     providers.FetchOptions{},
			expected: []string{"--days", "14", "--stdout"},
		},
		{
			name:     "with date range",
			provider: NewProvider(nil, nil),
			opts: providers.FetchOptions{
				StartDate: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			},
			expected: []string{"--since", "2024-11-01", "--until", "2024-11-30", "--stdout"},
		},
		{
			name:     "profile and headless",
			provider: NewProvider(nil, &ProviderConfig{Profile: "work", Headless: true}),
			opts:     providers.FetchOptions{StartDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			expected: []string{"--since", "2024-01-02", "--profile", "work", "--headless", "--stdout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.buildArgs(tt.opts))
		})
	}
}

func TestProvider_FetchOrders(t *testing.T) {
	runner := &fakeRunner{stdout: sampleOutput}
	provider := newTestProvider(nil, runner, true)

	orders, err := provider.FetchOrders(context.Background(), providers.FetchOptions{
		StartDate: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/amazon-scraper", runner.name)
	require.Len(t, orders, 1, "the December 1 order is outside the window")
	assert.Equal(t, "113-1234567-8901234", orders[0].ID)
}

func TestProvider_FetchOrders_SkipsBadOrdersAndLimits(t *testing.T) {
	runner := &fakeRunner{stdout: `{"orders":[
		{"orderId":"A","orderDate":"2025-01-01","total":"$1.00"},
		{"orderId":"B","orderDate":"bad","total":"$2.00"},
		{"orderId":"C","orderDate":"2025-01-03","total":"$3.00"},
		{"orderId":"D","orderDate":"2025-01-04","total":"$4.00"}
	]}`}
	provider := newTestProvider(nil, runner, true)

	orders, err := provider.FetchOrders(context.Background(), providers.FetchOptions{MaxOrders: 2})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "A", orders[0].ID)
	assert.Equal(t, "C", orders[1].ID)
}

func TestProvider_FetchOrders_FallsBackToNpx(t *testing.T) {
	runner := &fakeRunner{stdout: `{"orders":[]}`}
	provider := newTestProvider(nil, runner, false)

	_, err := provider.FetchOrders(context.Background(), providers.FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "npx", runner.name)
	assert.Equal(t, []string{"amazon-order-scraper", "--days", "14", "--stdout"}, runner.args)
}

func TestProvider_FetchOrders_LoginRequired(t *testing.T) {
	runner := &fakeRunner{err: exitError(t, "2")}
	provider := newTestProvider(nil, runner, true)

	_, err := provider.FetchOrders(context.Background(), providers.FetchOptions{})
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProvider_FetchOrders_OtherExitCode(t *testing.T) {
	runner := &fakeRunner{err: exitError(t, "1"), stderr: "browser crashed\n"}
	provider := newTestProvider(nil, runner, true)

	_, err := provider.FetchOrders(context.Background(), providers.FetchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit 1")
	assert.Contains(t, err.Error(), "browser crashed")
}

func TestProvider_FetchOrders_InvalidJSON(t *testing.T) {
	runner := &fakeRunner{stdout: "Logging in..."}
	provider := newTestProvider(nil, runner, true)

	_, err := provider.FetchOrders(context.Background(), providers.FetchOptions{})
	assert.Error(t, err)
}

func TestProvider_HealthCheck(t *testing.T) {
	runner := &fakeRunner{}
	provider := newTestProvider(nil, runner, true)
	require.NoError(t, provider.HealthCheck(context.Background()))
	assert.Equal(t, []string{"--help"}, runner.args)

	runner.err = errors.New("not installed")
	assert.Error(t, provider.HealthCheck(context.Background()))
}

func TestIsValidProfile(t *testing.T) {
	assert.True(t, isValidProfile(""))
	assert.True(t, isValidProfile("household_2"))
	assert.False(t, isValidProfile("../etc"))
	assert.False(t, isValidProfile("a b"))
}
