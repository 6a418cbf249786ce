package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/ynab-reconcile/internal/infrastructure/logging"
)

func TestNewClients(t *testing.T) {
	t.Setenv("YNAB_TOKEN", "")
	t.Setenv("YNAB_API_KEY", "")

	t.Run("missing token", func(t *testing.T) {
		cfg := config.LoadFromEnv()

		c := NewClients(cfg, logging.NewNopLogger())

		assert.Nil(t, c.YNAB)
		assert.NotNil(t, c.Amazon)
	})

	t.Run("token from config", func(t *testing.T) {
		cfg := config.LoadFromEnv()
		cfg.YNAB.Token = "secret"
		cfg.YNAB.BudgetID = "budget-1"

		c := NewClients(cfg, logging.NewNopLogger())

		require.NotNil(t, c.YNAB)
		assert.Equal(t, "budget-1", c.YNAB.BudgetID())
		assert.Equal(t, "amazon", c.Amazon.Name())
	})

	t.Run("token from alternate env var", func(t *testing.T) {
		t.Setenv("YNAB_API_KEY", "from-env")
		cfg := config.LoadFromEnv()

		c := NewClients(cfg, nil)

		assert.NotNil(t, c.YNAB)
	})
}
