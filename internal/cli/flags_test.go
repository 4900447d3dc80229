package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pgtop/internal/config"
	"github.com/rileyhilliard/pgtop/internal/errors"
)

func TestApplyFlags_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyFlags(cfg, TopFlags{
		Host:        "db.internal",
		Port:        5433,
		User:        "admin",
		Database:    "orders",
		Interval:    "5s",
		Output:      "activity.csv",
		FilterDB:    "orders",
		FilterUser:  "app",
		MinDuration: 1.5,
	})

	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "admin", cfg.Connection.User)
	assert.Equal(t, "orders", cfg.Connection.Database)
	assert.Equal(t, 5*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, "activity.csv", cfg.Export.Path)
	assert.Equal(t, "app", cfg.Filters.User)
	assert.Equal(t, 1.5, cfg.Filters.MinDuration)
}

func TestApplyFlags_ZeroValuesKeepConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Connection.Host = "db.internal"
	cfg.Refresh.Interval = 3 * time.Second

	require.NoError(t, applyFlags(cfg, TopFlags{}))

	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 3*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 5432, cfg.Connection.Port)
}

func TestApplyFlags_BadInterval(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyFlags(cfg, TopFlags{Interval: "soon"})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
