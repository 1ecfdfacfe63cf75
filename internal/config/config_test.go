package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, time.Second, cfg.Scraper.DelayMin)
	assert.Equal(t, 3*time.Second, cfg.Scraper.DelayMax)
	assert.GreaterOrEqual(t, len(cfg.Scraper.UserAgents), 4)
	assert.Equal(t, "Items", cfg.Airtable.Table)
	assert.Equal(t, "Auctions", cfg.Airtable.AuctionTable)
	assert.Equal(t, "Item Photos", cfg.Intake.PhotosField)
	assert.Equal(t, "Inspection Photos", cfg.Intake.InspectionPhotosField)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCRAPER_TIMEOUT", "30s")
	t.Setenv("AIRTABLE_TABLE_NAME", "Inventory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, "Inventory", cfg.Airtable.Table)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("defaults pass", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("too few user agents", func(t *testing.T) {
		cfg := base()
		cfg.Scraper.UserAgents = []string{"only-one"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted delay range", func(t *testing.T) {
		cfg := base()
		cfg.Scraper.DelayMin = 5 * time.Second
		cfg.Scraper.DelayMax = time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := base()
		cfg.Scraper.Timeout = 0
		assert.Error(t, cfg.Validate())
	})
}
