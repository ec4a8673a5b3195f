package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("TOOLFORGE_ADDR", func(t *testing.T) {
		t.Setenv("TOOLFORGE_ADDR", ":7777")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, ":7777", cfg.Server.Addr)
	})

	t.Run("TOOLFORGE_STORE_DIR", func(t *testing.T) {
		t.Setenv("TOOLFORGE_STORE_DIR", "/tmp/units")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/units", cfg.Store.Dir)
		assert.Equal(t, BackendDir, cfg.Store.Backend)
	})

	t.Run("TOOLFORGE_DB switches to sqlite", func(t *testing.T) {
		t.Setenv("TOOLFORGE_DB", "/tmp/units.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/units.db", cfg.Store.DatabasePath)
		assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	})

	t.Run("GOOGLE_API_KEY", func(t *testing.T) {
		t.Setenv("GOOGLE_API_KEY", "g-key")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "g-key", cfg.Integrations.Gemini.APIKey)
	})

	t.Run("Precedence: GEMINI_API_KEY overrides GOOGLE_API_KEY", func(t *testing.T) {
		t.Setenv("GOOGLE_API_KEY", "g-key")
		t.Setenv("GEMINI_API_KEY", "gem-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gem-key", cfg.Integrations.Gemini.APIKey)
	})

	t.Run("Load applies overrides without a file", func(t *testing.T) {
		t.Setenv("TOOLFORGE_ADDR", ":6000")

		cfg, err := Load(t.TempDir() + "/missing.yaml")
		assert.NoError(t, err)
		assert.Equal(t, ":6000", cfg.Server.Addr)
	})
}
