package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "toolforge", cfg.Name)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, BackendDir, cfg.Store.Backend)
	assert.Equal(t, ".toolforge/units", cfg.Store.Dir)
	assert.False(t, cfg.Dispatch.ValidateInput, "schema validation is opt-in")
	assert.True(t, cfg.Execution.Restricted)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolforge.yaml")
	yaml := `
server:
  addr: "127.0.0.1:9000"
store:
  dir: /srv/units
loader:
  concurrency: 8
  blocked_imports: [os/exec, syscall]
dispatch:
  validate_input: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "/srv/units", cfg.Store.Dir)
	assert.Equal(t, BackendDir, cfg.Store.Backend, "unset keys keep defaults")
	assert.Equal(t, 8, cfg.Loader.Concurrency)
	assert.Equal(t, []string{"os/exec", "syscall"}, cfg.Loader.BlockedImports)
	assert.True(t, cfg.Dispatch.ValidateInput)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "toolforge.yaml")
	cfg := DefaultConfig()
	cfg.Store.Backend = BackendSQLite
	cfg.Loader.BlockedImports = []string{"unsafe"}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, loaded.Store.Backend)
	assert.Equal(t, []string{"unsafe"}, loaded.Loader.BlockedImports)
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 300*time.Millisecond, cfg.GetWatchDebounce())
	assert.Equal(t, 30*time.Second, cfg.GetProcessTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())

	cfg.Store.Debounce = "garbage"
	cfg.Execution.ProcessTimeout = "-5s"
	assert.Equal(t, 300*time.Millisecond, cfg.GetWatchDebounce())
	assert.Equal(t, 30*time.Second, cfg.GetProcessTimeout())

	cfg.Integrations.Gemini.Timeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.GetGeminiTimeout())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "invalid store backend"},
		{"dir backend without dir", func(c *Config) { c.Store.Dir = "" }, "store.dir"},
		{"sqlite without path", func(c *Config) {
			c.Store.Backend = BackendSQLite
			c.Store.DatabasePath = ""
		}, "store.database_path"},
		{"negative concurrency", func(c *Config) { c.Loader.Concurrency = -1 }, "loader.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestIsGeminiEnabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsGeminiEnabled(), "no key")

	cfg.Integrations.Gemini.APIKey = "k"
	assert.True(t, cfg.IsGeminiEnabled())

	cfg.Integrations.Gemini.Enabled = false
	assert.False(t, cfg.IsGeminiEnabled())
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{DebugMode: true, Format: "json", Level: "debug", Categories: map[string]bool{"loader": false}}

	assert.False(t, lc.IsCategoryEnabled("loader"))
	assert.True(t, lc.IsCategoryEnabled("dispatch"))

	opts := lc.ToLoggingOptions()
	assert.True(t, opts.JSONFormat)
	assert.Equal(t, "debug", opts.Level)
	assert.True(t, opts.DebugMode)

	lc.DebugMode = false
	assert.False(t, lc.IsCategoryEnabled("dispatch"))
}
