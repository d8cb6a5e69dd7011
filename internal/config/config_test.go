package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "procure.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "documents", cfg.Documents.Dir)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, []string{"anthropic", "perplexity", "simulated"}, cfg.Gateway.Providers)
	assert.Equal(t, 30, cfg.Gateway.CallTimeoutSecs)
	assert.Equal(t, 60, cfg.Gateway.RatePerMinute)
	assert.Equal(t, 3, cfg.Gateway.RetryMaxAttempts)
	assert.Equal(t, 500, cfg.Gateway.RetryBackoffMs)
	assert.Equal(t, 5, cfg.Gateway.BreakerFailureThreshold)
	assert.Equal(t, 60, cfg.Gateway.BreakerResetSecs)
	assert.Equal(t, 10000, cfg.Evaluator.MaxTextChars)
	assert.Equal(t, 5, cfg.Evaluator.MaxConcurrent)
	assert.Equal(t, 2000, cfg.Evaluator.ChunkSize)
	assert.Equal(t, 200, cfg.Evaluator.ChunkOverlap)
	assert.Equal(t, "medium", cfg.Review.DefaultPriority)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/procure
log:
  level: debug
  format: console
evaluator:
  chunk_size: 4000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/procure", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4000, cfg.Evaluator.ChunkSize)
	// Defaults still apply for unset values
	assert.Equal(t, 200, cfg.Evaluator.ChunkOverlap)
	assert.Equal(t, "medium", cfg.Review.DefaultPriority)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PROCURE_STORE_DRIVER", "postgres")
	t.Setenv("PROCURE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PROCURE_EVALUATOR_MAX_CONCURRENT", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Evaluator.MaxConcurrent)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store:     StoreConfig{Driver: "sqlite", DatabaseURL: "procure.db"},
		Gateway:   GatewayConfig{Providers: []string{"simulated"}},
		Evaluator: EvaluatorConfig{MaxConcurrent: 5, ChunkSize: 2000, ChunkOverlap: 200},
	}
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_NoProviders(t *testing.T) {
	cfg := validDefaults()
	cfg.Gateway.Providers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.providers")
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Evaluator.MaxConcurrent = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent must be between 1 and 50")

	cfg.Evaluator.MaxConcurrent = 51
	err = cfg.Validate()
	require.Error(t, err)

	cfg.Evaluator.MaxConcurrent = 50
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ChunkOverlapBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Evaluator.ChunkOverlap = 2000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "store.database_url")
	assert.Contains(t, err.Error(), "gateway.providers")
	assert.Contains(t, err.Error(), "max_concurrent")
}
