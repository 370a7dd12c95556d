package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATA_DIR", "/data")
	t.Setenv("PORT", "8080")
	t.Setenv("OPTIMIZER_MAX_ITERATIONS", "250")
	t.Setenv("OPTIMIZER_TIME_BUDGET", "30s")
	t.Setenv("OPTIMIZER_SEEDS", "1, 2,3")
	t.Setenv("ORDERS_FROM", "2025-01-02")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.Data.Dir)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 250, cfg.Optimizer.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Optimizer.TimeBudget)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Seeds)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), cfg.Data.WindowFrom)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATA_DIR=/from-dotenv\n"), 0o644))
	t.Setenv("DATA_DIR", "")
	os.Unsetenv("DATA_DIR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/from-dotenv", cfg.Data.Dir)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no data source", env: map[string]string{}},
		{name: "webhook without secret", env: map[string]string{"DATA_DIR": "/d", "REPORT_WEBHOOK_URL": "http://x"}},
		{name: "bad window", env: map[string]string{"DATA_DIR": "/d", "ORDERS_FROM": "2025-01-03", "ORDERS_TO": "2025-01-02"}},
		{name: "bad log level", env: map[string]string{"DATA_DIR": "/d", "LOG_LEVEL": "loud"}},
		{name: "bad duration", env: map[string]string{"DATA_DIR": "/d", "OPTIMIZER_TIME_BUDGET": "soon"}},
		{name: "bad seeds", env: map[string]string{"DATA_DIR": "/d", "OPTIMIZER_SEEDS": "1,x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for _, k := range []string{"DATA_DIR", "DATABASE_URL", "REPORT_WEBHOOK_URL", "ORDERS_FROM", "ORDERS_TO", "LOG_LEVEL", "OPTIMIZER_TIME_BUDGET", "OPTIMIZER_SEEDS", "OPTIMIZER_CONFIG"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadOptimizerYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "optimizer.yaml")
	body := `
maxIterations: 500
regretK: 4
headquarters: [SPIM]
weights:
  order: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadOptimizer(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxIterations)
	assert.Equal(t, 4, cfg.RegretK)
	assert.Equal(t, []string{"SPIM"}, cfg.HeadquartersIATA)
	assert.Equal(t, 2000.0, cfg.Weights.Order)
	assert.Equal(t, 10.0, cfg.Weights.Unit, "unset keys keep defaults")
	assert.Equal(t, 60, cfg.MinLayoverMinutes)

	_, err = LoadOptimizer(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
