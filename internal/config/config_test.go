package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "condor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
broker:
  base_url: http://broker:8866
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, "http://broker:8866", cfg.Broker.BaseURL)
	assert.Equal(t, 10, cfg.Broker.TimeoutSeconds)
	assert.Equal(t, 60, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, "SPY", cfg.Condor.Underlying)
	assert.Equal(t, 1, cfg.Condor.Quantity)
	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Scan.MomentumSymbols)
	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Scan.BreakoutSymbols)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
  http_addr: ":9000"
monitor:
  interval_seconds: 30
condor:
  underlying: QQQ
  quantity: 2
scan:
  momentum_symbols: [IWM]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
	assert.Equal(t, 30, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, "QQQ", cfg.Condor.Underlying)
	assert.Equal(t, 2, cfg.Condor.Quantity)
	assert.Equal(t, []string{"IWM"}, cfg.Scan.MomentumSymbols)
}

func TestLoadRejectsRiskOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
risk:
  max_portfolio_risk: 0.10
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk limits are fixed")
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: verbose
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")

	path = writeConfig(t, `
monitor:
  interval_seconds: -5
`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval_seconds")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load("  ")
	require.Error(t, err)
}
