// Package config loads and validates the engine's YAML configuration.
// Risk policy limits are deliberately absent: they are compile-time
// constants, and any attempt to set them in a config file is an error.
package config

import "strings"

type Config struct {
	App     AppConfig     `toml:"app"`
	Broker  BrokerConfig  `toml:"broker"`
	Store   StoreConfig   `toml:"store"`
	Monitor MonitorConfig `toml:"monitor"`
	Condor  CondorConfig  `toml:"condor"`
	Scan    ScanConfig    `toml:"scan"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

type BrokerConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type MonitorConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

type CondorConfig struct {
	Underlying string `toml:"underlying"`
	Quantity   int    `toml:"quantity"`
}

type ScanConfig struct {
	MomentumSymbols []string `toml:"momentum_symbols"`
	BreakoutSymbols []string `toml:"breakout_symbols"`
}

// keySet tracks which paths were explicitly set in the config file, so
// defaults only fill genuine gaps.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

func (k keySet) anyWithPrefix(prefix string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	for key := range k {
		if strings.HasPrefix(key, prefix) {
			return key
		}
	}
	return ""
}

// fieldDefault is one field's default rule.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
