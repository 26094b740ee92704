package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9980"
	defaultAppLogPath      = "data/logs/condor.log"
	defaultBrokerBaseURL   = "http://localhost:8866"
	defaultBrokerTimeout   = 10
	defaultStorePath       = "data/db/positions.db"
	defaultMonitorInterval = 60
	defaultCondorSymbol    = "SPY"
	defaultCondorQuantity  = 1
)

var (
	defaultMomentumSymbols = []string{"SPY", "QQQ"}
	defaultBreakoutSymbols = []string{"SPY", "QQQ", "IWM"}
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Broker.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Monitor.applyDefaults(keys)
	c.Condor.applyDefaults(keys)
	c.Scan.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (b *BrokerConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("broker.base_url", &b.BaseURL, defaultBrokerBaseURL),
		fieldDefault{
			key:   "broker.timeout_seconds",
			need:  func() bool { return b.TimeoutSeconds <= 0 },
			apply: func() { b.TimeoutSeconds = defaultBrokerTimeout },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func (m *MonitorConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "monitor.interval_seconds",
			need:  func() bool { return m.IntervalSeconds <= 0 },
			apply: func() { m.IntervalSeconds = defaultMonitorInterval },
		},
	)
}

func (c *CondorConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("condor.underlying", &c.Underlying, defaultCondorSymbol),
		fieldDefault{
			key:   "condor.quantity",
			need:  func() bool { return c.Quantity <= 0 },
			apply: func() { c.Quantity = defaultCondorQuantity },
		},
	)
}

func (s *ScanConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "scan.momentum_symbols",
			need:  func() bool { return len(s.MomentumSymbols) == 0 },
			apply: func() { s.MomentumSymbols = defaultMomentumSymbols },
		},
		fieldDefault{
			key:   "scan.breakout_symbols",
			need:  func() bool { return len(s.BreakoutSymbols) == 0 },
			apply: func() { s.BreakoutSymbols = defaultBreakoutSymbols },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
