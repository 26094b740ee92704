package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func validate(c *Config, keys keySet) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	// Risk limits are policy constants compiled into the binary. A config
	// file that tries to set them is treated as an operator mistake.
	if key := keys.anyWithPrefix("risk."); key != "" {
		return fmt.Errorf("config key %q is not allowed: risk limits are fixed and cannot be configured", key)
	}
	if _, ok := validLogLevels[strings.ToLower(c.App.LogLevel)]; !ok {
		return fmt.Errorf("app.log_level %q is invalid (debug|info|warn|error)", c.App.LogLevel)
	}
	if c.Broker.TimeoutSeconds <= 0 {
		return fmt.Errorf("broker.timeout_seconds must be positive, got %d", c.Broker.TimeoutSeconds)
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be positive, got %d", c.Monitor.IntervalSeconds)
	}
	if c.Condor.Quantity <= 0 {
		return fmt.Errorf("condor.quantity must be positive, got %d", c.Condor.Quantity)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	return nil
}
