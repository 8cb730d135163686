package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous values that would break sampling or termination waits are clamped
// to safe ranges. Other validation errors are logged as warnings but do not
// prevent startup.
func (c *Config) Validate() []error {
	var errs []error

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.LogMaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("log_max_size_mb %d is negative, clamping to 0", c.LogMaxSizeMB))
		c.LogMaxSizeMB = 0
	}
	if c.LogMaxBackups < 0 {
		errs = append(errs, fmt.Errorf("log_max_backups %d is negative, clamping to 0", c.LogMaxBackups))
		c.LogMaxBackups = 0
	}

	// Clamp the CPU sample window. Too short measures noise, too long
	// stalls every listing request.
	if c.CPUSampleMs < 50 {
		errs = append(errs, fmt.Errorf("cpu_sample_ms %d is below minimum 50, clamping", c.CPUSampleMs))
		c.CPUSampleMs = 50
	} else if c.CPUSampleMs > 2000 {
		errs = append(errs, fmt.Errorf("cpu_sample_ms %d exceeds maximum 2000, clamping", c.CPUSampleMs))
		c.CPUSampleMs = 2000
	}

	if c.KillWaitMs < 100 {
		errs = append(errs, fmt.Errorf("kill_wait_ms %d is below minimum 100, clamping", c.KillWaitMs))
		c.KillWaitMs = 100
	} else if c.KillWaitMs > 10000 {
		errs = append(errs, fmt.Errorf("kill_wait_ms %d exceeds maximum 10000, clamping", c.KillWaitMs))
		c.KillWaitMs = 10000
	}

	if c.MaxLimit < 1 {
		errs = append(errs, fmt.Errorf("max_limit %d is below minimum 1, clamping", c.MaxLimit))
		c.MaxLimit = 1
	}
	if c.DefaultLimit < 1 {
		errs = append(errs, fmt.Errorf("default_limit %d is below minimum 1, clamping", c.DefaultLimit))
		c.DefaultLimit = 1
	} else if c.DefaultLimit > c.MaxLimit {
		errs = append(errs, fmt.Errorf("default_limit %d exceeds max_limit %d, clamping", c.DefaultLimit, c.MaxLimit))
		c.DefaultLimit = c.MaxLimit
	}

	// Clamp worker count to prevent unbounded goroutine fan-out.
	if c.CollectWorkers < 1 {
		errs = append(errs, fmt.Errorf("collect_workers %d is below minimum 1, clamping", c.CollectWorkers))
		c.CollectWorkers = 1
	} else if c.CollectWorkers > 64 {
		errs = append(errs, fmt.Errorf("collect_workers %d exceeds maximum 64, clamping", c.CollectWorkers))
		c.CollectWorkers = 64
	}

	if c.AuditMaxSizeMB < 1 {
		errs = append(errs, fmt.Errorf("audit_max_size_mb %d is below minimum 1, clamping", c.AuditMaxSizeMB))
		c.AuditMaxSizeMB = 1
	}
	if c.AuditMaxBackups < 0 {
		errs = append(errs, fmt.Errorf("audit_max_backups %d is negative, clamping to 0", c.AuditMaxBackups))
		c.AuditMaxBackups = 0
	}

	// Log validation errors as warnings
	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
