// Package doctor runs one-shot environment checks: can the process table
// be read, do the metric sources work, can this process signal others,
// is the audit trail writable. Used by the doctor CLI command before
// wiring the server into an MCP client.
package doctor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/health"
	"github.com/breeze-rmm/procmcp/internal/server"
)

// CheckStatus represents the result status of an environment check.
type CheckStatus int

const (
	// StatusOK indicates the check passed.
	StatusOK CheckStatus = iota
	// StatusWarning indicates a non-critical limitation.
	StatusWarning
	// StatusError indicates a problem that will break server operations.
	StatusError
)

// String returns a human-readable status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "Warning"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	FixHint string
	Elapsed time.Duration
}

// Env provides the collaborators checks run against.
type Env struct {
	Cfg    *config.Config
	Engine *server.Engine
}

// Check is a single environment check.
type Check interface {
	Name() string
	Run(ctx context.Context, env *Env) *CheckResult
}

// ReportSummary counts check outcomes.
type ReportSummary struct {
	Total    int
	OK       int
	Warnings int
	Errors   int
}

// Report contains all check results and a summary.
type Report struct {
	Checks  []*CheckResult
	Summary ReportSummary
}

// Add appends a result and updates the summary.
func (r *Report) Add(result *CheckResult) {
	r.Checks = append(r.Checks, result)
	r.Summary.Total++
	switch result.Status {
	case StatusOK:
		r.Summary.OK++
	case StatusWarning:
		r.Summary.Warnings++
	case StatusError:
		r.Summary.Errors++
	}
}

// Overall maps the summary onto a health status.
func (r *Report) Overall() health.Status {
	switch {
	case r.Summary.Total == 0:
		return health.Unknown
	case r.Summary.Errors > 0:
		return health.Unhealthy
	case r.Summary.Warnings > 0:
		return health.Degraded
	default:
		return health.Healthy
	}
}

// Doctor manages and executes environment checks.
type Doctor struct {
	checks    []Check
	healthMon *health.Monitor
}

// NewDoctor creates a Doctor with no registered checks.
func NewDoctor() *Doctor {
	return &Doctor{healthMon: health.NewMonitor()}
}

// Register adds a check.
func (d *Doctor) Register(check Check) {
	d.checks = append(d.checks, check)
}

// RegisterAll adds multiple checks.
func (d *Doctor) RegisterAll(checks ...Check) {
	d.checks = append(d.checks, checks...)
}

// HealthMonitor returns the per-component statuses recorded by the last Run.
func (d *Doctor) HealthMonitor() *health.Monitor {
	return d.healthMon
}

// Run executes all registered checks in order. If w is non-nil, each
// result is printed as a PASS/WARN/FAIL line as it completes.
func (d *Doctor) Run(ctx context.Context, env *Env, w io.Writer) *Report {
	report := &Report{}

	for _, check := range d.checks {
		start := time.Now()
		result := check.Run(ctx, env)
		result.Elapsed = time.Since(start)
		if result.Name == "" {
			result.Name = check.Name()
		}

		d.healthMon.Update(result.Name, checkHealth(result.Status), result.Message)

		if w != nil {
			var prefix string
			switch result.Status {
			case StatusOK:
				prefix = "PASS"
			case StatusWarning:
				prefix = "WARN"
			case StatusError:
				prefix = "FAIL"
			}
			fmt.Fprintf(w, "%s  %s", prefix, result.Name)
			if result.Message != "" {
				fmt.Fprintf(w, "  %s", result.Message)
			}
			fmt.Fprintln(w)
			if result.FixHint != "" {
				fmt.Fprintf(w, "      hint: %s\n", result.FixHint)
			}
		}

		report.Add(result)
	}

	return report
}

func checkHealth(s CheckStatus) health.Status {
	switch s {
	case StatusOK:
		return health.Healthy
	case StatusWarning:
		return health.Degraded
	default:
		return health.Unhealthy
	}
}
