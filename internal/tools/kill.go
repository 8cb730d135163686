package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/breeze-rmm/procmcp/internal/audit"
	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/termination"
)

// KillInput is the process_kill argument object.
type KillInput struct {
	PID                int32 `json:"pid" jsonschema:"Process id to terminate"`
	Force              *bool `json:"force,omitempty" jsonschema:"Skip graceful termination and kill immediately (default false)"`
	OverrideProtection *bool `json:"override_protection,omitempty" jsonschema:"Allow terminating system-owned or protected processes (default false). Never applies to the server itself"`
}

// KillOutput is the process_kill result object. On failure only success,
// error_kind and message are populated.
type KillOutput struct {
	Success   bool   `json:"success"`
	PID       int32  `json:"pid,omitempty"`
	Name      string `json:"name,omitempty"`
	Forced    bool   `json:"forced,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// KillTool terminates a process by pid through the guarded controller.
type KillTool struct {
	deps Deps
}

func NewKillTool(deps Deps) *KillTool {
	return &KillTool{deps: deps}
}

func (t *KillTool) Register(server *mcp.Server) {
	tool := &mcp.Tool{
		Name: "process_kill",
		Description: "Terminate the process identified by pid. Tries graceful termination first " +
			"and verifies the process actually exited; set force to kill immediately. " +
			"System and protected processes are refused unless override_protection is set.",
	}
	mcp.AddTool(server, tool, t.Handler)
}

func (t *KillTool) Handler(ctx context.Context, _ *mcp.CallToolRequest, input KillInput) (*mcp.CallToolResult, KillOutput, error) {
	requestID := uuid.NewString()
	rlog := logging.WithRequest(log, "process_kill", requestID)
	start := time.Now()

	req := termination.Request{PID: input.PID}
	if input.Force != nil {
		req.Force = *input.Force
	}
	if input.OverrideProtection != nil {
		req.OverrideProtection = *input.OverrideProtection
	}

	t.deps.Audit.Log(audit.EventKillRequested, requestID, map[string]any{
		"pid":                 req.PID,
		"force":               req.Force,
		"override_protection": req.OverrideProtection,
	})

	result, err := t.deps.Killer.Kill(ctx, req)
	if err != nil {
		info := errorInfo(err)
		event := audit.EventKillFailed
		switch procerr.KindOf(err) {
		case procerr.KindSelf, procerr.KindProtected, procerr.KindInvalidArg:
			event = audit.EventKillDenied
		}
		t.deps.Audit.Log(event, requestID, map[string]any{
			"pid":        req.PID,
			"error_kind": info.Kind,
			"message":    info.Message,
		})

		rlog.Warn("process kill refused or failed",
			logging.KeyPID, req.PID,
			"errorKind", info.Kind,
			logging.KeyError, err,
			logging.KeyDurationMs, time.Since(start).Milliseconds())

		return &mcp.CallToolResult{}, KillOutput{
			Success:   false,
			ErrorKind: info.Kind,
			Message:   info.Message,
		}, nil
	}

	t.deps.Audit.Log(audit.EventKillSucceeded, requestID, map[string]any{
		"pid":    result.PID,
		"name":   result.Name,
		"forced": result.Forced,
	})

	rlog.Info("process terminated",
		logging.KeyPID, result.PID,
		"name", result.Name,
		"forced", result.Forced,
		logging.KeyDurationMs, time.Since(start).Milliseconds())

	return &mcp.CallToolResult{}, KillOutput{
		Success: true,
		PID:     result.PID,
		Name:    result.Name,
		Forced:  result.Forced,
	}, nil
}
