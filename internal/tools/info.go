package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/proctable"
)

// InfoInput is the process_info argument object.
type InfoInput struct {
	PID int32 `json:"pid" jsonschema:"Process id to inspect"`
}

// InfoOutput carries one detailed record, or an error.
type InfoOutput struct {
	Process *proctable.Record `json:"process,omitempty"`
	Error   *ErrorInfo        `json:"error,omitempty"`
}

// InfoTool returns the detailed view of a single process: command line,
// executable path, parent pid, thread count, start time and the full set
// of memory readings.
type InfoTool struct {
	deps Deps
}

func NewInfoTool(deps Deps) *InfoTool {
	return &InfoTool{deps: deps}
}

func (t *InfoTool) Register(server *mcp.Server) {
	tool := &mcp.Tool{
		Name: "process_info",
		Description: "Get detailed information about a single process by pid: command line, " +
			"executable, parent pid, threads, start time, sampled CPU and all memory metrics.",
	}
	mcp.AddTool(server, tool, t.Handler)
}

func (t *InfoTool) Handler(ctx context.Context, _ *mcp.CallToolRequest, input InfoInput) (*mcp.CallToolResult, InfoOutput, error) {
	requestID := uuid.NewString()
	rlog := logging.WithRequest(log, "process_info", requestID)
	start := time.Now()

	if input.PID <= 0 {
		err := procerr.New(procerr.KindInvalidArg, "pid must be a positive integer")
		rlog.Warn("rejected process info arguments", logging.KeyError, err)
		return &mcp.CallToolResult{}, InfoOutput{Error: errorInfo(err)}, nil
	}

	record, err := t.deps.Table.Inspect(ctx, input.PID)
	if err != nil {
		rlog.Warn("process inspection failed", logging.KeyPID, input.PID, logging.KeyError, err)
		return &mcp.CallToolResult{}, InfoOutput{Error: errorInfo(err)}, nil
	}

	rlog.Info("process info served",
		logging.KeyPID, record.PID,
		"name", record.Name,
		logging.KeyDurationMs, time.Since(start).Milliseconds())

	return &mcp.CallToolResult{}, InfoOutput{Process: &record}, nil
}
