package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/breeze-rmm/procmcp/internal/health"
	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/query"
)

// ListInput is the process_list argument object. Every field is optional;
// the zero configuration lists the top user processes by CPU.
type ListInput struct {
	NameContains  *string  `json:"name_contains,omitempty" jsonschema:"Case-insensitive substring matched against process name or command line"`
	User          *string  `json:"user,omitempty" jsonschema:"Case-insensitive substring matched against the owning username"`
	Status        *string  `json:"status,omitempty" jsonschema:"Exact process state: running, sleeping, stopped, zombie, idle, waiting or locked"`
	MinCPUPercent *float64 `json:"min_cpu_percent,omitempty" jsonschema:"Inclusive lower bound on sampled CPU percent"`
	MinMemoryMB   *float64 `json:"min_memory_mb,omitempty" jsonschema:"Inclusive lower bound on resolved memory in MB"`
	IncludeSystem *bool    `json:"include_system,omitempty" jsonschema:"Include processes owned by system accounts (default false)"`
	SortBy        *string  `json:"sort_by,omitempty" jsonschema:"Sort metric: cpu (default) or memory"`
	SortOrder     *string  `json:"sort_order,omitempty" jsonschema:"Sort direction: desc (default) or asc"`
	Limit         *int     `json:"limit,omitempty" jsonschema:"Maximum number of processes to return (default 10, max 500)"`
}

// Summary is the per-process row in process_list output. The detail
// fields live on process_info.
type Summary struct {
	PID        int32            `json:"pid"`
	Name       string           `json:"name"`
	User       string           `json:"user"`
	Status     proctable.Status `json:"status"`
	CPUPercent float64          `json:"cpu_percent"`
	MemoryMB   float64          `json:"memory_mb"`
	IsSystem   bool             `json:"is_system"`
}

// ListOutput is the process_list result object.
type ListOutput struct {
	Processes     []Summary  `json:"processes"`
	TotalMatched  int        `json:"total_matched"`
	TotalReturned int        `json:"total_returned"`
	Error         *ErrorInfo `json:"error,omitempty"`
}

// ListTool lists running processes with filtering, sorting and limiting.
type ListTool struct {
	deps Deps
}

func NewListTool(deps Deps) *ListTool {
	return &ListTool{deps: deps}
}

func (t *ListTool) Register(server *mcp.Server) {
	tool := &mcp.Tool{
		Name: "process_list",
		Description: "List running processes sorted by CPU or memory usage, with optional name, " +
			"user, status and threshold filters. System processes are hidden unless " +
			"include_system is set. For full details on one process, use process_info.",
	}
	mcp.AddTool(server, tool, t.Handler)
}

func (t *ListTool) Handler(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	requestID := uuid.NewString()
	rlog := logging.WithRequest(log, "process_list", requestID)
	start := time.Now()

	filter, sortBy, order, limit, err := t.resolve(input)
	if err != nil {
		rlog.Warn("rejected process list arguments", logging.KeyError, err)
		return &mcp.CallToolResult{}, ListOutput{Processes: []Summary{}, Error: errorInfo(err)}, nil
	}

	records, err := t.deps.Table.Snapshot(ctx)
	if err != nil {
		rlog.Error("process snapshot failed", logging.KeyError, err)
		t.deps.updateHealth("collector", health.Unhealthy, err.Error())
		return &mcp.CallToolResult{}, ListOutput{Processes: []Summary{}, Error: errorInfo(err)}, nil
	}
	t.deps.updateHealth("collector", health.Healthy, "")

	matched := query.Match(records, filter)
	final := query.SortAndLimit(matched, sortBy, order, limit)

	summaries := make([]Summary, 0, len(final))
	for _, r := range final {
		summaries = append(summaries, Summary{
			PID:        r.PID,
			Name:       r.Name,
			User:       r.User,
			Status:     r.Status,
			CPUPercent: r.CPUPercent,
			MemoryMB:   r.MemoryMB,
			IsSystem:   r.IsSystem,
		})
	}

	rlog.Info("process list served",
		"scanned", len(records),
		"matched", len(matched),
		"returned", len(summaries),
		logging.KeyDurationMs, time.Since(start).Milliseconds())

	return &mcp.CallToolResult{}, ListOutput{
		Processes:     summaries,
		TotalMatched:  len(matched),
		TotalReturned: len(summaries),
	}, nil
}

// resolve validates the input and applies defaults. Limit zero or absent
// means the configured default; oversized limits clamp to the maximum
// rather than erroring.
func (t *ListTool) resolve(input ListInput) (query.Filter, string, string, int, error) {
	var filter query.Filter

	if input.NameContains != nil {
		filter.NameContains = *input.NameContains
	}
	if input.User != nil {
		filter.User = *input.User
	}
	if input.Status != nil && *input.Status != "" {
		status, ok := proctable.ParseStatus(*input.Status)
		if !ok {
			return filter, "", "", 0, procerr.New(procerr.KindInvalidArg, "unknown status %q", *input.Status)
		}
		filter.Status = status
	}
	filter.MinCPUPercent = input.MinCPUPercent
	filter.MinMemoryMB = input.MinMemoryMB
	if input.IncludeSystem != nil {
		filter.IncludeSystem = *input.IncludeSystem
	}

	sortBy := query.SortByCPU
	if input.SortBy != nil && *input.SortBy != "" {
		switch *input.SortBy {
		case query.SortByCPU, query.SortByMemory:
			sortBy = *input.SortBy
		default:
			return filter, "", "", 0, procerr.New(procerr.KindInvalidArg, "sort_by must be %q or %q", query.SortByCPU, query.SortByMemory)
		}
	}

	order := query.OrderDesc
	if input.SortOrder != nil && *input.SortOrder != "" {
		switch *input.SortOrder {
		case query.OrderAsc, query.OrderDesc:
			order = *input.SortOrder
		default:
			return filter, "", "", 0, procerr.New(procerr.KindInvalidArg, "sort_order must be %q or %q", query.OrderAsc, query.OrderDesc)
		}
	}

	limit := t.deps.DefaultLimit
	if input.Limit != nil {
		switch {
		case *input.Limit < 0:
			return filter, "", "", 0, procerr.New(procerr.KindInvalidArg, "limit must not be negative")
		case *input.Limit == 0:
			// keep default
		case *input.Limit > t.deps.MaxLimit:
			limit = t.deps.MaxLimit
		default:
			limit = *input.Limit
		}
	}

	return filter, sortBy, order, limit, nil
}
