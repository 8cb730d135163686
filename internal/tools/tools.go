// Package tools exposes the process engine as MCP tools. Handlers never
// return protocol errors for domain failures: every classified error is
// translated into a structured payload so the model-side caller can read
// the error_kind and react, instead of seeing an opaque transport fault.
package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/breeze-rmm/procmcp/internal/audit"
	"github.com/breeze-rmm/procmcp/internal/health"
	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/procerr"
	"github.com/breeze-rmm/procmcp/internal/proctable"
	"github.com/breeze-rmm/procmcp/internal/termination"
)

var log = logging.L("tools")

// Killer is the slice of the termination controller the kill tool needs.
type Killer interface {
	Kill(ctx context.Context, req termination.Request) (termination.Result, error)
}

// Deps bundles the collaborators shared by all tool handlers.
type Deps struct {
	Table   proctable.Table
	Killer  Killer
	Audit   *audit.Logger
	Monitor *health.Monitor

	DefaultLimit int
	MaxLimit     int
}

// ErrorInfo is the structured error object returned inside tool outputs.
type ErrorInfo struct {
	Kind    string `json:"error_kind"`
	Message string `json:"message"`
}

// errorInfo classifies err for the wire. Unclassified errors surface as
// CollectionError so the caller always gets a taxonomy kind.
func errorInfo(err error) *ErrorInfo {
	kind := procerr.KindOf(err)
	if kind == "" {
		kind = procerr.KindCollection
	}
	return &ErrorInfo{Kind: string(kind), Message: err.Error()}
}

func (d Deps) updateHealth(name string, status health.Status, message string) {
	if d.Monitor != nil {
		d.Monitor.Update(name, status, message)
	}
}

// RegisterAll registers every tool on the MCP server.
func RegisterAll(server *mcp.Server, deps Deps) {
	NewListTool(deps).Register(server)
	NewInfoTool(deps).Register(server)
	NewKillTool(deps).Register(server)
}
