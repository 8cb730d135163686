// Package server assembles the MCP process server: engine, audit trail,
// health monitor and the stdio transport loop.
package server

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/breeze-rmm/procmcp/internal/audit"
	"github.com/breeze-rmm/procmcp/internal/config"
	"github.com/breeze-rmm/procmcp/internal/health"
	"github.com/breeze-rmm/procmcp/internal/logging"
	"github.com/breeze-rmm/procmcp/internal/privilege"
	"github.com/breeze-rmm/procmcp/internal/tools"
)

var log = logging.L("server")

// drainTimeout bounds how long shutdown waits for in-flight collection
// tasks before giving up.
const drainTimeout = 5 * time.Second

// Server is the MCP process server. It owns the engine plus the ambient
// components (audit, health) and runs until the client closes the stream
// or the context is cancelled.
type Server struct {
	cfg       *config.Config
	engine    *Engine
	auditLog  *audit.Logger
	healthMon *health.Monitor
	mcpServer *mcp.Server
	version   string

	stopOnce sync.Once
}

// New assembles a server from configuration. A failing audit logger is
// reported and degrades health but does not prevent startup; a failing
// engine does.
func New(cfg *config.Config, version string) (*Server, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		healthMon: health.NewMonitor(),
		version:   version,
	}

	if cfg.AuditEnabled {
		auditLog, err := audit.NewLogger(cfg)
		if err != nil {
			log.Error("failed to start audit logger", logging.KeyError, err)
			s.healthMon.Update("audit", health.Unhealthy, err.Error())
		} else {
			s.auditLog = auditLog
			s.healthMon.Update("audit", health.Healthy, "")
		}
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "procmcp",
		Version: version,
	}, nil)

	tools.RegisterAll(s.mcpServer, tools.Deps{
		Table:        engine.Table,
		Killer:       engine.Controller,
		Audit:        s.auditLog,
		Monitor:      s.healthMon,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	})

	return s, nil
}

// Run serves MCP over stdio until the client closes the stream or ctx is
// cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	priv := privilege.Current()
	log.Info("process server starting",
		"version", s.version,
		logging.KeyPID, os.Getpid(),
		"user", priv.Username,
		"elevated", priv.Elevated)

	s.auditLog.Log(audit.EventServerStart, "", map[string]any{
		"version":  s.version,
		"pid":      os.Getpid(),
		"user":     priv.Username,
		"elevated": priv.Elevated,
	})

	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	s.Stop()

	if err != nil && ctx.Err() != nil {
		// Cancellation is a normal shutdown, not a failure.
		return nil
	}
	return err
}

// Stop drains the engine and closes the audit trail. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		log.Info("process server stopping")

		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		s.engine.Close(drainCtx)

		if dropped := s.auditLog.DroppedCount(); dropped > 0 {
			log.Warn("audit entries were dropped", "count", dropped)
			s.healthMon.Update("audit", health.Degraded, "dropped entries")
		}
		log.Info("component health at shutdown", "health", s.healthMon.Summary())

		s.auditLog.Log(audit.EventServerStop, "", map[string]any{
			"droppedAuditEntries": s.auditLog.DroppedCount(),
		})
		if err := s.auditLog.Close(); err != nil {
			log.Error("failed to close audit log", logging.KeyError, err)
		}
	})
}

// HealthMonitor exposes the component monitor for diagnostics.
func (s *Server) HealthMonitor() *health.Monitor {
	return s.healthMon
}
