package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestPreInitLoggerPicksUpConfiguredHandler(t *testing.T) {
	// Loggers created before Init must route through the handler
	// installed by Init, not the bootstrap stderr handler.
	logger := L("early")

	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	logger.Info("hello", slog.String("k", "v"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (got %q)", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry[KeyComponent] != "early" {
		t.Errorf("component = %v, want early", entry[KeyComponent])
	}
	if entry["k"] != "v" {
		t.Errorf("k = %v, want v", entry["k"])
	}
}

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "warn", &buf)
	defer Init("text", "info", nil)

	logger := L("filter")
	logger.Debug("drop-debug")
	logger.Info("drop-info")
	logger.Warn("keep-warn")
	logger.Error("keep-error")

	out := buf.String()
	if strings.Contains(out, "drop-debug") || strings.Contains(out, "drop-info") {
		t.Errorf("sub-warn records were emitted: %q", out)
	}
	if !strings.Contains(out, "keep-warn") || !strings.Contains(out, "keep-error") {
		t.Errorf("warn/error records missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"  info  ", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWithRequestAttachesCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	defer Init("text", "info", nil)

	logger := WithRequest(L("tools"), "process_list", "req-123")
	logger.Info("handled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry[KeyTool] != "process_list" {
		t.Errorf("tool = %v, want process_list", entry[KeyTool])
	}
	if entry[KeyRequestID] != "req-123" {
		t.Errorf("requestId = %v, want req-123", entry[KeyRequestID])
	}
}

func TestFromContextFallback(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) == nil {
		t.Fatal("FromContext returned nil for bare context")
	}

	marked := L("marked")
	ctx = NewContext(ctx, marked)
	if FromContext(ctx) != marked {
		t.Error("FromContext did not return the stored logger")
	}
}
