// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pwkeychain.
//
// go-pwkeychain is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-pwkeychain/pkg/correlation"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewSlogAdapter_Defaults(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	if adapter == nil || adapter.logger == nil {
		t.Fatal("NewSlogAdapter(nil) returned an unusable adapter")
	}
}

func TestNewSlogAdapter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{
		Level:  LevelDebug,
		Format: "json",
		Output: &buf,
	})

	adapter.Info("keychain loaded", Int("entries", 2), String("state", "ready"))

	entry := decodeLine(t, &buf)
	if entry["msg"] != "keychain loaded" {
		t.Errorf("msg = %v, want keychain loaded", entry["msg"])
	}
	if entry["entries"] != float64(2) {
		t.Errorf("entries = %v, want 2", entry["entries"])
	}
	if entry["state"] != "ready" {
		t.Errorf("state = %v, want ready", entry["state"])
	}
}

func TestNewSlogAdapter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{Level: LevelInfo, Output: &buf})

	adapter.Debug("hidden")
	adapter.Warn("visible", Bool("padded", false))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "padded=false") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{
		Logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"debug", func() { adapter.Debug("m") }, "DEBUG"},
		{"info", func() { adapter.Info("m") }, "INFO"},
		{"warn", func() { adapter.Warn("m") }, "WARN"},
		{"error", func() { adapter.Error("m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			if got := decodeLine(t, &buf)["level"]; got != tt.level {
				t.Errorf("level = %v, want %v", got, tt.level)
			}
		})
	}
}

func TestSlogAdapter_WithFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{Format: "json", Output: &buf})

	child := adapter.With(String("keychain", "personal"))
	child.WithError(errors.New("integrity check failed")).Error("get failed")

	entry := decodeLine(t, &buf)
	if entry["keychain"] != "personal" {
		t.Errorf("keychain = %v, want personal", entry["keychain"])
	}
	if entry["error"] != "integrity check failed" {
		t.Errorf("error = %v, want integrity check failed", entry["error"])
	}
}

func TestSlogAdapter_WithFieldsWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{Level: LevelInfo, Output: &buf})

	adapter.With(String("keychain", "personal")).
		With(String("backend", "file")).
		Info("keychain opened", Int("entries", 3))

	out := buf.String()
	if n := strings.Count(out, "keychain=personal"); n != 1 {
		t.Errorf("keychain field written %d times: %q", n, out)
	}
	if n := strings.Count(out, "backend=file"); n != 1 {
		t.Errorf("backend field written %d times: %q", n, out)
	}
	if !strings.Contains(out, "entries=3") {
		t.Errorf("missing message field: %q", out)
	}
}

func TestNewSlogAdapter_ZeroLevelIsDebug(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{Output: &buf})

	adapter.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("zero Level should write debug records, got %q", buf.String())
	}
}

func TestSlogAdapter_ContextAwareLogging(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(&SlogConfig{Level: LevelDebug, Format: "json", Output: &buf})

	id := correlation.NewID()
	ctx := correlation.WithCorrelationID(context.Background(), id)

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"DebugContext", func() { adapter.DebugContext(ctx, "m") }, "DEBUG"},
		{"InfoContext", func() { adapter.InfoContext(ctx, "m") }, "INFO"},
		{"WarnContext", func() { adapter.WarnContext(ctx, "m") }, "WARN"},
		{"ErrorContext", func() { adapter.ErrorContext(ctx, "m") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			entry := decodeLine(t, &buf)
			if entry["correlation_id"] != id {
				t.Errorf("correlation_id = %v, want %v", entry["correlation_id"], id)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %v", entry["level"], tt.level)
			}
		})
	}

	buf.Reset()
	adapter.InfoContext(context.Background(), "no id")
	if _, ok := decodeLine(t, &buf)["correlation_id"]; ok {
		t.Error("correlation_id should be absent without one in context")
	}
}

func TestLevelToSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LevelFatal, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := levelToSlogLevel(tt.level); got != tt.want {
			t.Errorf("levelToSlogLevel(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
