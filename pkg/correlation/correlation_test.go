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

package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithCorrelationID(t *testing.T) {
	tests := []struct {
		name          string
		ctx           context.Context
		correlationID string
		want          string
	}{
		{
			name:          "Add correlation ID to context",
			ctx:           context.Background(),
			correlationID: "test-correlation-id",
			want:          "test-correlation-id",
		},
		{
			name:          "Add correlation ID to nil context",
			ctx:           nil,
			correlationID: "test-correlation-id-2",
			want:          "test-correlation-id-2",
		},
		{
			name:          "Empty correlation ID",
			ctx:           context.Background(),
			correlationID: "",
			want:          "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithCorrelationID(tt.ctx, tt.correlationID)
			if got := GetCorrelationID(ctx); got != tt.want {
				t.Errorf("GetCorrelationID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCorrelationID(t *testing.T) {
	if got := GetCorrelationID(nil); got != "" { //nolint:staticcheck // nil context is handled
		t.Errorf("GetCorrelationID(nil) = %q, want empty", got)
	}
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Errorf("GetCorrelationID(background) = %q, want empty", got)
	}
	ctx := context.WithValue(context.Background(), CorrelationIDKey, 42)
	if got := GetCorrelationID(ctx); got != "" {
		t.Errorf("GetCorrelationID(non-string) = %q, want empty", got)
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("NewID() returned invalid UUID %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestGetOrGenerate(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "existing")
	if got := GetOrGenerate(ctx); got != "existing" {
		t.Errorf("GetOrGenerate() = %q, want existing", got)
	}

	generated := GetOrGenerate(context.Background())
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("GetOrGenerate() generated invalid UUID %q", generated)
	}
}

func TestEnsure(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		fallback string
		want     string
	}{
		{"keeps existing", WithCorrelationID(context.Background(), "abc"), "ignored", "abc"},
		{"uses fallback", context.Background(), "from-env", "from-env"},
		{"generates", context.Background(), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, id := Ensure(tt.ctx, tt.fallback)
			if GetCorrelationID(ctx) != id {
				t.Errorf("context id %q does not match returned id %q", GetCorrelationID(ctx), id)
			}
			if tt.want != "" && id != tt.want {
				t.Errorf("Ensure() id = %q, want %q", id, tt.want)
			}
			if tt.want == "" {
				if _, err := uuid.Parse(id); err != nil {
					t.Errorf("Ensure() generated invalid UUID %q", id)
				}
			}
		})
	}
}

func TestContextKeyIsolation(t *testing.T) {
	ctx := context.WithValue(context.Background(), "correlation-id", "plain-string-key") //nolint:staticcheck // testing key isolation
	if got := GetCorrelationID(ctx); got != "" {
		t.Errorf("plain string key leaked into GetCorrelationID: %q", got)
	}
}
