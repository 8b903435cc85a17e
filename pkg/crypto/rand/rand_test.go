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

package rand

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver_Modes(t *testing.T) {
	tests := []struct {
		name    string
		config  interface{}
		wantErr bool
	}{
		{name: "nil config", config: nil},
		{name: "auto mode", config: ModeAuto},
		{name: "software mode", config: ModeSoftware},
		{name: "config struct", config: &Config{Mode: ModeSoftware}},
		{name: "empty config struct", config: &Config{}},
		{name: "auto with fallback", config: &Config{Mode: ModeAuto, FallbackMode: ModeSoftware}},
		{name: "unknown type", config: 42},
		{name: "unknown mode", config: Mode("tpm2"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer r.Close()

			assert.True(t, r.Available())
			assert.NotNil(t, r.Source())

			buf, err := r.Rand(32)
			require.NoError(t, err)
			assert.Len(t, buf, 32)
		})
	}
}

func TestResolver_Uniqueness(t *testing.T) {
	r := Default()
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		buf, err := r.Rand(16)
		require.NoError(t, err)
		_, dup := seen[string(buf)]
		require.False(t, dup, "duplicate 16-byte random value")
		seen[string(buf)] = struct{}{}
	}
}

func TestResolver_Reader(t *testing.T) {
	for _, mode := range []Mode{ModeAuto, ModeSoftware} {
		r, err := NewResolver(mode)
		require.NoError(t, err)

		buf := make([]byte, 64)
		n, err := io.ReadFull(r, buf)
		require.NoError(t, err)
		assert.Equal(t, 64, n)
		assert.False(t, bytes.Equal(buf, make([]byte, 64)))
	}
}

type failingResolver struct{ SoftwareResolver }

func (f *failingResolver) Rand(int) ([]byte, error) { return nil, errors.New("rng offline") }

func TestAutoResolver_Fallback(t *testing.T) {
	a := &autoResolver{resolver: &failingResolver{}, fallback: Default()}
	buf, err := a.Rand(8)
	require.NoError(t, err)
	assert.Len(t, buf, 8)

	noFallback := &autoResolver{resolver: &failingResolver{}}
	_, err = noFallback.Rand(8)
	assert.Error(t, err)
	assert.NoError(t, noFallback.Close())
}
