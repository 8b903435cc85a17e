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

package keychain

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	tests := []struct {
		name    string
		value   []byte
		maxLen  int
		wantErr bool
	}{
		{name: "empty", value: []byte{}, maxLen: 8},
		{name: "short", value: []byte("abc"), maxLen: 8},
		{name: "exact", value: []byte("12345678"), maxLen: 8},
		{name: "trailing zeros", value: []byte{'a', 0, 0}, maxLen: 8},
		{name: "trailing marker byte", value: []byte{'a', 0x80}, maxLen: 8},
		{name: "too long", value: []byte("123456789"), maxLen: 8, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			padded, err := pad(tt.value, tt.maxLen)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValueTooLong)
				return
			}
			require.NoError(t, err)
			assert.Len(t, padded, tt.maxLen+1)

			got, err := unpad(padded, tt.maxLen)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.value, got), "got %x want %x", got, tt.value)
		})
	}
}

func TestUnpad_Invalid(t *testing.T) {
	_, err := unpad(make([]byte, 9), 8)
	assert.Error(t, err, "all zeros has no marker")

	_, err = unpad([]byte("abc"), 8)
	assert.Error(t, err, "wrong length")

	bad := make([]byte, 9)
	bad[2] = 0x7f
	_, err = unpad(bad, 8)
	assert.Error(t, err, "last non-zero byte is not the marker")
}

func TestValuePadding_HidesLength(t *testing.T) {
	k := newReady(t, "pw", WithValuePadding(64))

	require.NoError(t, k.Set("a.com", "x"))
	require.NoError(t, k.Set("b.com", strings.Repeat("y", 64)))

	lenOf := func(name string) int {
		raw, err := base64.StdEncoding.DecodeString(k.rec.entries[k.keys.digest(name)])
		require.NoError(t, err)
		return len(raw)
	}
	assert.Equal(t, lenOf("a.com"), lenOf("b.com"))

	v, found, err := k.Get("b.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, strings.Repeat("y", 64), v)

	err = k.Set("c.com", strings.Repeat("z", 65))
	assert.ErrorIs(t, err, ErrValueTooLong)
	_, found, err = k.Get("c.com")
	require.NoError(t, err)
	assert.False(t, found, "a rejected value must not be stored")
}

func TestValuePadding_RoundTrip(t *testing.T) {
	k := newReady(t, "pw", WithValuePadding(0))
	require.NoError(t, k.Set("a.com", "p1"))
	snap, _ := k.Dump()
	assert.Equal(t, DefaultMaxValueLength, snap.Padding)

	restored := New(WithValuePadding(DefaultMaxValueLength))
	ok, err := restored.LoadSnapshot("pw", snap)
	require.NoError(t, err)
	require.True(t, ok)

	v, _, err := restored.Get("a.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", v)
}

func TestLoadSnapshot_AdoptsStoredPadding(t *testing.T) {
	k := newReady(t, "pw", WithValuePadding(64))
	require.NoError(t, k.Set("a.com", "p1"))
	snap, _ := k.Dump()

	plain := New()
	ok, err := plain.LoadSnapshot("pw", snap)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 64, plain.ValuePadding())

	v, found, err := plain.Get("a.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "p1", v)

	require.NoError(t, plain.Set("b.com", "p2"))
	again, _ := plain.Dump()
	assert.Equal(t, 64, again.Padding)
}

func TestLoadSnapshot_RejectsPaddingMismatch(t *testing.T) {
	tests := []struct {
		name    string
		written []Option
		read    []Option
	}{
		{name: "padded reader on unpadded keychain", written: nil, read: []Option{WithValuePadding(64)}},
		{name: "different lengths", written: []Option{WithValuePadding(32)}, read: []Option{WithValuePadding(64)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newReady(t, "pw", tt.written...)
			require.NoError(t, k.Set("a.com", "p1"))
			snap, _ := k.Dump()

			counter := newCountingKDF()
			reader := New(append(tt.read, WithKDF(counter))...)
			ok, err := reader.LoadSnapshot("pw", snap)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrPaddingMismatch)
			assert.NotErrorIs(t, err, ErrIntegrity)
			assert.Zero(t, counter.calls.Load(), "no key derived on mismatch")
			assert.Equal(t, StateUninitialized, reader.State())
		})
	}
}

func TestLoadSnapshot_NegativePadding(t *testing.T) {
	k := newReady(t, "pw")
	snap, _ := k.Dump()
	snap.Padding = -1

	_, err := New().LoadSnapshot("pw", snap)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValuePadding_MismatchedSettingOnGet(t *testing.T) {
	k := newReady(t, "pw")
	require.NoError(t, k.Set("a.com", "p1"))
	snap, _ := k.Dump()

	padded := New(WithValuePadding(64))
	ok, err := padded.Load("pw", snap.Repr, snap.Checksum)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = padded.Get("a.com")
	assert.ErrorIs(t, err, ErrPaddingMismatch)
	assert.NotErrorIs(t, err, ErrRecordTampered)
}
