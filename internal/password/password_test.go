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

package password

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CopiesInput(t *testing.T) {
	raw := []byte("secret")
	p := New(raw)
	raw[0] = 'X'

	s, err := p.String()
	require.NoError(t, err)
	assert.Equal(t, "secret", s)
}

func TestEmptyPasswordIsValid(t *testing.T) {
	p := FromString("")
	s, err := p.String()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	b, err := p.Bytes()
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestBytes_ReturnsCopy(t *testing.T) {
	p := FromString("secret")
	b, err := p.Bytes()
	require.NoError(t, err)
	b[0] = 'X'

	again, err := p.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), again)
}

func TestClear(t *testing.T) {
	p := New([]byte("secret"))
	internal := p.password

	p.Clear()
	assert.Equal(t, make([]byte, 6), internal, "backing array must be wiped")

	_, err := p.String()
	assert.ErrorIs(t, err, ErrPasswordZeroed)
	_, err = p.Bytes()
	assert.ErrorIs(t, err, ErrPasswordZeroed)

	p.Clear()
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same", "correct horse", "correct horse", true},
		{"different", "correct horse", "battery staple", false},
		{"prefix", "correct", "correct horse", false},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Equal(FromString(tt.a), FromString(tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	cleared := FromString("x")
	cleared.Clear()
	_, err := Equal(cleared, FromString("x"))
	assert.ErrorIs(t, err, ErrPasswordZeroed)
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline", "correct horse\n", "correct horse"},
		{"crlf", "correct horse\r\n", "correct horse"},
		{"no newline", "correct horse", "correct horse"},
		{"only first line", "first\nsecond\n", "first"},
		{"empty", "", ""},
		{"spaces kept", "  padded  \n", "  padded  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ReadLine(strings.NewReader(tt.input))
			require.NoError(t, err)
			s, err := p.String()
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestPrompter_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	p := NewPrompter(int(f.Fd()), &out)
	assert.False(t, p.IsTerminal())

	_, err = p.Prompt("Password: ")
	assert.ErrorIs(t, err, ErrNotTerminal)

	_, err = p.PromptConfirm("Password: ", "Confirm: ")
	assert.ErrorIs(t, err, ErrNotTerminal)
	assert.Empty(t, out.String())
}
