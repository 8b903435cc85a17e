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

// Package password provides master password handling for the CLI: reading a
// password from a terminal without echo, holding it in memory, and wiping it
// once the keychain has been opened.
package password

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/term"
)

var (
	// ErrPasswordZeroed is returned when the password has been cleared.
	ErrPasswordZeroed = errors.New("password has been zeroed")

	// ErrNotTerminal is returned when a prompt is requested on a file
	// descriptor that is not a terminal.
	ErrNotTerminal = errors.New("password: not a terminal")

	// ErrMismatch is returned when a confirmation does not match.
	ErrMismatch = errors.New("password: passwords do not match")
)

// ClearPassword stores a password in memory as cleartext until Clear is
// called. Unlike most password types, an empty password is valid: a
// keychain accepts any master password.
type ClearPassword struct {
	password []byte
	cleared  bool
}

// New copies password into a ClearPassword.
func New(password []byte) *ClearPassword {
	p := make([]byte, len(password))
	copy(p, password)
	return &ClearPassword{password: p}
}

// FromString creates a ClearPassword from a string.
func FromString(password string) *ClearPassword {
	return &ClearPassword{password: []byte(password)}
}

// String returns the password as a string.
func (p *ClearPassword) String() (string, error) {
	if p.cleared {
		return "", ErrPasswordZeroed
	}
	return string(p.password), nil
}

// Bytes returns a copy of the password.
func (p *ClearPassword) Bytes() ([]byte, error) {
	if p.cleared {
		return nil, ErrPasswordZeroed
	}
	result := make([]byte, len(p.password))
	copy(result, p.password)
	return result, nil
}

// Clear wipes the password. It is irreversible and safe to call twice.
func (p *ClearPassword) Clear() {
	if p.cleared {
		return
	}
	memguard.WipeBytes(p.password)
	p.password = nil
	p.cleared = true
}

// Equal compares two passwords in constant time.
func Equal(a, b *ClearPassword) (bool, error) {
	if a.cleared || b.cleared {
		return false, ErrPasswordZeroed
	}
	return subtle.ConstantTimeCompare(a.password, b.password) == 1, nil
}

// Prompter reads passwords interactively.
type Prompter struct {
	fd  int
	out io.Writer
}

// NewPrompter returns a Prompter reading from the terminal fd and writing
// prompts to out.
func NewPrompter(fd int, out io.Writer) *Prompter {
	return &Prompter{fd: fd, out: out}
}

// IsTerminal reports whether the prompter's descriptor is a terminal.
func (p *Prompter) IsTerminal() bool {
	return term.IsTerminal(p.fd)
}

// Prompt writes prompt and reads a password without echo.
func (p *Prompter) Prompt(prompt string) (*ClearPassword, error) {
	if !p.IsTerminal() {
		return nil, ErrNotTerminal
	}
	fmt.Fprint(p.out, prompt)
	raw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("password: read: %w", err)
	}
	pw := New(raw)
	memguard.WipeBytes(raw)
	return pw, nil
}

// PromptConfirm prompts twice and returns ErrMismatch unless both entries
// are identical.
func (p *Prompter) PromptConfirm(prompt, confirm string) (*ClearPassword, error) {
	first, err := p.Prompt(prompt)
	if err != nil {
		return nil, err
	}
	second, err := p.Prompt(confirm)
	if err != nil {
		first.Clear()
		return nil, err
	}
	defer second.Clear()

	same, err := Equal(first, second)
	if err != nil {
		first.Clear()
		return nil, err
	}
	if !same {
		first.Clear()
		return nil, ErrMismatch
	}
	return first, nil
}

// ReadLine reads a single password line from r, for use when stdin is a
// pipe. The trailing newline (and carriage return) is removed.
func ReadLine(r io.Reader) (*ClearPassword, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("password: read: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	return FromString(line), nil
}
