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

// Package storage provides the key-value backends that hold serialized
// keychains. Backends store opaque bytes; they never see key material or
// plaintext values, only the JSON representation and checksum produced by
// keychain.Dump.
package storage

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Backend defines the interface for storage backends.
// All implementations must be thread-safe.
type Backend interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores the value for the given key, replacing any existing value.
	Put(key string, value []byte, opts *Options) error

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix in sorted order.
	// If prefix is empty, all keys are returned.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists in storage.
	Exists(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Options contains optional parameters for Put.
type Options struct {
	// Permissions sets the file mode for file-based storage.
	// Zero selects the backend default.
	Permissions fs.FileMode
}

// DefaultOptions returns Options for secret material: owner read/write only.
func DefaultOptions() *Options {
	return &Options{Permissions: 0600}
}

// ValidateKey rejects keys that are empty, absolute, contain a NUL byte, or
// would escape the backend root once cleaned.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if strings.ContainsRune(key, 0) {
		return ErrInvalidKey
	}
	if filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") ||
		strings.Contains(cleaned, "/../") {
		return ErrInvalidKey
	}
	return nil
}
