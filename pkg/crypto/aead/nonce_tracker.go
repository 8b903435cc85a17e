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

package aead

import (
	"encoding/hex"
	"sync"
)

// NonceTracker provides thread-safe tracking of used nonces to prevent
// catastrophic nonce reuse in AEAD ciphers.
//
// Each GCM instance owns one tracker, so the scope of a tracker is exactly
// one key. Memory grows with each encryption; a keychain encrypts once per
// Set, which keeps the set small.
type NonceTracker struct {
	enabled bool
	nonces  map[string]struct{} // Set of used nonces (hex encoded)
	mu      sync.RWMutex
}

// NewNonceTracker creates a new nonce tracker.
// If enabled is false, all operations are no-ops.
func NewNonceTracker(enabled bool) *NonceTracker {
	return &NonceTracker{
		enabled: enabled,
		nonces:  make(map[string]struct{}),
	}
}

// CheckAndRecordNonce checks if a nonce has been used before and records it.
// Returns ErrNonceReuse if the nonce was previously recorded.
func (nt *NonceTracker) CheckAndRecordNonce(nonce []byte) error {
	if !nt.enabled {
		return nil
	}

	nonceHex := hex.EncodeToString(nonce)

	nt.mu.Lock()
	defer nt.mu.Unlock()

	if _, exists := nt.nonces[nonceHex]; exists {
		return ErrNonceReuse
	}

	nt.nonces[nonceHex] = struct{}{}
	return nil
}

// Contains checks if a nonce has been used before without recording it.
func (nt *NonceTracker) Contains(nonce []byte) bool {
	if !nt.enabled {
		return false
	}

	nonceHex := hex.EncodeToString(nonce)

	nt.mu.RLock()
	defer nt.mu.RUnlock()

	_, exists := nt.nonces[nonceHex]
	return exists
}

// Count returns the number of unique nonces tracked.
func (nt *NonceTracker) Count() int {
	if !nt.enabled {
		return 0
	}

	nt.mu.RLock()
	defer nt.mu.RUnlock()

	return len(nt.nonces)
}

// Clear removes all tracked nonces. Only call this when the key it guards
// has been discarded.
func (nt *NonceTracker) Clear() {
	if !nt.enabled {
		return
	}

	nt.mu.Lock()
	defer nt.mu.Unlock()

	nt.nonces = make(map[string]struct{})
}

// IsEnabled returns whether nonce tracking is enabled.
func (nt *NonceTracker) IsEnabled() bool {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	return nt.enabled
}
