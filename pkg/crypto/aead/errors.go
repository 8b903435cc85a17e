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

import "errors"

var (
	// ErrNonceReuse is returned when a nonce is reused with the same key.
	// Reusing a GCM nonce breaks authentication and can leak the auth key,
	// so the encryption is refused.
	ErrNonceReuse = errors.New("aead: catastrophic nonce reuse detected - encryption rejected for security")

	// ErrAuthentication is returned by Open when a sealed message fails
	// authentication. A wrong key and a modified message are
	// indistinguishable at this layer.
	ErrAuthentication = errors.New("aead: message authentication failed")

	// ErrInvalidKeySize is returned when the key is not a valid AES key length.
	ErrInvalidKeySize = errors.New("aead: invalid key size")

	// ErrUsageLimitExceeded is returned when a key has encrypted more bytes
	// than its configured budget.
	ErrUsageLimitExceeded = errors.New("aead: key usage limit exceeded")
)
