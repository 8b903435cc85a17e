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

// Package aead provides the authenticated encryption used for keychain
// records: AES-GCM with a fresh random nonce per message, nonce-reuse
// detection, and a per-key usage budget.
//
// A sealed message is self-contained:
//
//	nonce (12 bytes) || ciphertext || tag (16 bytes)
//
// so any record can be decrypted independently of every other record.
package aead

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Algorithm names for AEAD ciphers
const (
	// AES128GCM is AES-128 in Galois/Counter Mode, the keychain record cipher
	AES128GCM = "A128GCM"

	// AES256GCM is AES-256 in Galois/Counter Mode
	AES256GCM = "A256GCM"
)

// HasAESNI returns true if the CPU has hardware AES support.
//
// Supported architectures:
//   - amd64: Checks X86.HasAES
//   - arm64: Checks ARM64.HasAES
//   - Other architectures return false
func HasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	default:
		return false
	}
}

// AlgorithmForKeySize returns the algorithm name for an AES key length in
// bytes, or an empty string for unsupported sizes.
func AlgorithmForKeySize(size int) string {
	switch size {
	case 16:
		return AES128GCM
	case 32:
		return AES256GCM
	default:
		return ""
	}
}
