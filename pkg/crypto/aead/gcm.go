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
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/rand"
)

const (
	// NonceSize is the standard GCM nonce size in bytes
	NonceSize = 12

	// TagSize is the GCM authentication tag size in bytes
	TagSize = 16

	// Overhead is the number of bytes a sealed message adds to its plaintext
	Overhead = NonceSize + TagSize
)

// Options configures a GCM cipher.
type Options struct {
	// DisableNonceTracking turns off the per-key nonce reuse check
	DisableNonceTracking bool

	// BytesLimit is the per-key encryption budget. Zero selects
	// Conservative68GB, negative disables the budget.
	BytesLimit int64
}

// GCM is an AES-GCM cipher bound to one key. Every Seal draws a fresh
// random nonce and prefixes it to the output.
//
// GCM is safe for concurrent use.
type GCM struct {
	aead      cipher.AEAD
	rng       rand.Resolver
	nonces    *NonceTracker
	usage     *BytesTracker
	algorithm string
}

// NewGCM creates a cipher for a 16 or 32 byte AES key. The key is not
// retained beyond the AES key schedule. A nil rng selects the software
// resolver.
func NewGCM(key []byte, rng rand.Resolver, opts *Options) (*GCM, error) {
	algorithm := AlgorithmForKeySize(len(key))
	if algorithm == "" {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeySize, len(key))
	}
	if opts == nil {
		opts = &Options{}
	}
	if rng == nil {
		rng = rand.Default()
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: cannot create aes block cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: cannot create gcm cipher: %w", err)
	}

	limit := opts.BytesLimit
	if limit == 0 {
		limit = Conservative68GB
	}

	return &GCM{
		aead:      gcm,
		rng:       rng,
		nonces:    NewNonceTracker(!opts.DisableNonceTracking),
		usage:     NewBytesTracker(limit > 0, limit),
		algorithm: algorithm,
	}, nil
}

// Seal encrypts and authenticates plaintext, returning
// nonce || ciphertext || tag.
func (g *GCM) Seal(plaintext []byte) ([]byte, error) {
	if err := g.usage.CheckAndIncrementBytes(int64(len(plaintext))); err != nil {
		return nil, err
	}

	nonce, err := g.rng.Rand(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("aead: cannot generate nonce: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("aead: short nonce from random source: %d bytes", len(nonce))
	}
	if err := g.nonces.CheckAndRecordNonce(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	copy(out, nonce)
	return g.aead.Seal(out, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts a message produced by Seal. Any
// failure, including a truncated message, returns ErrAuthentication.
func (g *GCM) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, ErrAuthentication
	}
	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := g.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Algorithm returns the cipher's algorithm name, e.g. A128GCM.
func (g *GCM) Algorithm() string {
	return g.algorithm
}

// NoncesIssued returns the number of nonces recorded for this key.
func (g *GCM) NoncesIssued() int {
	return g.nonces.Count()
}

// BytesEncrypted returns the number of plaintext bytes sealed with this key.
func (g *GCM) BytesEncrypted() int64 {
	return g.usage.GetBytesEncrypted()
}

// Close releases the nonce history. The cipher must not be used afterwards.
func (g *GCM) Close() {
	g.nonces.Clear()
}
