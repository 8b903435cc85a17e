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
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/logger"
	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/rand"
)

// DefaultMaxValueLength is the padding limit used by WithValuePadding when
// given a non-positive maximum.
const DefaultMaxValueLength = 64

// DefaultName labels metrics for a keychain created without WithName.
const DefaultName = "default"

// Option is a functional option for configuring a Keychain.
type Option func(*Keychain)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l logger.Logger) Option {
	return func(k *Keychain) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithRandom sets the random source for salts and nonces.
func WithRandom(rng rand.Resolver) Option {
	return func(k *Keychain) {
		if rng != nil {
			k.rng = rng
		}
	}
}

// WithKDF replaces the PBKDF2 adapter used to stretch the password. An
// adapter implementing kdf.ParamsProvider supplies its own parameters;
// any other adapter receives the standard keychain parameters. Dumps are
// only portable between instances using the same parameters.
func WithKDF(adapter kdf.KDFAdapter) Option {
	return func(k *Keychain) {
		if adapter != nil {
			k.kdf = adapter
		}
	}
}

// WithValuePadding pads every value to maxLen+1 bytes before encryption so
// ciphertext lengths do not reveal value lengths. Values longer than maxLen
// are rejected with ErrValueTooLong. Dump records the setting in
// Snapshot.Padding and LoadSnapshot checks it.
func WithValuePadding(maxLen int) Option {
	return func(k *Keychain) {
		if maxLen <= 0 {
			maxLen = DefaultMaxValueLength
		}
		k.padTo = maxLen
	}
}

// WithName labels this keychain's metrics and log lines. The name is a
// local identifier and is never serialized.
func WithName(name string) Option {
	return func(k *Keychain) {
		if name != "" {
			k.name = name
		}
	}
}
