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
	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/aead"
	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/rand"
)

// secrets is the key material of an open keychain. It is never serialized.
type secrets struct {
	masterKey []byte
	hmacKey   []byte
	cipher    *aead.GCM
}

// newSecrets takes ownership of masterKey.
func newSecrets(masterKey []byte, rng rand.Resolver) (*secrets, error) {
	cipher, err := aead.NewGCM(masterKey, rng, nil)
	if err != nil {
		memguard.WipeBytes(masterKey)
		return nil, err
	}
	return &secrets{
		masterKey: masterKey,
		hmacKey:   deriveHMACKey(masterKey),
		cipher:    cipher,
	}, nil
}

func (s *secrets) digest(name string) string {
	return domainDigest(s.hmacKey, name)
}

// wipe zeroes both keys and drops the cipher. The AES key schedule held by
// the standard library cipher cannot be reached and is left to the GC.
func (s *secrets) wipe() {
	if s == nil {
		return
	}
	memguard.WipeBytes(s.masterKey)
	memguard.WipeBytes(s.hmacKey)
	if s.cipher != nil {
		s.cipher.Close()
		s.cipher = nil
	}
}
