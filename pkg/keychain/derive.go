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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/kdf"
)

const (
	// SaltSize is the size in bytes of master_salt and hmac_salt.
	SaltSize = 16

	// KeySize is the size in bytes of the master and HMAC keys.
	KeySize = 16
)

// deriveMasterKey stretches password with params and truncates the result
// to KeySize bytes.
func deriveMasterKey(adapter kdf.KDFAdapter, params kdf.KDFParams, password, salt []byte) ([]byte, error) {
	params.Salt = salt

	long, err := adapter.DeriveKey(password, &params)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(long)

	if len(long) < KeySize {
		return nil, fmt.Errorf("keychain: derived key too short: %d bytes", len(long))
	}
	key := make([]byte, KeySize)
	copy(key, long[:KeySize])
	return key, nil
}

// deriveHMACKey returns the first KeySize bytes of SHA-256(masterKey).
func deriveHMACKey(masterKey []byte) []byte {
	sum := sha256.Sum256(masterKey)
	key := make([]byte, KeySize)
	copy(key, sum[:KeySize])
	memguard.WipeBytes(sum[:])
	return key
}

// domainDigest blinds a domain name: base64(HMAC-SHA256(hmacKey, name)).
func domainDigest(hmacKey []byte, name string) string {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(name))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Checksum returns base64(SHA-256(repr)), the integrity checksum of a
// serialized keychain.
func Checksum(repr string) string {
	sum := sha256.Sum256([]byte(repr))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyChecksum reports whether repr hashes to checksum. The comparison
// is constant time.
func VerifyChecksum(repr, checksum string) bool {
	return hmac.Equal([]byte(Checksum(repr)), []byte(checksum))
}
