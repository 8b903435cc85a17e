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
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/kdf"
)

func TestDeriveMasterKey_MatchesPBKDF2(t *testing.T) {
	salt := []byte("0123456789abcdef")
	password := []byte("correct horse")

	got, err := deriveMasterKey(kdf.NewPBKDF2Adapter(), *kdf.DefaultParams(kdf.AlgorithmPBKDF2), password, salt)
	require.NoError(t, err)

	want := pbkdf2.Key(password, salt, 100000, 32, sha256.New)[:KeySize]
	assert.Equal(t, want, got)
	assert.Len(t, got, KeySize)
}

func TestDeriveMasterKey_RejectsShortSalt(t *testing.T) {
	_, err := deriveMasterKey(kdf.NewPBKDF2Adapter(), *kdf.DefaultParams(kdf.AlgorithmPBKDF2), []byte("pw"), []byte("short"))
	assert.ErrorIs(t, err, kdf.ErrInvalidSalt)
}

func TestDeriveHMACKey(t *testing.T) {
	master := []byte("0123456789abcdef")
	sum := sha256.Sum256(master)

	got := deriveHMACKey(master)
	assert.Equal(t, sum[:KeySize], got)
	assert.Equal(t, []byte("0123456789abcdef"), master, "master key must not be modified")
}

func TestDomainDigest(t *testing.T) {
	key := []byte("0123456789abcdef")

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("example.com"))
	assert.Equal(t, encodeB64(mac.Sum(nil)), domainDigest(key, "example.com"))

	assert.Equal(t, domainDigest(key, "example.com"), domainDigest(key, "example.com"))
	assert.NotEqual(t, domainDigest(key, "example.com"), domainDigest([]byte("fedcba9876543210"), "example.com"))
	assert.Len(t, domainDigest(key, ""), 44)
}

func TestDomainDigest_NoCollisions(t *testing.T) {
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	const n = 50000
	seen := make(map[string]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("site-%d.example.com", i)
		d := domainDigest(key, name)
		if prev, ok := seen[d]; ok {
			t.Fatalf("digest collision between %q and %q", prev, name)
		}
		seen[d] = name
	}
}

// TestLoad_IndependentlyBuiltDump builds a serialized keychain using only
// primitives from the standard library and x/crypto, then opens it.
func TestLoad_IndependentlyBuiltDump(t *testing.T) {
	password := "correct horse"
	masterSalt := []byte("fedcba9876543210")
	hmacSalt := []byte("0000111122223333")

	masterKey := pbkdf2.Key([]byte(password), masterSalt, 100000, 32, sha256.New)[:16]
	sum := sha256.Sum256(masterKey)
	hmacKey := sum[:16]

	block, err := aes.NewCipher(masterKey)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	seal := func(plaintext string) string {
		nonce := make([]byte, gcm.NonceSize())
		_, err := rand.Read(nonce)
		require.NoError(t, err)
		return encodeB64(gcm.Seal(nonce, nonce, []byte(plaintext), nil))
	}

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte("a.com"))
	digest := encodeB64(mac.Sum(nil))

	doc := map[string]string{
		"version":     FormatVersion,
		"master_salt": encodeB64(masterSalt),
		"hmac_salt":   encodeB64(hmacSalt),
		"magic":       seal("Recurse"),
		digest:        seal("p1"),
	}
	repr, err := json.Marshal(doc)
	require.NoError(t, err)

	k := New()
	ok, err := k.Load(password, string(repr), Checksum(string(repr)))
	require.NoError(t, err)
	require.True(t, ok)

	v, found, err := k.Get("a.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "p1", v)
}

func TestLoad_WrongCanaryIsWrongPassword(t *testing.T) {
	password := "pw"
	masterSalt := []byte("fedcba9876543210")
	masterKey := pbkdf2.Key([]byte(password), masterSalt, 100000, 32, sha256.New)[:16]

	block, err := aes.NewCipher(masterKey)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)
	nonce := make([]byte, gcm.NonceSize())

	doc := map[string]string{
		"version":     FormatVersion,
		"master_salt": encodeB64(masterSalt),
		"hmac_salt":   encodeB64(masterSalt),
		"magic":       encodeB64(gcm.Seal(nonce, nonce, []byte("Recursion"), nil)),
	}
	repr, err := json.Marshal(doc)
	require.NoError(t, err)

	k := New()
	ok, err := k.Load(password, string(repr), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateNotReady, k.State())
}
