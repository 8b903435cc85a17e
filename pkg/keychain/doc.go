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

// Package keychain implements an encrypted single-user password keychain.
//
// # Overview
//
// A Keychain stores per-domain secrets under one master password. Values are
// encrypted individually with AES-128-GCM, domain names are replaced by a
// keyed HMAC-SHA256 digest so the serialized store never reveals which
// domains it holds, and the whole store can be checksummed with SHA-256 to
// detect tampering while it sits on disk.
//
// # Keys
//
// The master key is the first 16 bytes of PBKDF2-HMAC-SHA256(password,
// master_salt, 100000 iterations, 32 bytes). The HMAC key used to blind
// domain names is the first 16 bytes of SHA-256(master key). Neither key is
// ever serialized; both are wiped when the keychain is closed, reloaded, or
// fails to load.
//
// # Serialized Form
//
// Dump produces a flat JSON object:
//
//	{
//	  "<digest>": "<ciphertext>",
//	  "hmac_salt": "<base64>",
//	  "magic": "<base64>",
//	  "master_salt": "<base64>",
//	  "version": "CS 255 Password Manager v1.0"
//	}
//
// Every digest and ciphertext is standard base64. Each ciphertext is
// nonce(12) || ciphertext || tag(16) and decrypts independently of every
// other. "magic" is the encryption of a fixed canary that Load uses to test
// the password before trusting anything else in the store. The hmac_salt
// field is generated and preserved but takes no part in key derivation.
//
// # Basic Usage
//
//	kc := keychain.New()
//	if err := kc.Init("correct horse"); err != nil {
//	    log.Fatal(err)
//	}
//	_ = kc.Set("example.com", "hunter2")
//
//	snap, _ := kc.Dump()
//
//	restored := keychain.New()
//	ok, err := restored.Load("correct horse", snap.Repr, snap.Checksum)
//	switch {
//	case err != nil:
//	    // tampered or malformed
//	case !ok:
//	    // wrong password
//	}
//	value, found, err := restored.Get("example.com")
//
// # Errors
//
// Integrity failures (ErrChecksumMismatch, ErrRecordTampered) wrap
// ErrIntegrity. A wrong password is not an error: Load returns false.
// Calling Get, Set or Remove before a successful Init or Load returns
// ErrNotReady.
//
// # Thread Safety
//
// A Keychain is safe for concurrent use. One RWMutex guards the whole
// instance; Get and Dump share the read lock.
package keychain
