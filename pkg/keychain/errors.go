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
	"errors"
	"fmt"
)

var (
	// ErrIntegrity is the base error for every tamper detection. Match it
	// with errors.Is to handle all integrity failures at once.
	ErrIntegrity = errors.New("keychain: integrity check failed")

	// ErrChecksumMismatch indicates the serialized keychain does not hash to
	// the trusted checksum supplied to Load.
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrIntegrity)

	// ErrRecordTampered indicates a stored record failed authentication.
	ErrRecordTampered = fmt.Errorf("%w: record authentication failed", ErrIntegrity)

	// ErrNotReady indicates an operation that needs key material was called
	// before a successful Init or Load.
	ErrNotReady = errors.New("keychain: not ready")

	// ErrMalformed indicates the serialized keychain could not be parsed.
	ErrMalformed = errors.New("keychain: malformed representation")

	// ErrValueTooLong indicates a value exceeds the padding limit.
	ErrValueTooLong = errors.New("keychain: value too long")

	// ErrPaddingMismatch indicates the keychain is read with a different
	// value padding setting than it was written with.
	ErrPaddingMismatch = errors.New("keychain: value padding mismatch")
)
