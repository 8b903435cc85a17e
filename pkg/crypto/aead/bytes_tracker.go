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
	"fmt"
	"sync/atomic"
)

const (
	// DefaultBytesTrackingLimit is the default maximum bytes that can be
	// encrypted with a single key when nonces are tracked.
	DefaultBytesTrackingLimit = 350 * 1024 * 1024 * 1024 // 350GB in bytes

	// Conservative68GB is the limit for random 96-bit nonces (NIST SP 800-38D,
	// 2^32 invocations).
	Conservative68GB = 68 * 1024 * 1024 * 1024 // 68GB in bytes
)

// BytesTracker tracks the total number of bytes encrypted with a single AEAD key
// and enforces usage limits.
//
// Thread-safe: the counter is updated atomically.
type BytesTracker struct {
	enabled        bool
	bytesEncrypted atomic.Int64
	limit          int64
}

// NewBytesTracker creates a new bytes tracker with the specified limit.
// If limit is 0, uses DefaultBytesTrackingLimit.
func NewBytesTracker(enabled bool, limit int64) *BytesTracker {
	if limit == 0 {
		limit = DefaultBytesTrackingLimit
	}
	return &BytesTracker{
		enabled: enabled,
		limit:   limit,
	}
}

// CheckAndIncrementBytes verifies that adding numBytes won't exceed the limit,
// and if safe, increments the counter atomically. On failure the counter is
// left unchanged.
func (bt *BytesTracker) CheckAndIncrementBytes(numBytes int64) error {
	if !bt.enabled {
		return nil
	}

	newTotal := bt.bytesEncrypted.Add(numBytes)

	if newTotal > bt.limit {
		bt.bytesEncrypted.Add(-numBytes)
		return fmt.Errorf("%w: encrypted %d bytes, limit %d bytes (exceeded by %d bytes)",
			ErrUsageLimitExceeded, newTotal-numBytes, bt.limit, newTotal-bt.limit)
	}

	return nil
}

// GetBytesEncrypted returns the total number of bytes encrypted so far.
func (bt *BytesTracker) GetBytesEncrypted() int64 {
	if !bt.enabled {
		return 0
	}
	return bt.bytesEncrypted.Load()
}

// GetRemainingBytes returns the remaining budget, or -1 when tracking is off.
func (bt *BytesTracker) GetRemainingBytes() int64 {
	if !bt.enabled {
		return -1 // Unlimited
	}
	return bt.limit - bt.bytesEncrypted.Load()
}

// GetLimit returns the configured limit, or -1 when tracking is off.
func (bt *BytesTracker) GetLimit() int64 {
	if !bt.enabled {
		return -1
	}
	return bt.limit
}

// IsEnabled returns whether bytes tracking is enabled.
func (bt *BytesTracker) IsEnabled() bool {
	return bt.enabled
}
