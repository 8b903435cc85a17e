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

import "fmt"

const padMarker = 0x80

// pad appends a 0x80 marker and zero fill so every value occupies
// maxLen+1 bytes.
func pad(value []byte, maxLen int) ([]byte, error) {
	if len(value) > maxLen {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrValueTooLong, len(value), maxLen)
	}
	out := make([]byte, maxLen+1)
	copy(out, value)
	out[len(value)] = padMarker
	return out, nil
}

// unpad strips the padding added by pad.
func unpad(padded []byte, maxLen int) ([]byte, error) {
	if len(padded) != maxLen+1 {
		return nil, fmt.Errorf("keychain: padded value is %d bytes, want %d", len(padded), maxLen+1)
	}
	i := len(padded) - 1
	for i >= 0 && padded[i] == 0 {
		i--
	}
	if i < 0 || padded[i] != padMarker {
		return nil, fmt.Errorf("keychain: missing padding marker")
	}
	return padded[:i], nil
}
