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

package storage

import (
	"sort"
	"strings"
)

const (
	keychainPrefix    = "keychains/"
	snapshotExtension = ".json"
	checksumExtension = ".sha256"
	paddingExtension  = ".padding"
)

// SnapshotPath returns the storage key of a keychain's serialized form.
// The path follows the convention: keychains/{name}.json
func SnapshotPath(name string) string {
	return keychainPrefix + name + snapshotExtension
}

// ChecksumPath returns the storage key of a keychain's trusted checksum.
// The path follows the convention: keychains/{name}.sha256
func ChecksumPath(name string) string {
	return keychainPrefix + name + checksumExtension
}

// PaddingPath returns the storage key recording a keychain's value padding.
// The path follows the convention: keychains/{name}.padding
func PaddingPath(name string) string {
	return keychainPrefix + name + paddingExtension
}

// ListKeychains returns the names of all keychains that have a stored
// snapshot, sorted. Checksum files without a snapshot are ignored.
func ListKeychains(backend Backend) ([]string, error) {
	keys, err := backend.List(keychainPrefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, snapshotExtension) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(k, keychainPrefix), snapshotExtension)
		if name != "" && !strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
