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
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// FormatVersion is the version tag written by Init.
const FormatVersion = "CS 255 Password Manager v1.0"

// Reserved top-level keys of the serialized form. Entry digests are 44
// character base64 strings and can never collide with them.
const (
	fieldVersion    = "version"
	fieldMasterSalt = "master_salt"
	fieldHMACSalt   = "hmac_salt"
	fieldMagic      = "magic"
)

// record is the persisted, non-secret state of a keychain.
type record struct {
	version    string
	masterSalt string
	hmacSalt   string
	magic      string
	entries    map[string]string
}

// marshal renders the record as a flat JSON object. encoding/json sorts map
// keys, so equal records always produce identical bytes.
func (r *record) marshal() (string, error) {
	flat := make(map[string]string, len(r.entries)+4)
	for digest, ciphertext := range r.entries {
		flat[digest] = ciphertext
	}
	flat[fieldVersion] = r.version
	flat[fieldMasterSalt] = r.masterSalt
	flat[fieldHMACSalt] = r.hmacSalt
	flat[fieldMagic] = r.magic

	data, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("keychain: marshal: %w", err)
	}
	return string(data), nil
}

// parseRecord is the inverse of marshal. Every top-level value must be a
// string and all four reserved fields must be present.
func parseRecord(repr string) (*record, error) {
	var flat map[string]string
	if err := json.Unmarshal([]byte(repr), &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if flat == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	r := &record{entries: make(map[string]string, len(flat))}
	fields := []struct {
		key string
		dst *string
	}{
		{fieldVersion, &r.version},
		{fieldMasterSalt, &r.masterSalt},
		{fieldHMACSalt, &r.hmacSalt},
		{fieldMagic, &r.magic},
	}
	for _, f := range fields {
		v, ok := flat[f.key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformed, f.key)
		}
		*f.dst = v
		delete(flat, f.key)
	}
	for digest, ciphertext := range flat {
		r.entries[digest] = ciphertext
	}
	return r, nil
}

// decodeField decodes one of the record's base64 fields.
func decodeField(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return b, nil
}
