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
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/logger"
	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/aead"
	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/rand"
	"github.com/jeremyhahn/go-pwkeychain/pkg/metrics"
)

// canary is the plaintext of the magic field.
const canary = "Recurse"

// Snapshot is a serialized keychain and its integrity checksum. Padding
// records the value padding the entries were sealed with; it travels next
// to Repr because the serialized form has no field for it.
type Snapshot struct {
	Repr     string `json:"repr"`
	Checksum string `json:"checksum"`
	Padding  int    `json:"padding,omitempty"`
}

// Info describes an open keychain without revealing any secret.
type Info struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Version        string `json:"version"`
	Entries        int    `json:"entries"`
	Cipher         string `json:"cipher"`
	KDF            string `json:"kdf"`
	KDFIterations  int    `json:"kdf_iterations"`
	Padded         bool   `json:"padded"`
	MaxValueLength int    `json:"max_value_length,omitempty"`
}

// Keychain is an encrypted key-value store for per-domain secrets. The zero
// value is not usable; create one with New.
type Keychain struct {
	mu     sync.RWMutex
	state  State
	rec    *record
	keys   *secrets
	name   string
	padTo  int
	rng    rand.Resolver
	kdf    kdf.KDFAdapter
	params kdf.KDFParams
	logger logger.Logger
}

// New returns an uninitialized keychain. Call Init to create a new store or
// Load to open a serialized one.
func New(opts ...Option) *Keychain {
	k := &Keychain{
		state:  StateUninitialized,
		name:   DefaultName,
		rng:    rand.Default(),
		kdf:    kdf.NewPBKDF2Adapter(),
		logger: logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(k)
	}
	k.params = *kdf.ParamsFor(k.kdf)
	k.logger = k.logger.With(logger.String("keychain", k.name))
	return k
}

// Init creates an empty keychain protected by password, replacing any state
// the instance held. Any password is accepted, including the empty string.
// Errors only arise from the random source or the cipher.
func (k *Keychain) Init(password string) (err error) {
	start := time.Now()
	defer func() { k.observe(metrics.OpInit, start, err) }()

	masterSalt, err := k.rng.Rand(SaltSize)
	if err != nil {
		return fmt.Errorf("keychain: generate master salt: %w", err)
	}
	hmacSalt, err := k.rng.Rand(SaltSize)
	if err != nil {
		return fmt.Errorf("keychain: generate hmac salt: %w", err)
	}

	pw := []byte(password)
	masterKey, err := deriveMasterKey(k.kdf, k.params, pw, masterSalt)
	memguard.WipeBytes(pw)
	if err != nil {
		return fmt.Errorf("keychain: derive master key: %w", err)
	}

	keys, err := newSecrets(masterKey, k.rng)
	if err != nil {
		return fmt.Errorf("keychain: create cipher: %w", err)
	}
	magic, err := keys.cipher.Seal([]byte(canary))
	if err != nil {
		keys.wipe()
		return fmt.Errorf("keychain: encrypt canary: %w", err)
	}

	rec := &record{
		version:    FormatVersion,
		masterSalt: base64.StdEncoding.EncodeToString(masterSalt),
		hmacSalt:   base64.StdEncoding.EncodeToString(hmacSalt),
		magic:      base64.StdEncoding.EncodeToString(magic),
		entries:    make(map[string]string),
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.adopt(rec, keys, k.padTo)

	k.logger.Info("keychain initialized",
		logger.String("version", rec.version),
		logger.Bool("padded", k.padTo > 0),
		logger.Bool("aes_ni", aead.HasAESNI()))
	return nil
}

// Load opens a serialized keychain.
//
// When checksum is non-empty the raw repr must hash to it; otherwise Load
// returns ErrChecksumMismatch before parsing or deriving any key. An
// unparseable repr returns ErrMalformed. In both cases the instance is left
// exactly as it was.
//
// A wrong password is not an error: Load returns false, discards any key
// material the instance held and moves it to StateNotReady.
//
// Load reads values with the instance's own padding setting. Use
// LoadSnapshot to restore the setting recorded by Dump.
func (k *Keychain) Load(password, repr, checksum string) (ok bool, err error) {
	return k.load(password, repr, checksum, k.ValuePadding())
}

// LoadSnapshot is Load for a Snapshot returned by Dump. An instance created
// without WithValuePadding adopts the snapshot's padding. An instance with
// a different padding setting returns ErrPaddingMismatch before any key is
// derived.
func (k *Keychain) LoadSnapshot(password string, snap Snapshot) (bool, error) {
	padTo := k.ValuePadding()
	switch {
	case snap.Padding < 0:
		err := fmt.Errorf("%w: negative padding %d", ErrMalformed, snap.Padding)
		k.observe(metrics.OpLoad, time.Now(), err)
		return false, err
	case padTo == 0:
		padTo = snap.Padding
	case padTo != snap.Padding:
		err := fmt.Errorf("%w: stored %s, configured %d bytes",
			ErrPaddingMismatch, describePadding(snap.Padding), padTo)
		k.observe(metrics.OpLoad, time.Now(), err)
		return false, err
	}
	return k.load(password, snap.Repr, snap.Checksum, padTo)
}

func (k *Keychain) load(password, repr, checksum string, padTo int) (ok bool, err error) {
	start := time.Now()
	defer func() {
		if err == nil && !ok {
			k.observeStatus(metrics.OpLoad, start, metrics.StatusDenied)
			return
		}
		k.observe(metrics.OpLoad, start, err)
	}()

	if checksum != "" && !VerifyChecksum(repr, checksum) {
		k.logger.Warn("keychain checksum mismatch")
		return false, ErrChecksumMismatch
	}

	rec, err := parseRecord(repr)
	if err != nil {
		return false, err
	}
	masterSalt, err := decodeField(fieldMasterSalt, rec.masterSalt)
	if err != nil {
		return false, err
	}
	magic, err := decodeField(fieldMagic, rec.magic)
	if err != nil {
		return false, err
	}

	pw := []byte(password)
	masterKey, err := deriveMasterKey(k.kdf, k.params, pw, masterSalt)
	memguard.WipeBytes(pw)
	if err != nil {
		if errors.Is(err, kdf.ErrInvalidSalt) {
			return false, fmt.Errorf("%w: %s: %v", ErrMalformed, fieldMasterSalt, err)
		}
		return false, fmt.Errorf("keychain: derive master key: %w", err)
	}

	keys, err := newSecrets(masterKey, k.rng)
	if err != nil {
		return false, fmt.Errorf("keychain: create cipher: %w", err)
	}

	plaintext, openErr := keys.cipher.Open(magic)
	if openErr != nil || string(plaintext) != canary {
		keys.wipe()
		k.mu.Lock()
		k.discard(StateNotReady)
		k.mu.Unlock()
		k.logger.Warn("keychain password rejected")
		return false, nil
	}

	if rec.version != FormatVersion {
		k.logger.Debug("keychain has unrecognized version tag, preserving it",
			logger.String("version", rec.version))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.adopt(rec, keys, padTo)

	k.logger.Info("keychain loaded", logger.Int("entries", len(rec.entries)))
	return true, nil
}

// Dump serializes the keychain. It returns false, and an empty Snapshot,
// unless the keychain is ready. The snapshot contains no key material.
func (k *Keychain) Dump() (Snapshot, bool) {
	start := time.Now()

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.state != StateReady {
		k.observe(metrics.OpDump, start, ErrNotReady)
		return Snapshot{}, false
	}

	repr, err := k.rec.marshal()
	if err != nil {
		// A map of strings always marshals.
		k.logger.Error("keychain dump failed", logger.Error(err))
		k.observe(metrics.OpDump, start, err)
		return Snapshot{}, false
	}
	k.observe(metrics.OpDump, start, nil)
	return Snapshot{Repr: repr, Checksum: Checksum(repr), Padding: k.padTo}, true
}

// Get returns the value stored for name. found is false when no value is
// stored. A stored record that fails authentication returns
// ErrRecordTampered.
func (k *Keychain) Get(name string) (value string, found bool, err error) {
	start := time.Now()
	defer func() { k.observe(metrics.OpGet, start, err) }()

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.state != StateReady {
		return "", false, ErrNotReady
	}

	stored, ok := k.rec.entries[k.keys.digest(name)]
	if !ok {
		return "", false, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", false, k.tampered(err)
	}
	plaintext, err := k.keys.cipher.Open(sealed)
	if err != nil {
		return "", false, k.tampered(err)
	}
	defer memguard.WipeBytes(plaintext)

	if k.padTo > 0 {
		// The record authenticated, so a bad layout means it was sealed
		// with a different padding setting.
		unpadded, err := unpad(plaintext, k.padTo)
		if err != nil {
			k.logger.Warn("keychain record does not match the padding setting")
			return "", false, fmt.Errorf("%w: %v", ErrPaddingMismatch, err)
		}
		plaintext = unpadded
	}
	return string(plaintext), true, nil
}

// Set stores value under name, replacing any existing value.
func (k *Keychain) Set(name, value string) (err error) {
	start := time.Now()
	defer func() { k.observe(metrics.OpSet, start, err) }()

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.state != StateReady {
		return ErrNotReady
	}

	plaintext := []byte(value)
	defer memguard.WipeBytes(plaintext)
	if k.padTo > 0 {
		padded, err := pad(plaintext, k.padTo)
		if err != nil {
			return err
		}
		defer memguard.WipeBytes(padded)
		plaintext = padded
	}

	sealed, err := k.keys.cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("keychain: encrypt value: %w", err)
	}

	k.rec.entries[k.keys.digest(name)] = base64.StdEncoding.EncodeToString(sealed)
	metrics.SetEntries(k.name, len(k.rec.entries))
	return nil
}

// Remove deletes the value stored for name and reports whether one existed.
func (k *Keychain) Remove(name string) (removed bool, err error) {
	start := time.Now()
	defer func() { k.observe(metrics.OpRemove, start, err) }()

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.state != StateReady {
		return false, ErrNotReady
	}

	digest := k.keys.digest(name)
	if _, ok := k.rec.entries[digest]; !ok {
		return false, nil
	}
	delete(k.rec.entries, digest)
	metrics.SetEntries(k.name, len(k.rec.entries))
	return true, nil
}

// State returns the current lifecycle state.
func (k *Keychain) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// Ready reports whether Get, Set, Remove and Dump are permitted.
func (k *Keychain) Ready() bool {
	return k.State() == StateReady
}

// ValuePadding returns the length values are padded to, or zero when
// values are stored unpadded.
func (k *Keychain) ValuePadding() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.padTo
}

// Len returns the number of stored entries, or zero when not ready.
func (k *Keychain) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.state != StateReady {
		return 0
	}
	return len(k.rec.entries)
}

// Info describes the keychain. Version, Entries and Cipher are only
// populated when the keychain is ready.
func (k *Keychain) Info() Info {
	k.mu.RLock()
	defer k.mu.RUnlock()

	info := Info{
		Name:          k.name,
		State:         k.state.String(),
		KDF:           k.params.Algorithm.String() + "-" + hashName(k.params.Hash),
		KDFIterations: k.params.Iterations,
		Padded:        k.padTo > 0,
	}
	if k.padTo > 0 {
		info.MaxValueLength = k.padTo
	}
	if k.state == StateReady {
		info.Version = k.rec.version
		info.Entries = len(k.rec.entries)
		info.Cipher = k.keys.cipher.Algorithm()
	}
	return info
}

// Close wipes key material and returns the keychain to
// StateUninitialized. The instance may be reused with Init or Load.
func (k *Keychain) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.discard(StateUninitialized)
	return nil
}

// adopt installs a verified record, its keys and the padding its values
// were sealed with. Caller holds the write lock.
func (k *Keychain) adopt(rec *record, keys *secrets, padTo int) {
	k.keys.wipe()
	k.rec = rec
	k.keys = keys
	k.padTo = padTo
	k.state = StateReady
	metrics.SetEntries(k.name, len(rec.entries))
}

// discard drops all state. Caller holds the write lock.
func (k *Keychain) discard(state State) {
	k.keys.wipe()
	k.keys = nil
	k.rec = nil
	k.state = state
	metrics.DeleteEntries(k.name)
}

func (k *Keychain) tampered(cause error) error {
	k.logger.Error("keychain record failed authentication")
	return fmt.Errorf("%w: %v", ErrRecordTampered, cause)
}

func (k *Keychain) observe(op string, start time.Time, err error) {
	if err == nil {
		k.observeStatus(op, start, metrics.StatusSuccess)
		return
	}
	k.observeStatus(op, start, metrics.StatusError)
	metrics.RecordError(op, errorType(err))
}

func (k *Keychain) observeStatus(op string, start time.Time, status string) {
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

// errorType maps an error to its metrics label.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrIntegrity):
		return metrics.ErrorTypeIntegrity
	case errors.Is(err, ErrNotReady):
		return metrics.ErrorTypeNotReady
	case errors.Is(err, ErrMalformed):
		return metrics.ErrorTypeMalformed
	case errors.Is(err, ErrValueTooLong):
		return metrics.ErrorTypeValueTooLong
	case errors.Is(err, ErrPaddingMismatch):
		return metrics.ErrorTypePadding
	default:
		return metrics.ErrorTypeInternal
	}
}

func describePadding(padTo int) string {
	if padTo == 0 {
		return "unpadded"
	}
	return fmt.Sprintf("padded to %d bytes", padTo)
}

// hashName renders crypto.SHA256 as "SHA256".
func hashName(h crypto.Hash) string {
	return strings.ReplaceAll(h.String(), "-", "")
}
