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

// Package persist stores serialized keychains on a storage.Backend.
//
// A keychain named "personal" occupies up to three keys:
//
//	keychains/personal.json     the representation returned by Dump
//	keychains/personal.sha256   its trusted checksum
//	keychains/personal.padding  the value padding length, when padded
//
// Open reads them and hands the snapshot to keychain.LoadSnapshot, so a
// snapshot altered on disk is rejected with keychain.ErrChecksumMismatch
// before any key is derived. Commit dumps an open keychain and writes the
// keys back.
package persist

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/logger"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
	"github.com/jeremyhahn/go-pwkeychain/pkg/metrics"
	"github.com/jeremyhahn/go-pwkeychain/pkg/storage"
)

var (
	// ErrKeychainNotFound indicates no snapshot is stored under the name.
	ErrKeychainNotFound = errors.New("persist: keychain not found")

	// ErrKeychainExists indicates Create would overwrite a stored keychain.
	ErrKeychainExists = errors.New("persist: keychain already exists")

	// ErrInvalidName indicates a keychain name that cannot be stored.
	ErrInvalidName = errors.New("persist: invalid keychain name")

	// ErrWrongPassword indicates Open was given the wrong master password.
	ErrWrongPassword = errors.New("persist: wrong password")

	// ErrChecksumMissing indicates a checksum-verified Open found no stored
	// checksum. It matches keychain.ErrIntegrity.
	ErrChecksumMissing = fmt.Errorf("%w: no stored checksum", keychain.ErrIntegrity)
)

const maxNameLength = 128

// Store reads and writes keychain snapshots.
type Store struct {
	backend        storage.Backend
	logger         logger.Logger
	verifyChecksum bool
}

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChecksumVerification controls whether Open passes the stored
// checksum to keychain.Load. It is on by default.
func WithChecksumVerification(enabled bool) Option {
	return func(s *Store) {
		s.verifyChecksum = enabled
	}
}

// New creates a Store on backend.
func New(backend storage.Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("persist: backend cannot be nil")
	}
	s := &Store{
		backend:        backend,
		logger:         logger.NoOpLogger{},
		verifyChecksum: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ValidateName accepts names made of letters, digits, '.', '-' and '_',
// not starting with '.', up to 128 bytes.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Save writes snap under name, replacing any stored snapshot. The
// representation is written before the checksum; an interrupted Save is
// therefore detected by the next checksum-verified Open.
func (s *Store) Save(name string, snap keychain.Snapshot) (err error) {
	start := time.Now()
	defer func() { observe(metrics.OpSave, start, err) }()

	if err := ValidateName(name); err != nil {
		return err
	}
	opts := storage.DefaultOptions()
	if err := s.backend.Put(storage.SnapshotPath(name), []byte(snap.Repr), opts); err != nil {
		return fmt.Errorf("persist: save %s: %w", name, err)
	}
	if err := s.backend.Put(storage.ChecksumPath(name), []byte(snap.Checksum), opts); err != nil {
		return fmt.Errorf("persist: save %s checksum: %w", name, err)
	}
	if err := s.savePadding(name, snap.Padding, opts); err != nil {
		return err
	}
	s.logger.Debug("keychain saved", logger.String("name", name), logger.Int("bytes", len(snap.Repr)))
	return nil
}

// Load reads the snapshot stored under name. A missing checksum file
// yields an empty Checksum and a missing padding file a zero Padding.
func (s *Store) Load(name string) (keychain.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return keychain.Snapshot{}, err
	}
	repr, err := s.backend.Get(storage.SnapshotPath(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return keychain.Snapshot{}, fmt.Errorf("%w: %s", ErrKeychainNotFound, name)
		}
		return keychain.Snapshot{}, fmt.Errorf("persist: load %s: %w", name, err)
	}
	sum, err := s.backend.Get(storage.ChecksumPath(name))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return keychain.Snapshot{}, fmt.Errorf("persist: load %s checksum: %w", name, err)
	}
	padding, err := s.loadPadding(name)
	if err != nil {
		return keychain.Snapshot{}, err
	}
	return keychain.Snapshot{
		Repr:     string(repr),
		Checksum: strings.TrimSpace(string(sum)),
		Padding:  padding,
	}, nil
}

func (s *Store) savePadding(name string, padding int, opts *storage.Options) error {
	key := storage.PaddingPath(name)
	if padding == 0 {
		if err := s.backend.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("persist: save %s padding: %w", name, err)
		}
		return nil
	}
	if err := s.backend.Put(key, []byte(strconv.Itoa(padding)), opts); err != nil {
		return fmt.Errorf("persist: save %s padding: %w", name, err)
	}
	return nil
}

func (s *Store) loadPadding(name string) (int, error) {
	raw, err := s.backend.Get(storage.PaddingPath(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("persist: load %s padding: %w", name, err)
	}
	padding, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || padding < 0 {
		return 0, fmt.Errorf("%w: %s padding %q", keychain.ErrMalformed, name, raw)
	}
	return padding, nil
}

// Exists reports whether a snapshot is stored under name.
func (s *Store) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return s.backend.Exists(storage.SnapshotPath(name))
}

// Delete removes the snapshot and checksum stored under name.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.backend.Delete(storage.SnapshotPath(name)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrKeychainNotFound, name)
		}
		return fmt.Errorf("persist: delete %s: %w", name, err)
	}
	for _, key := range []string{storage.ChecksumPath(name), storage.PaddingPath(name)} {
		if err := s.backend.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("persist: delete %s: %w", key, err)
		}
	}
	return nil
}

// List returns the names of all stored keychains.
func (s *Store) List() ([]string, error) {
	names, err := storage.ListKeychains(s.backend)
	if err != nil {
		return nil, fmt.Errorf("persist: list: %w", err)
	}
	return names, nil
}

// Create initializes a new keychain and saves it under name. It refuses
// to replace a stored keychain unless overwrite is set.
func (s *Store) Create(name, password string, overwrite bool, opts ...keychain.Option) (*keychain.Keychain, error) {
	exists, err := s.Exists(name)
	if err != nil {
		return nil, err
	}
	if exists && !overwrite {
		return nil, fmt.Errorf("%w: %s", ErrKeychainExists, name)
	}

	kc := keychain.New(append([]keychain.Option{keychain.WithName(name)}, opts...)...)
	if err := kc.Init(password); err != nil {
		return nil, err
	}
	if err := s.Commit(name, kc); err != nil {
		_ = kc.Close()
		return nil, err
	}
	s.logger.Info("keychain created", logger.String("name", name))
	return kc, nil
}

// Open loads the keychain stored under name with the padding it was
// written with. A wrong password returns ErrWrongPassword. With checksum
// verification on, a missing checksum returns ErrChecksumMissing. Options
// selecting a different padding return keychain.ErrPaddingMismatch.
// Tampering and malformed snapshots return the keychain package errors
// unchanged.
func (s *Store) Open(name, password string, opts ...keychain.Option) (kc *keychain.Keychain, err error) {
	start := time.Now()
	defer func() { observe(metrics.OpOpen, start, err) }()

	snap, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	if !s.verifyChecksum {
		snap.Checksum = ""
	} else if snap.Checksum == "" {
		s.logger.Error("keychain has no stored checksum", logger.String("name", name))
		return nil, fmt.Errorf("%w: %s", ErrChecksumMissing, name)
	}

	kc = keychain.New(append([]keychain.Option{keychain.WithName(name)}, opts...)...)
	ok, err := kc.LoadSnapshot(password, snap)
	if err != nil {
		s.logger.Error("keychain rejected", logger.String("name", name), logger.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrWrongPassword
	}
	return kc, nil
}

// Commit dumps kc and saves it under name.
func (s *Store) Commit(name string, kc *keychain.Keychain) error {
	snap, ok := kc.Dump()
	if !ok {
		return keychain.ErrNotReady
	}
	return s.Save(name, snap)
}

func observe(op string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		if errors.Is(err, ErrWrongPassword) {
			status = metrics.StatusDenied
		} else {
			metrics.RecordError(op, errorType(err))
		}
	}
	metrics.RecordOperation(op, status, time.Since(start).Seconds())
}

func errorType(err error) string {
	switch {
	case errors.Is(err, keychain.ErrIntegrity):
		return metrics.ErrorTypeIntegrity
	case errors.Is(err, keychain.ErrMalformed):
		return metrics.ErrorTypeMalformed
	case errors.Is(err, keychain.ErrPaddingMismatch):
		return metrics.ErrorTypePadding
	default:
		return metrics.ErrorTypeStorage
	}
}
