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

package kdf

import (
	"crypto"
	"errors"
)

// KDFAlgorithm represents the key derivation function algorithm type
type KDFAlgorithm string

const (
	// AlgorithmPBKDF2 represents Password-Based Key Derivation Function 2 (RFC 2898)
	AlgorithmPBKDF2 KDFAlgorithm = "PBKDF2"
)

// String returns the string representation of the KDF algorithm
func (a KDFAlgorithm) String() string {
	return string(a)
}

// KDFParams contains parameters for key derivation
type KDFParams struct {
	// Algorithm specifies which KDF algorithm to use
	Algorithm KDFAlgorithm

	// Salt is the cryptographic salt (should be random and unique per key)
	Salt []byte

	// Iterations specifies the number of iterations
	Iterations int

	// KeyLength is the desired output key length in bytes
	KeyLength int

	// Hash is the PRF hash function
	Hash crypto.Hash
}

// KDFAdapter is the interface for key derivation function adapters.
// The keychain derives its master key through this interface so tests and
// callers can substitute their own implementation.
type KDFAdapter interface {
	// DeriveKey derives a key from the input key material using the specified parameters
	// Returns the derived key or an error if derivation fails
	DeriveKey(ikm []byte, params *KDFParams) ([]byte, error)

	// Algorithm returns the KDF algorithm this adapter implements
	Algorithm() KDFAlgorithm

	// ValidateParams validates the KDF parameters for this algorithm
	// Returns an error if parameters are invalid or incompatible
	ValidateParams(params *KDFParams) error
}

// ParamsProvider is implemented by adapters that choose their own
// derivation parameters instead of the keychain defaults.
type ParamsProvider interface {
	// Params returns the parameters the adapter derives with. Salt is
	// ignored; callers set it per derivation.
	Params() *KDFParams
}

// ParamsFor returns the parameters to derive with through adapter: the
// adapter's own when it implements ParamsProvider, otherwise the PBKDF2
// defaults tagged with the adapter's algorithm. The result is a copy.
func ParamsFor(adapter KDFAdapter) *KDFParams {
	if p, ok := adapter.(ParamsProvider); ok {
		if params := p.Params(); params != nil {
			out := *params
			out.Salt = nil
			return &out
		}
	}
	params := DefaultParams(AlgorithmPBKDF2)
	params.Algorithm = adapter.Algorithm()
	return params
}

// Common errors
var (
	// ErrInvalidSalt indicates the salt is invalid (nil, empty, or too short)
	ErrInvalidSalt = errors.New("kdf: invalid salt")

	// ErrInvalidKeyLength indicates the requested key length is invalid
	ErrInvalidKeyLength = errors.New("kdf: invalid key length")

	// ErrInvalidIterations indicates the iteration count is invalid
	ErrInvalidIterations = errors.New("kdf: invalid iterations")

	// ErrInvalidHash indicates the hash function is invalid or not supported
	ErrInvalidHash = errors.New("kdf: invalid or unsupported hash function")

	// ErrInvalidParams indicates the parameters are missing
	ErrInvalidParams = errors.New("kdf: missing parameters")

	// ErrUnsupportedAlgorithm indicates the algorithm is not supported by this adapter
	ErrUnsupportedAlgorithm = errors.New("kdf: unsupported algorithm")
)

// DefaultPBKDF2Iterations is the iteration count used for keychain master
// keys. It is part of the serialized format: dumps do not record it, so
// changing it makes existing dumps unreadable.
const DefaultPBKDF2Iterations = 100000

// DefaultParams returns the parameters used to stretch a keychain password.
// The returned params carry no salt; callers set Salt before deriving.
func DefaultParams(algorithm KDFAlgorithm) *KDFParams {
	switch algorithm {
	case AlgorithmPBKDF2:
		return &KDFParams{
			Algorithm:  AlgorithmPBKDF2,
			Iterations: DefaultPBKDF2Iterations,
			KeyLength:  32,
			Hash:       crypto.SHA256,
		}
	default:
		return nil
	}
}
