// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-nixstore.
//
// go-nixstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package digest provides the content digest primitive used by the store.
// A digest is an algorithm tag plus the raw hash bytes, rendered in text
// form as "algorithm:hex".
package digest

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm identifies a supported hash algorithm.
type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	SHA512  Algorithm = "sha512"
	BLAKE2b Algorithm = "blake2b"
	BLAKE3  Algorithm = "blake3"
)

// Supported reports whether the algorithm has a registered hasher.
func (a Algorithm) Supported() bool {
	switch a {
	case SHA256, SHA512, BLAKE2b, BLAKE3:
		return true
	}
	return false
}

// Digest is a content digest: the algorithm that produced it plus the
// raw hash bytes.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// Parse parses the "algorithm:hex" text form of a digest.
func Parse(s string) (Digest, error) {
	algo, sum, found := strings.Cut(s, ":")
	if !found {
		return Digest{}, ErrMalformedDigest
	}
	a := Algorithm(algo)
	if !a.Supported() {
		return Digest{}, ErrUnknownAlgorithm
	}
	raw, err := hex.DecodeString(sum)
	if err != nil || len(raw) == 0 {
		return Digest{}, ErrMalformedDigest
	}
	return Digest{Algorithm: a, Sum: raw}, nil
}

// String renders the digest in its "algorithm:hex" text form.
func (d Digest) String() string {
	return string(d.Algorithm) + ":" + hex.EncodeToString(d.Sum)
}

// Equal reports whether two digests have the same algorithm and value.
func (d Digest) Equal(other Digest) bool {
	return d.Algorithm == other.Algorithm && bytes.Equal(d.Sum, other.Sum)
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	return d.Algorithm == "" && len(d.Sum) == 0
}

// NewHasher returns a new hash.Hash for the given algorithm.
func NewHasher(a Algorithm) (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	case BLAKE3:
		return blake3.New(), nil
	}
	return nil, ErrUnknownAlgorithm
}

// Sink is a streaming digest accumulator. Content is written through it
// and Finish returns the resulting Digest along with the byte count.
type Sink struct {
	algorithm Algorithm
	hasher    hash.Hash
	written   int64
}

// NewSink creates a Sink for the given algorithm.
func NewSink(a Algorithm) (*Sink, error) {
	h, err := NewHasher(a)
	if err != nil {
		return nil, err
	}
	return &Sink{algorithm: a, hasher: h}, nil
}

// Write feeds content bytes into the digest.
func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.hasher.Write(p)
	s.written += int64(n)
	return n, err
}

// Finish finalizes the digest and returns it with the number of bytes written.
func (s *Sink) Finish() (Digest, int64) {
	return Digest{Algorithm: s.algorithm, Sum: s.hasher.Sum(nil)}, s.written
}
