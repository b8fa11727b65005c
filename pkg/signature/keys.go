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

package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// PublicKey is a named ed25519 verification key.
type PublicKey struct {
	Name string
	Key  ed25519.PublicKey
}

// ParsePublicKey parses the "name:base64" text form of a public key.
func ParsePublicKey(s string) (PublicKey, error) {
	name, b64, found := strings.Cut(s, ":")
	if !found || name == "" {
		return PublicKey{}, ErrMalformedPublicKey
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, ErrMalformedPublicKey
	}
	return PublicKey{Name: name, Key: ed25519.PublicKey(raw)}, nil
}

// String renders the public key in its "name:base64" text form.
func (pk PublicKey) String() string {
	return pk.Name + ":" + base64.StdEncoding.EncodeToString(pk.Key)
}

// PublicKeys is a trusted key set indexed by key name.
type PublicKeys map[string]PublicKey

// ParsePublicKeys parses a list of "name:base64" key strings into a key set.
func ParsePublicKeys(keys []string) (PublicKeys, error) {
	set := make(PublicKeys, len(keys))
	for _, k := range keys {
		pk, err := ParsePublicKey(k)
		if err != nil {
			return nil, err
		}
		set[pk.Name] = pk
	}
	return set, nil
}

// Verify reports whether sig is a valid signature over fingerprint by a
// key in the set. Malformed signatures and unknown key names verify false.
func (keys PublicKeys) Verify(sig, fingerprint string) bool {
	parsed, err := ParseSignature(sig)
	if err != nil {
		return false
	}
	pk, ok := keys[parsed.KeyName]
	if !ok {
		return false
	}
	return ed25519.Verify(pk.Key, []byte(fingerprint), parsed.Bytes)
}

// SecretKey is a named ed25519 signing key.
type SecretKey struct {
	Name string
	Key  ed25519.PrivateKey
}

// GenerateKey creates a new named ed25519 keypair.
func GenerateKey(name string) (SecretKey, PublicKey, error) {
	if name == "" {
		return SecretKey{}, PublicKey{}, ErrEmptyKeyName
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	return SecretKey{Name: name, Key: priv}, PublicKey{Name: name, Key: pub}, nil
}

// ParseSecretKey parses the "name:base64" text form of a secret key.
func ParseSecretKey(s string) (SecretKey, error) {
	name, b64, found := strings.Cut(s, ":")
	if !found || name == "" {
		return SecretKey{}, ErrMalformedSecretKey
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return SecretKey{}, ErrMalformedSecretKey
	}
	return SecretKey{Name: name, Key: ed25519.PrivateKey(raw)}, nil
}

// String renders the secret key in its "name:base64" text form.
func (sk SecretKey) String() string {
	return sk.Name + ":" + base64.StdEncoding.EncodeToString(sk.Key)
}

// PublicKey derives the verification key for this signing key.
func (sk SecretKey) PublicKey() PublicKey {
	return PublicKey{Name: sk.Name, Key: sk.Key.Public().(ed25519.PublicKey)}
}

// Sign produces the "name:base64" signature over fingerprint.
func (sk SecretKey) Sign(fingerprint string) string {
	sig := ed25519.Sign(sk.Key, []byte(fingerprint))
	return sk.Name + ":" + base64.StdEncoding.EncodeToString(sig)
}
