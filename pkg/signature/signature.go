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

// Package signature implements the detached entry signatures used for
// store trust decisions. A signature is the text form
// "keyName:base64(ed25519(fingerprint))", where the fingerprint is a
// canonical string derived from the entry's identity, digest and size.
package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
)

// Signature is a parsed detached signature.
type Signature struct {
	// KeyName identifies the signing key, e.g. "cache.example.org-1".
	KeyName string

	// Bytes is the raw ed25519 signature.
	Bytes []byte
}

// ParseSignature parses the "keyName:base64" text form.
func ParseSignature(s string) (Signature, error) {
	name, b64, found := strings.Cut(s, ":")
	if !found || name == "" {
		return Signature{}, ErrMalformedSignature
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) != ed25519.SignatureSize {
		return Signature{}, ErrMalformedSignature
	}
	return Signature{KeyName: name, Bytes: raw}, nil
}

// Fingerprint returns the canonical string a signature attests to for a
// store entry. All stores must derive the identical fingerprint for the
// same entry or signatures cannot be shared between them.
func Fingerprint(id string, d digest.Digest, size int64, references []string) string {
	var b strings.Builder
	b.WriteString("1;")
	b.WriteString(id)
	b.WriteString(";")
	b.WriteString(d.String())
	b.WriteString(";")
	b.WriteString(strconv.FormatInt(size, 10))
	b.WriteString(";")
	b.WriteString(strings.Join(references, ","))
	return b.String()
}
