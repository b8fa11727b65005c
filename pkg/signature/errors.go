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

import "errors"

var (
	// ErrMalformedSignature indicates a signature string that is not
	// "keyName:base64" or whose payload has the wrong length.
	ErrMalformedSignature = errors.New("signature: malformed signature")

	// ErrMalformedPublicKey indicates an unparseable public key string.
	ErrMalformedPublicKey = errors.New("signature: malformed public key")

	// ErrMalformedSecretKey indicates an unparseable secret key string.
	ErrMalformedSecretKey = errors.New("signature: malformed secret key")

	// ErrEmptyKeyName indicates key generation was requested without a name.
	ErrEmptyKeyName = errors.New("signature: key name must not be empty")
)
