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

package digest

import "errors"

var (
	// ErrUnknownAlgorithm indicates an algorithm tag with no registered hasher.
	ErrUnknownAlgorithm = errors.New("digest: unknown algorithm")

	// ErrMalformedDigest indicates a digest string that is not "algorithm:hex".
	ErrMalformedDigest = errors.New("digest: malformed digest string")
)
