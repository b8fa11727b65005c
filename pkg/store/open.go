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

package store

import (
	"fmt"
	"strings"
)

// Open opens a store by URI. Supported forms:
//
//	/path/to/store          local store (read-only)
//	file:///path/to/store   local store (read-only)
//	http://host[:port]      remote store over the JSON API
//	https://host[:port]     remote store over the JSON API
//
// Substituters opened this way are always read-only; use OpenLocal for
// a writable local store.
func Open(uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return OpenHTTP(uri, nil)
	case strings.HasPrefix(uri, "file://"):
		return OpenLocalReadOnly(strings.TrimPrefix(uri, "file://"))
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, uri)
	case uri == "":
		return nil, fmt.Errorf("%w: empty URI", ErrUnsupportedScheme)
	default:
		return OpenLocalReadOnly(uri)
	}
}
