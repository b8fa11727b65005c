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

import "errors"

var (
	// ErrNotFound indicates the entry does not exist in the store.
	ErrNotFound = errors.New("store: entry not found")

	// ErrClosed indicates an operation on a closed store.
	ErrClosed = errors.New("store: store is closed")

	// ErrExists indicates an attempt to add an entry that already exists.
	ErrExists = errors.New("store: entry already exists")

	// ErrInvalidID indicates an entry id that is empty or escapes the
	// store namespace.
	ErrInvalidID = errors.New("store: invalid entry id")

	// ErrUnsupportedScheme indicates a store URI with no registered opener.
	ErrUnsupportedScheme = errors.New("store: unsupported store URI scheme")

	// ErrReadOnly indicates a write operation on a read-only store.
	ErrReadOnly = errors.New("store: store is read-only")
)
