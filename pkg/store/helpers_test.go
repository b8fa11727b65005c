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
	"testing"

	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T, name string) (signature.SecretKey, signature.PublicKey) {
	t.Helper()
	sk, pk, err := signature.GenerateKey(name)
	require.NoError(t, err)
	return sk, pk
}

func testKeySet(keys ...signature.PublicKey) signature.PublicKeys {
	set := make(signature.PublicKeys, len(keys))
	for _, k := range keys {
		set[k.Name] = k
	}
	return set
}
