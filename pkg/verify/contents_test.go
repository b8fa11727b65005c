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

package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckContents_Match(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	info := addEntry(t, s, "clean", []byte("pristine content"), nil)

	v := New(s, Config{Logger: quietLogger()})
	assert.NoError(t, v.checkContents(context.Background(), s, info))
}

func TestCheckContents_Tampered(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	info := addEntry(t, s, "tampered", []byte("original content"), nil)
	s.CorruptContent("tampered", []byte("modified content"))

	v := New(s, Config{Logger: quietLogger()})
	err := v.checkContents(context.Background(), s, info)

	var corruption *CorruptionError
	require.ErrorAs(t, err, &corruption)
	assert.Equal(t, "tampered", corruption.ID)
	assert.True(t, corruption.Expected.Equal(info.Digest))
	assert.False(t, corruption.Actual.Equal(info.Digest))
	assert.Equal(t, info.Digest.Algorithm, corruption.Actual.Algorithm)
}

func TestCheckContents_AllAlgorithms(t *testing.T) {
	for _, a := range []digest.Algorithm{digest.SHA256, digest.SHA512, digest.BLAKE2b, digest.BLAKE3} {
		t.Run(string(a), func(t *testing.T) {
			s := store.NewMemoryStore()
			defer func() { _ = s.Close() }()
			info := addEntry(t, s, "entry", []byte("content"), &store.AddOptions{Algorithm: a})

			v := New(s, Config{Logger: quietLogger()})
			assert.NoError(t, v.checkContents(context.Background(), s, info))
		})
	}
}

func TestCheckContents_StreamFailure(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	info := addEntry(t, s, "entry", []byte("content"), nil)

	// Query a store that no longer has the content.
	other := store.NewMemoryStore()
	defer func() { _ = other.Close() }()

	v := New(other, Config{Logger: quietLogger()})
	err := v.checkContents(context.Background(), other, info)
	require.Error(t, err)

	var corruption *CorruptionError
	assert.False(t, errors.As(err, &corruption), "stream failure must not be reported as corruption")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
