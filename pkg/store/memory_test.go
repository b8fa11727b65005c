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
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AddAndQuery(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	content := []byte("hello store")
	info, err := s.AddEntry(ctx, "abc-hello", bytes.NewReader(content), &AddOptions{
		Ultimate:   true,
		References: []string{"dep-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-hello", info.ID)
	assert.Equal(t, digest.SHA256, info.Digest.Algorithm)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.True(t, info.Ultimate)

	got, err := s.QueryMetadata(ctx, "abc-hello")
	require.NoError(t, err)
	assert.True(t, info.Digest.Equal(got.Digest))
	assert.Equal(t, []string{"dep-1"}, got.References)

	rc, err := s.StreamContent(ctx, "abc-hello")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	_, err := s.QueryMetadata(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.StreamContent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_DuplicateAdd(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	_, err := s.AddEntry(ctx, "dup", bytes.NewReader([]byte("a")), nil)
	require.NoError(t, err)

	_, err = s.AddEntry(ctx, "dup", bytes.NewReader([]byte("b")), nil)
	assert.ErrorIs(t, err, ErrExists)
}

func TestMemoryStore_AddSignatures_Dedup(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	_, err := s.AddEntry(ctx, "signed", bytes.NewReader([]byte("x")), nil)
	require.NoError(t, err)

	require.NoError(t, s.AddSignatures(ctx, "signed", []string{"k1:sig", "k2:sig"}))
	require.NoError(t, s.AddSignatures(ctx, "signed", []string{"k1:sig", "k3:sig"}))

	info, err := s.QueryMetadata(ctx, "signed")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:sig", "k2:sig", "k3:sig"}, info.Sigs)
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	for _, id := range []string{"b-entry", "a-entry", "c-entry"} {
		_, err := s.AddEntry(ctx, id, bytes.NewReader([]byte(id)), nil)
		require.NoError(t, err)
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-entry", "b-entry", "c-entry"}, ids)
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, err := s.QueryMetadata(context.Background(), "any")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.QueryMetadata(ctx, "any")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntryInfo_CheckSignature(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	info, err := s.AddEntry(ctx, "signed", bytes.NewReader([]byte("content")), nil)
	require.NoError(t, err)

	sk, pk := generateTestKey(t, "unit-key")
	sig := sk.Sign(info.Fingerprint())
	require.NoError(t, s.AddSignatures(ctx, "signed", []string{sig}))

	got, err := s.QueryMetadata(ctx, "signed")
	require.NoError(t, err)

	keys := testKeySet(pk)
	assert.True(t, got.CheckSignature(keys, sig))
	assert.False(t, got.CheckSignature(keys, "unit-key:AAAA"))
}
