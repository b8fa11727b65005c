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
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/jeremyhahn/go-nixstore/pkg/logging"
	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/stretchr/testify/require"
)

var errPeerDown = errors.New("substituter down")

// countingPeer wraps a store and counts consultations so early-stop
// behavior is observable.
type countingPeer struct {
	store.Store
	existsCalls atomic.Int32
	queryCalls  atomic.Int32
	unreachable bool
}

func (p *countingPeer) Exists(ctx context.Context, id string) (bool, error) {
	p.existsCalls.Add(1)
	if p.unreachable {
		return false, errPeerDown
	}
	return p.Store.Exists(ctx, id)
}

func (p *countingPeer) QueryMetadata(ctx context.Context, id string) (*store.EntryInfo, error) {
	p.queryCalls.Add(1)
	if p.unreachable {
		return nil, errPeerDown
	}
	return p.Store.QueryMetadata(ctx, id)
}

func (p *countingPeer) consulted() bool {
	return p.existsCalls.Load() > 0 || p.queryCalls.Load() > 0
}

func newTestKey(t *testing.T, name string) (signature.SecretKey, signature.PublicKey) {
	t.Helper()
	sk, pk, err := signature.GenerateKey(name)
	require.NoError(t, err)
	return sk, pk
}

func keySet(keys ...signature.PublicKey) signature.PublicKeys {
	set := make(signature.PublicKeys, len(keys))
	for _, k := range keys {
		set[k.Name] = k
	}
	return set
}

// addEntry adds content under id and returns its metadata.
func addEntry(t *testing.T, s *store.MemoryStore, id string, content []byte, opts *store.AddOptions) *store.EntryInfo {
	t.Helper()
	info, err := s.AddEntry(context.Background(), id, bytes.NewReader(content), opts)
	require.NoError(t, err)
	return info
}

// signEntry signs the entry in s with sk and attaches the signature.
func signEntry(t *testing.T, s *store.MemoryStore, id string, sk signature.SecretKey) string {
	t.Helper()
	ctx := context.Background()
	info, err := s.QueryMetadata(ctx, id)
	require.NoError(t, err)
	sig := sk.Sign(info.Fingerprint())
	require.NoError(t, s.AddSignatures(ctx, id, []string{sig}))
	return sig
}

// mirrorEntry copies an entry's content and metadata from src into dst
// so dst can serve as a substituter for it.
func mirrorEntry(t *testing.T, src, dst *store.MemoryStore, id string) {
	t.Helper()
	ctx := context.Background()
	info, err := src.QueryMetadata(ctx, id)
	require.NoError(t, err)
	rc, err := src.StreamContent(ctx, id)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	_, err = dst.AddEntry(ctx, id, bytes.NewReader(content), &store.AddOptions{
		Algorithm:  info.Digest.Algorithm,
		References: info.References,
	})
	require.NoError(t, err)
}

func quietLogger() *logging.Logger {
	return logging.NewLogger(&logging.Options{Level: "error", Output: io.Discard})
}
