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
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EndToEnd(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	sk1, pk1 := newTestKey(t, "k1")
	sk2, pk2 := newTestKey(t, "k2")

	// Entry 1: clean, trusted with two signatures.
	addEntry(t, s, "clean", []byte("clean content"), nil)
	signEntry(t, s, "clean", sk1)
	signEntry(t, s, "clean", sk2)

	// Entry 2: tampered content, but trusted.
	addEntry(t, s, "tampered", []byte("original"), nil)
	signEntry(t, s, "tampered", sk1)
	signEntry(t, s, "tampered", sk2)
	s.CorruptContent("tampered", []byte("evil twin"))

	// Entry 3: needs 2 signatures, has 1, and both peers are down.
	addEntry(t, s, "short-quorum", []byte("content"), nil)
	signEntry(t, s, "short-quorum", sk1)

	down1 := &countingPeer{Store: store.NewMemoryStore(), unreachable: true}
	down2 := &countingPeer{Store: store.NewMemoryStore(), unreachable: true}

	v := New(s, Config{
		SigsNeeded:   2,
		Substituters: []store.Store{down1, down2},
		TrustedKeys:  keySet(pk1, pk2),
		Workers:      2,
		Logger:       quietLogger(),
	})

	status, err := v.Run(ctx, []string{"clean", "tampered", "short-quorum"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), status.Completed())
	assert.Equal(t, int64(1), status.Corrupted())
	assert.Equal(t, int64(1), status.Untrusted())
	assert.Equal(t, int64(0), status.Failed(), "peer failures must not fail the task")
	assert.Equal(t, ExitCorrupted|ExitUntrusted, status.ExitCode())
}

func TestRun_MixedOutcomes(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	sk, pk := newTestKey(t, "k1")

	addEntry(t, s, "clean", []byte("clean"), nil)
	signEntry(t, s, "clean", sk)

	addEntry(t, s, "tampered", []byte("original"), nil)
	signEntry(t, s, "tampered", sk)
	s.CorruptContent("tampered", []byte("modified"))

	addEntry(t, s, "untrusted", []byte("unsigned"), nil)

	v := New(s, Config{
		TrustedKeys: keySet(pk),
		Workers:     4,
		Logger:      quietLogger(),
	})
	status, err := v.Run(ctx, []string{"clean", "tampered", "untrusted", "missing"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), status.Completed())
	assert.Equal(t, int64(1), status.Corrupted())
	assert.Equal(t, int64(1), status.Untrusted())
	assert.Equal(t, int64(1), status.Failed(), "missing entry is a task failure")
	assert.Equal(t, ExitCorrupted|ExitUntrusted|ExitFailed, status.ExitCode())
}

func TestRun_SkipFlags(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	// Tampered and unsigned: both checks would flag it.
	addEntry(t, s, "entry", []byte("original"), nil)
	s.CorruptContent("entry", []byte("modified"))

	v := New(s, Config{NoContents: true, NoTrust: true, Logger: quietLogger()})
	status, err := v.Run(ctx, []string{"entry"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), status.Completed())
	assert.Equal(t, 0, status.ExitCode())
}

func TestRun_NoTrustSkipsPeers(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()

	addEntry(t, s, "entry", []byte("content"), nil)
	peer := &countingPeer{Store: store.NewMemoryStore()}

	v := New(s, Config{
		NoTrust:      true,
		Substituters: []store.Store{peer},
		Logger:       quietLogger(),
	})
	status, err := v.Run(context.Background(), []string{"entry"})
	require.NoError(t, err)

	assert.Equal(t, 0, status.ExitCode())
	assert.False(t, peer.consulted())
}

func TestRunStore_VerifiesAllEntries(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()

	for _, id := range []string{"a", "b", "c"} {
		addEntry(t, s, id, []byte(id), &store.AddOptions{Ultimate: true})
	}

	v := New(s, Config{Logger: quietLogger()})
	status, err := v.RunStore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, status.Total())
	assert.Equal(t, int64(3), status.Completed())
	assert.Equal(t, 0, status.ExitCode())
}

// gateStore blocks metadata queries until released, so cancellation can
// be signalled while tasks are in flight.
type gateStore struct {
	*store.MemoryStore
	started chan struct{}
	queries atomic.Int32
}

func (g *gateStore) QueryMetadata(ctx context.Context, id string) (*store.EntryInfo, error) {
	g.queries.Add(1)
	select {
	case g.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRun_Cancellation(t *testing.T) {
	mem := store.NewMemoryStore()
	defer func() { _ = mem.Close() }()

	const n = 16
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + "-entry"
		addEntry(t, mem, id, []byte(id), &store.AddOptions{Ultimate: true})
		ids = append(ids, id)
	}

	gate := &gateStore{MemoryStore: mem, started: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := New(gate, Config{Workers: 2, Logger: quietLogger()})

	done := make(chan struct{})
	var status *RunStatus
	var runErr error
	go func() {
		defer close(done)
		status, runErr = v.Run(ctx, ids)
	}()

	// Wait for the first task to start, then cancel.
	select {
	case <-gate.started:
	case <-time.After(5 * time.Second):
		t.Fatal("no task started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	require.ErrorIs(t, runErr, context.Canceled)
	assert.Less(t, status.Completed()+status.Failed(), int64(n),
		"cancellation must stop dispatching new tasks")
	assert.Less(t, gate.queries.Load(), int32(n))
}

func TestNew_Defaults(t *testing.T) {
	s := store.NewMemoryStore()
	defer func() { _ = s.Close() }()

	v := New(s, Config{})
	assert.Greater(t, v.cfg.Workers, 0)
	assert.NotNil(t, v.logger)
}
