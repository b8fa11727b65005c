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
	"sort"
	"sync"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
)

// MemoryStore is an in-memory store implementation. Useful for testing
// and ephemeral workloads. Thread-safe using a read-write mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	closed  bool
}

type memoryEntry struct {
	info    EntryInfo
	content []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// URI identifies the store in logs and errors.
func (s *MemoryStore) URI() string {
	return "memory://"
}

// QueryMetadata returns a copy of the entry's metadata.
func (s *MemoryStore) QueryMetadata(ctx context.Context, id string) (*EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}

	info := e.info
	info.Sigs = append([]string(nil), e.info.Sigs...)
	info.References = append([]string(nil), e.info.References...)
	return &info, nil
}

// StreamContent returns a reader over a copy of the entry's content.
func (s *MemoryStore) StreamContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(e.content)), nil
}

// Exists reports whether the entry is present.
func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.entries[id]
	return ok, nil
}

// List returns all entry ids in lexicographic order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// AddEntry ingests content and records the entry metadata.
func (s *MemoryStore) AddEntry(ctx context.Context, id string, content io.Reader, opts *AddOptions) (*EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &AddOptions{}
	}
	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = digest.SHA256
	}

	sink, err := digest.NewSink(algorithm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, sink), content); err != nil {
		return nil, err
	}
	d, size := sink.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.entries[id]; ok {
		return nil, ErrExists
	}

	info := EntryInfo{
		ID:         id,
		Digest:     d,
		Size:       size,
		Ultimate:   opts.Ultimate,
		References: append([]string(nil), opts.References...),
		Deriver:    opts.Deriver,
	}
	s.entries[id] = &memoryEntry{info: info, content: buf.Bytes()}

	result := info
	return &result, nil
}

// AddSignatures appends signatures to an existing entry, skipping duplicates.
func (s *MemoryStore) AddSignatures(ctx context.Context, id string, sigs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}

	have := make(map[string]struct{}, len(e.info.Sigs))
	for _, sig := range e.info.Sigs {
		have[sig] = struct{}{}
	}
	for _, sig := range sigs {
		if _, ok := have[sig]; ok {
			continue
		}
		have[sig] = struct{}{}
		e.info.Sigs = append(e.info.Sigs, sig)
	}
	return nil
}

// CorruptContent overwrites an entry's content without updating its
// recorded digest. Test hook for exercising corruption detection.
func (s *MemoryStore) CorruptContent(id string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.content = append([]byte(nil), content...)
	}
}

// SetUltimate toggles the entry's ultimate flag. Test hook.
func (s *MemoryStore) SetUltimate(id string, ultimate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		e.info.Ultimate = ultimate
	}
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
