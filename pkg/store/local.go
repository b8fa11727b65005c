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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/jeremyhahn/go-nixstore/pkg/digest"
	"gopkg.in/yaml.v3"
)

const (
	// metaDirName is the subdirectory holding the Pebble metadata database.
	metaDirName = ".meta"

	// contentDirName is the subdirectory holding entry content files.
	contentDirName = "content"

	// entryKeyPrefix namespaces entry metadata records in the database.
	entryKeyPrefix = "entry/"
)

// LocalStore is a content-addressed store on the local filesystem.
// Entry metadata lives in a Pebble key-value database, content in flat
// files under the store directory. Safe for concurrent readers; writes
// are serialized by an internal mutex.
type LocalStore struct {
	root     string
	db       *pebble.DB
	readOnly bool

	mu     sync.Mutex
	closed bool
}

// OpenLocal opens (creating if necessary) a local store rooted at dir.
func OpenLocal(dir string) (*LocalStore, error) {
	return openLocal(dir, false)
}

// OpenLocalReadOnly opens a local store for querying only. Used when a
// local path is configured as a substituter.
func OpenLocalReadOnly(dir string) (*LocalStore, error) {
	return openLocal(dir, true)
}

func openLocal(dir string, readOnly bool) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, contentDirName), 0755); err != nil {
		return nil, fmt.Errorf("store: creating store directory: %w", err)
	}
	opts := &pebble.Options{
		Cache:        pebble.NewCache(8 << 20),
		MemTableSize: 4 << 20,
		ReadOnly:     readOnly,
	}
	db, err := pebble.Open(filepath.Join(dir, metaDirName), opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening metadata database: %w", err)
	}
	return &LocalStore{root: dir, db: db, readOnly: readOnly}, nil
}

// URI returns the store's root directory path.
func (s *LocalStore) URI() string {
	return s.root
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return ErrInvalidID
	}
	return nil
}

func entryKey(id string) []byte {
	return []byte(entryKeyPrefix + id)
}

// QueryMetadata returns the metadata record for the given entry.
func (s *LocalStore) QueryMetadata(ctx context.Context, id string) (*EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get(entryKey(id))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading metadata for %q: %w", id, err)
	}
	defer closer.Close()

	var info EntryInfo
	if err := yaml.Unmarshal(value, &info); err != nil {
		return nil, fmt.Errorf("store: decoding metadata for %q: %w", id, err)
	}
	return &info, nil
}

// StreamContent opens the entry's content file for reading.
func (s *LocalStore) StreamContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	f, err := os.Open(s.contentPath(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: opening content for %q: %w", id, err)
	}
	return f, nil
}

// Exists reports whether a metadata record exists for the given entry.
func (s *LocalStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateID(id); err != nil {
		return false, err
	}

	_, closer, err := s.db.Get(entryKey(id))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: checking %q: %w", id, err)
	}
	closer.Close()
	return true, nil
}

// List returns the ids of all entries in the store in lexicographic order.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryKeyPrefix),
		UpperBound: []byte(entryKeyPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("store: listing entries: %w", err)
	}
	defer iter.Close()

	var ids []string
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, strings.TrimPrefix(string(iter.Key()), entryKeyPrefix))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("store: listing entries: %w", err)
	}
	return ids, nil
}

// AddEntry ingests content, computing its digest while writing the
// content file, then records the entry metadata.
func (s *LocalStore) AddEntry(ctx context.Context, id string, content io.Reader, opts *AddOptions) (*EntryInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.readOnly {
		return nil, ErrReadOnly
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

	exists, err := s.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}

	sink, err := digest.NewSink(algorithm)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(s.contentPath(id), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0444)
	if err != nil {
		return nil, fmt.Errorf("store: creating content file for %q: %w", id, err)
	}
	if _, err := io.Copy(io.MultiWriter(f, sink), content); err != nil {
		f.Close()
		os.Remove(s.contentPath(id))
		return nil, fmt.Errorf("store: writing content for %q: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("store: closing content file for %q: %w", id, err)
	}

	d, size := sink.Finish()
	info := &EntryInfo{
		ID:         id,
		Digest:     d,
		Size:       size,
		Ultimate:   opts.Ultimate,
		References: opts.References,
		Deriver:    opts.Deriver,
	}
	if err := s.putInfo(info); err != nil {
		os.Remove(s.contentPath(id))
		return nil, err
	}
	return info, nil
}

// AddSignatures appends signatures to an existing entry, skipping any
// the entry already carries.
func (s *LocalStore) AddSignatures(ctx context.Context, id string, sigs []string) error {
	if s.readOnly {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.QueryMetadata(ctx, id)
	if err != nil {
		return err
	}

	have := make(map[string]struct{}, len(info.Sigs))
	for _, sig := range info.Sigs {
		have[sig] = struct{}{}
	}
	for _, sig := range sigs {
		if _, ok := have[sig]; ok {
			continue
		}
		have[sig] = struct{}{}
		info.Sigs = append(info.Sigs, sig)
	}
	return s.putInfo(info)
}

func (s *LocalStore) putInfo(info *EntryInfo) error {
	record, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("store: encoding metadata for %q: %w", info.ID, err)
	}
	if err := s.db.Set(entryKey(info.ID), record, pebble.Sync); err != nil {
		return fmt.Errorf("store: writing metadata for %q: %w", info.ID, err)
	}
	return nil
}

func (s *LocalStore) contentPath(id string) string {
	return filepath.Join(s.root, contentDirName, id)
}

// Close closes the metadata database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
