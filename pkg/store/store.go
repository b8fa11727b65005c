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

// Package store provides the content-addressed store abstraction: a local
// Pebble-backed store, a remote HTTP store used for substituters, and an
// in-memory store for tests. All implementations must be safe for
// concurrent readers.
package store

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"gopkg.in/yaml.v3"
)

// EntryInfo is the metadata recorded for one store entry.
type EntryInfo struct {
	// ID is the entry's key in the store (a store path basename).
	ID string

	// Digest is the content digest recorded when the entry was added.
	Digest digest.Digest

	// Size is the content size in bytes.
	Size int64

	// Ultimate marks an entry that was produced locally and is
	// implicitly trusted.
	Ultimate bool

	// Sigs is the set of detached signatures attached to the entry.
	Sigs []string

	// References lists the ids of entries this entry depends on.
	References []string

	// Deriver records the build recipe that produced the entry, if known.
	Deriver string
}

// Fingerprint returns the canonical string that signatures over this
// entry attest to.
func (i *EntryInfo) Fingerprint() string {
	return signature.Fingerprint(i.ID, i.Digest, i.Size, i.References)
}

// CheckSignature reports whether sig is a valid signature for this entry
// under the given trusted key set.
func (i *EntryInfo) CheckSignature(keys signature.PublicKeys, sig string) bool {
	return keys.Verify(sig, i.Fingerprint())
}

// entryInfoWire is the serialized form of EntryInfo shared by the local
// store's metadata records (YAML) and the HTTP store API (JSON).
type entryInfoWire struct {
	ID         string   `json:"id" yaml:"id"`
	Digest     string   `json:"digest" yaml:"digest"`
	Size       int64    `json:"size" yaml:"size"`
	Ultimate   bool     `json:"ultimate,omitempty" yaml:"ultimate,omitempty"`
	Sigs       []string `json:"sigs,omitempty" yaml:"sigs,omitempty"`
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
	Deriver    string   `json:"deriver,omitempty" yaml:"deriver,omitempty"`
}

func (i *EntryInfo) toWire() entryInfoWire {
	return entryInfoWire{
		ID:         i.ID,
		Digest:     i.Digest.String(),
		Size:       i.Size,
		Ultimate:   i.Ultimate,
		Sigs:       i.Sigs,
		References: i.References,
		Deriver:    i.Deriver,
	}
}

func (i *EntryInfo) fromWire(w entryInfoWire) error {
	d, err := digest.Parse(w.Digest)
	if err != nil {
		return err
	}
	i.ID = w.ID
	i.Digest = d
	i.Size = w.Size
	i.Ultimate = w.Ultimate
	i.Sigs = w.Sigs
	i.References = w.References
	i.Deriver = w.Deriver
	return nil
}

// MarshalJSON implements json.Marshaler.
func (i EntryInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *EntryInfo) UnmarshalJSON(data []byte) error {
	var w entryInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return i.fromWire(w)
}

// MarshalYAML implements yaml.Marshaler.
func (i EntryInfo) MarshalYAML() (interface{}, error) {
	return i.toWire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *EntryInfo) UnmarshalYAML(value *yaml.Node) error {
	var w entryInfoWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	return i.fromWire(w)
}

// Store is the read side of a content-addressed store. Local stores,
// remote substituters and the in-memory test store all implement it.
type Store interface {
	// URI returns the address the store was opened with.
	URI() string

	// QueryMetadata returns the metadata for the given entry.
	// Returns ErrNotFound if the entry does not exist.
	QueryMetadata(ctx context.Context, id string) (*EntryInfo, error)

	// StreamContent opens a streaming read of the entry's full content.
	// The caller must close the returned reader.
	StreamContent(ctx context.Context, id string) (io.ReadCloser, error)

	// Exists reports whether the store holds a valid entry with the
	// given id. This is the cheap existence check substituters answer
	// before a signature fetch.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns the ids of all valid entries in the store.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// WritableStore is a store that accepts new entries and signatures.
// Substituters are never writable from this side.
type WritableStore interface {
	Store

	// AddEntry ingests content, computes its digest with the given
	// algorithm and records the entry metadata.
	AddEntry(ctx context.Context, id string, content io.Reader, opts *AddOptions) (*EntryInfo, error)

	// AddSignatures appends signatures to an existing entry,
	// ignoring any it already carries.
	AddSignatures(ctx context.Context, id string, sigs []string) error
}

// AddOptions controls entry ingestion.
type AddOptions struct {
	// Algorithm selects the digest algorithm. Defaults to sha256.
	Algorithm digest.Algorithm

	// Ultimate marks the entry as locally produced and implicitly trusted.
	Ultimate bool

	// References lists the entry's dependencies.
	References []string

	// Deriver records the recipe that produced the entry.
	Deriver string
}
