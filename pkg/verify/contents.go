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
	"fmt"
	"io"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
)

// checkContents streams the entry's content, recomputes its digest with
// the algorithm named by the recorded digest, and compares the result.
// A mismatch returns a *CorruptionError; any streaming or store error is
// returned as-is and classified by the caller as a task failure.
func (v *Verifier) checkContents(ctx context.Context, src store.Store, info *store.EntryInfo) error {
	sink, err := digest.NewSink(info.Digest.Algorithm)
	if err != nil {
		return fmt.Errorf("verify: digest algorithm for %q: %w", info.ID, err)
	}

	rc, err := src.StreamContent(ctx, info.ID)
	if err != nil {
		return fmt.Errorf("verify: streaming content of %q: %w", info.ID, err)
	}
	defer rc.Close()

	if _, err := io.Copy(sink, rc); err != nil {
		return fmt.Errorf("verify: reading content of %q: %w", info.ID, err)
	}

	actual, _ := sink.Finish()
	if !actual.Equal(info.Digest) {
		return &CorruptionError{ID: info.ID, Expected: info.Digest, Actual: actual}
	}
	return nil
}
