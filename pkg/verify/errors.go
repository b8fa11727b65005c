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
	"fmt"

	"github.com/jeremyhahn/go-nixstore/pkg/digest"
)

// CorruptionError reports a digest mismatch between an entry's recorded
// digest and the digest recomputed from its content.
type CorruptionError struct {
	ID       string
	Expected digest.Digest
	Actual   digest.Digest
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	return fmt.Sprintf("verify: entry %q was modified! expected digest %s, got %s",
		e.ID, e.Expected, e.Actual)
}
