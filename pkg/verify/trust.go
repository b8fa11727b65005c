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

	"github.com/jeremyhahn/go-nixstore/pkg/store"
)

// resolveTrust decides whether the entry is trusted.
//
// An ultimate entry is trusted outright unless the operator demanded an
// explicit signature count. Otherwise at least max(SigsNeeded, 1)
// distinct valid signatures must be assembled from the entry's own
// signature set and, in caller order, the configured substituters.
// Substituter failures are logged and skipped; they never fail the
// entry's task.
func (v *Verifier) resolveTrust(ctx context.Context, info *store.EntryInfo) bool {
	if info.Ultimate && v.cfg.SigsNeeded == 0 {
		return true
	}

	needed := v.cfg.SigsNeeded
	if needed == 0 {
		needed = 1
	}

	// Signatures are counted once per entry no matter how many sources
	// carry them.
	seen := make(map[string]struct{})
	valid := 0
	countSigs := func(sigs []string) {
		for _, sig := range sigs {
			if _, ok := seen[sig]; ok {
				continue
			}
			seen[sig] = struct{}{}
			if info.CheckSignature(v.cfg.TrustedKeys, sig) {
				valid++
			}
		}
	}

	countSigs(info.Sigs)

	for _, peer := range v.cfg.Substituters {
		if valid >= needed {
			break
		}

		ok, err := peer.Exists(ctx, info.ID)
		if err != nil {
			v.logger.Error("substituter unreachable",
				"substituter", peer.URI(), "entry", info.ID, "error", err)
			peerQueries.WithLabelValues(peerResultError).Inc()
			continue
		}
		if !ok {
			peerQueries.WithLabelValues(peerResultMiss).Inc()
			continue
		}

		peerInfo, err := peer.QueryMetadata(ctx, info.ID)
		if err != nil {
			v.logger.Error("substituter metadata query failed",
				"substituter", peer.URI(), "entry", info.ID, "error", err)
			peerQueries.WithLabelValues(peerResultError).Inc()
			continue
		}
		peerQueries.WithLabelValues(peerResultHit).Inc()
		countSigs(peerInfo.Sigs)
	}

	return valid >= needed
}
