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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// metricNamespace is the Prometheus namespace for all store metrics.
	metricNamespace = "nixstore"

	// Label names
	labelOutcome = "outcome"
	labelResult  = "result"

	// Outcome values
	outcomeOK        = "ok"
	outcomeCorrupted = "corrupted"
	outcomeUntrusted = "untrusted"
	outcomeFailed    = "failed"

	// Peer query results
	peerResultHit   = "hit"
	peerResultMiss  = "miss"
	peerResultError = "error"
)

var (
	// entriesVerified counts verified entries by outcome. An entry that
	// is both corrupted and untrusted is counted under the combined
	// outcome "corrupted,untrusted".
	entriesVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "verify_entries_total",
			Help:      "Total number of entries verified, by outcome",
		},
		[]string{labelOutcome},
	)

	// entryDuration tracks per-entry verification latency. Buckets cover
	// in-memory checks through slow substituter round-trips.
	entryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Name:      "verify_duration_seconds",
			Help:      "Duration of per-entry verification in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 60},
		},
	)

	// peerQueries counts substituter consultations during trust
	// resolution, by result.
	peerQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "verify_peer_queries_total",
			Help:      "Total number of substituter queries during trust resolution, by result",
		},
		[]string{labelResult},
	)
)

func outcomeLabel(corrupted, untrusted bool) string {
	switch {
	case corrupted && untrusted:
		return outcomeCorrupted + "," + outcomeUntrusted
	case corrupted:
		return outcomeCorrupted
	case untrusted:
		return outcomeUntrusted
	default:
		return outcomeOK
	}
}
