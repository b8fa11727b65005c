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

// Package verify implements the concurrent store verification engine:
// a bounded worker pool that recomputes content digests against recorded
// digests and resolves trust through a multi-source signature quorum.
package verify

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-nixstore/pkg/logging"
	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
)

// Config controls a verification run.
type Config struct {
	// NoContents skips the content digest check.
	NoContents bool

	// NoTrust skips trust resolution.
	NoTrust bool

	// SigsNeeded is the required number of distinct valid signatures.
	// Zero means the default minimum of one, and leaves ultimate
	// entries implicitly trusted.
	SigsNeeded int

	// Workers bounds the number of concurrent verification tasks.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Substituters are opened peer stores consulted, in order, for
	// additional signatures. The caller owns their lifetime.
	Substituters []store.Store

	// TrustedKeys is the key set signatures are verified against.
	TrustedKeys signature.PublicKeys

	// Logger receives per-entry problems as they are discovered.
	// Defaults to logging.DefaultLogger().
	Logger *logging.Logger

	// StatusWriter, if non-nil, receives the live status line.
	StatusWriter io.Writer
}

// Verifier runs verification tasks against one store.
type Verifier struct {
	store  store.Store
	cfg    Config
	logger *logging.Logger
}

// New creates a Verifier for the given store.
func New(s store.Store, cfg Config) *Verifier {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Verifier{store: s, cfg: cfg, logger: logger}
}

// Run verifies the given entries and blocks until every entry has been
// processed or ctx is cancelled. Per-entry problems never abort the run;
// they are counted in the returned RunStatus. The returned error is
// non-nil only for cancellation.
func (v *Verifier) Run(ctx context.Context, ids []string) (*RunStatus, error) {
	status := NewRunStatus(len(ids), v.cfg.StatusWriter)
	runLog := v.logger.With("run_id", uuid.NewString())

	runLog.Info("verification started",
		"entries", len(ids),
		"workers", v.cfg.Workers,
		"substituters", len(v.cfg.Substituters),
		"sigs_needed", v.cfg.SigsNeeded)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < v.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				// Observe cancellation at the task boundary; the
				// remaining queue is never dispatched anyway.
				if ctx.Err() != nil {
					return
				}
				v.verifyEntry(ctx, runLog, status, id)
			}
		}()
	}

dispatch:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		runLog.Warn("verification cancelled", "completed", status.Completed())
		return status, err
	}

	status.render(true)
	runLog.Info("verification finished", "summary", status.Summary())
	return status, nil
}

// RunStore verifies every valid entry in the store.
func (v *Verifier) RunStore(ctx context.Context) (*RunStatus, error) {
	ids, err := v.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return v.Run(ctx, ids)
}

// verifyEntry performs the full per-entry verification inside a single
// failure boundary: any unexpected error marks the task failed without
// affecting other tasks.
func (v *Verifier) verifyEntry(ctx context.Context, runLog *logging.Logger, status *RunStatus, id string) {
	start := time.Now()
	defer func() {
		entryDuration.Observe(time.Since(start).Seconds())
	}()

	runLog.Debug("checking entry", "entry", id)

	info, err := v.store.QueryMetadata(ctx, id)
	if err != nil {
		runLog.Error("entry verification failed", "entry", id, "error", err)
		status.recordFailure()
		entriesVerified.WithLabelValues(outcomeFailed).Inc()
		return
	}

	var corrupted, untrusted bool

	if !v.cfg.NoContents {
		err := v.checkContents(ctx, v.store, info)
		var corruption *CorruptionError
		switch {
		case errors.As(err, &corruption):
			corrupted = true
			runLog.Error("entry was modified",
				"entry", id,
				"expected", corruption.Expected.String(),
				"actual", corruption.Actual.String())
		case err != nil:
			runLog.Error("entry verification failed", "entry", id, "error", err)
			status.recordFailure()
			entriesVerified.WithLabelValues(outcomeFailed).Inc()
			return
		}
	}

	if !v.cfg.NoTrust {
		if !v.resolveTrust(ctx, info) {
			untrusted = true
			runLog.Error("entry is untrusted", "entry", id)
		}
	}

	status.recordResult(corrupted, untrusted)
	entriesVerified.WithLabelValues(outcomeLabel(corrupted, untrusted)).Inc()
}
