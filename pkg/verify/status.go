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
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Exit status bits. Independent failure classes combine by OR.
const (
	ExitCorrupted = 1 << 0
	ExitUntrusted = 1 << 1
	ExitFailed    = 1 << 2
)

// RunStatus aggregates per-entry outcomes across one verification run.
// Counters are monotonically non-decreasing for the run's duration and
// are only mutated through the record methods; workers never touch them
// directly.
type RunStatus struct {
	total     int
	completed atomic.Int64
	corrupted atomic.Int64
	untrusted atomic.Int64
	failed    atomic.Int64

	mu  sync.Mutex
	out io.Writer
}

// NewRunStatus creates the aggregator for a run over total entries.
// If out is non-nil, an incremental status line is rendered to it after
// every task completion.
func NewRunStatus(total int, out io.Writer) *RunStatus {
	return &RunStatus{total: total, out: out}
}

// recordResult records a completed (non-failed) task. A single task may
// flag both corruption and untrust.
func (s *RunStatus) recordResult(corrupted, untrusted bool) {
	if corrupted {
		s.corrupted.Add(1)
	}
	if untrusted {
		s.untrusted.Add(1)
	}
	s.completed.Add(1)
	s.render(false)
}

// recordFailure records a task that failed outright before completing
// its checks.
func (s *RunStatus) recordFailure() {
	s.failed.Add(1)
	s.render(false)
}

// Total returns the number of entries submitted to the run.
func (s *RunStatus) Total() int { return s.total }

// Completed returns the number of entries whose checks ran to completion.
func (s *RunStatus) Completed() int64 { return s.completed.Load() }

// Corrupted returns the number of entries with a digest mismatch.
func (s *RunStatus) Corrupted() int64 { return s.corrupted.Load() }

// Untrusted returns the number of entries that failed trust resolution.
func (s *RunStatus) Untrusted() int64 { return s.untrusted.Load() }

// Failed returns the number of entries whose verification task failed.
func (s *RunStatus) Failed() int64 { return s.failed.Load() }

// ExitCode derives the process exit status bitmask from the failure
// classes observed during the run.
func (s *RunStatus) ExitCode() int {
	code := 0
	if s.Corrupted() > 0 {
		code |= ExitCorrupted
	}
	if s.Untrusted() > 0 {
		code |= ExitUntrusted
	}
	if s.Failed() > 0 {
		code |= ExitFailed
	}
	return code
}

// StatusLine returns the incremental progress line, e.g.
// "[3/10 checked, 1 corrupted]".
func (s *RunStatus) StatusLine() string {
	return s.line(false)
}

// Summary returns the final report line, e.g.
// "checked 10 paths, 1 corrupted, 2 untrusted".
func (s *RunStatus) Summary() string {
	return s.line(true)
}

func (s *RunStatus) line(final bool) string {
	var b strings.Builder
	if final {
		fmt.Fprintf(&b, "checked %d paths", s.total)
	} else {
		fmt.Fprintf(&b, "[%d/%d checked", s.Completed(), s.total)
	}
	if n := s.Corrupted(); n > 0 {
		fmt.Fprintf(&b, ", %d corrupted", n)
	}
	if n := s.Untrusted(); n > 0 {
		fmt.Fprintf(&b, ", %d untrusted", n)
	}
	if n := s.Failed(); n > 0 {
		fmt.Fprintf(&b, ", %d failed", n)
	}
	if !final {
		b.WriteString("]")
	}
	return b.String()
}

func (s *RunStatus) render(final bool) {
	if s.out == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if final {
		fmt.Fprintf(s.out, "\r%s\n", s.Summary())
	} else {
		fmt.Fprintf(s.out, "\r%s", s.StatusLine())
	}
}
