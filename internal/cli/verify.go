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

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/jeremyhahn/go-nixstore/pkg/verify"
	"github.com/spf13/cobra"
)

var (
	flagNoContents   bool
	flagNoTrust      bool
	flagSubstituters []string
	flagSigsNeeded   int
	flagWorkers      int
	flagTrustedKeys  []string
)

// verifyPathsCmd verifies an explicit list of entries.
var verifyPathsCmd = &cobra.Command{
	Use:   "verify-paths <id>...",
	Short: "Verify the integrity of store paths",
	Long: `Verify the integrity and trust status of the given store paths.

For each path the content digest is recomputed and compared against the
recorded digest, and trust is resolved from the path's signatures plus
any configured substituters.

The exit code is a bitmask: 1 if any path was corrupted, 2 if any path
was untrusted, 4 if any check failed outright.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(args)
	},
}

// verifyStoreCmd verifies every valid entry in the store.
var verifyStoreCmd = &cobra.Command{
	Use:   "verify-store",
	Short: "Verify the integrity of all paths in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(nil)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{verifyPathsCmd, verifyStoreCmd} {
		cmd.Flags().BoolVar(&flagNoContents, "no-contents", false,
			"do not verify the contents of each store path")
		cmd.Flags().BoolVar(&flagNoTrust, "no-trust", false,
			"do not verify whether each store path is trusted")
		cmd.Flags().StringArrayVarP(&flagSubstituters, "substituter", "s", nil,
			"use signatures from the specified store (repeatable)")
		cmd.Flags().IntVarP(&flagSigsNeeded, "sigs-needed", "n", 0,
			"require that each path has at least N valid signatures")
		cmd.Flags().IntVarP(&flagWorkers, "workers", "j", 0,
			"number of concurrent verification workers (default: all CPUs)")
		cmd.Flags().StringArrayVar(&flagTrustedKeys, "trusted-public-key", nil,
			"trust signatures from this public key (repeatable)")
	}
}

// runVerify drives a verification run over ids, or over the whole store
// when ids is nil.
func runVerify(ids []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := store.OpenLocalReadOnly(globalConfig.Store)
	if err != nil {
		return err
	}
	defer func() { _ = local.Close() }()

	// Substituters are opened once and shared read-only across workers.
	uris := append(append([]string{}, globalConfig.Substituters...), flagSubstituters...)
	substituters := make([]store.Store, 0, len(uris))
	defer func() {
		for _, sub := range substituters {
			_ = sub.Close()
		}
	}()
	for _, uri := range uris {
		sub, err := store.Open(uri)
		if err != nil {
			return fmt.Errorf("opening substituter %q: %w", uri, err)
		}
		substituters = append(substituters, sub)
	}

	keys, err := signature.ParsePublicKeys(append(append([]string{},
		globalConfig.TrustedKeys...), flagTrustedKeys...))
	if err != nil {
		return err
	}

	workers := flagWorkers
	if workers == 0 {
		workers = globalConfig.Workers
	}

	v := verify.New(local, verify.Config{
		NoContents:   flagNoContents,
		NoTrust:      flagNoTrust,
		SigsNeeded:   flagSigsNeeded,
		Workers:      workers,
		Substituters: substituters,
		TrustedKeys:  keys,
		Logger:       logger,
		StatusWriter: os.Stderr,
	})

	var status *verify.RunStatus
	if ids == nil {
		status, err = v.RunStore(ctx)
	} else {
		status, err = v.Run(ctx, ids)
	}
	if err != nil {
		return err
	}

	if code := status.ExitCode(); code != 0 {
		return &ExitCodeError{Code: code}
	}
	return nil
}
