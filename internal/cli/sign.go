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
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-nixstore/pkg/signature"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/spf13/cobra"
)

var flagSignKeyFile string

// signPathsCmd attaches signatures to local store paths.
var signPathsCmd = &cobra.Command{
	Use:   "sign-paths --key-file <file> <id>...",
	Short: "Sign store paths with a local secret key",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(flagSignKeyFile)
		if err != nil {
			return fmt.Errorf("reading key file: %w", err)
		}
		sk, err := signature.ParseSecretKey(strings.TrimSpace(string(data)))
		if err != nil {
			return err
		}

		local, err := store.OpenLocal(globalConfig.Store)
		if err != nil {
			return err
		}
		defer func() { _ = local.Close() }()

		for _, id := range args {
			info, err := local.QueryMetadata(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("querying %q: %w", id, err)
			}
			sig := sk.Sign(info.Fingerprint())
			if err := local.AddSignatures(cmd.Context(), id, []string{sig}); err != nil {
				return fmt.Errorf("signing %q: %w", id, err)
			}
			logger.Info("signed path", "entry", id, "key", sk.Name)
		}
		return nil
	},
}

// generateKeyCmd generates a signing keypair for a store or cache.
var generateKeyCmd = &cobra.Command{
	Use:   "generate-key <key-name> <secret-key-file> [public-key-file]",
	Short: "Generate a signing keypair",
	Long: `Generate an ed25519 keypair for signing store paths. The secret key
is written to the given file; the public key is written to the optional
public key file, or to stdout.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, pk, err := signature.GenerateKey(args[0])
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], []byte(sk.String()+"\n"), 0600); err != nil {
			return fmt.Errorf("writing secret key: %w", err)
		}
		if len(args) == 3 {
			if err := os.WriteFile(args[2], []byte(pk.String()+"\n"), 0644); err != nil {
				return fmt.Errorf("writing public key: %w", err)
			}
			return nil
		}
		fmt.Println(pk.String())
		return nil
	},
}

func init() {
	signPathsCmd.Flags().StringVarP(&flagSignKeyFile, "key-file", "k", "",
		"file containing the secret signing key")
	_ = signPathsCmd.MarkFlagRequired("key-file")
}
