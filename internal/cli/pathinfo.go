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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/spf13/cobra"
)

var flagPathInfoJSON bool

// pathInfoCmd prints the metadata recorded for store paths.
var pathInfoCmd = &cobra.Command{
	Use:   "path-info <id>...",
	Short: "Show metadata about store paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := store.OpenLocalReadOnly(globalConfig.Store)
		if err != nil {
			return err
		}
		defer func() { _ = local.Close() }()

		infos := make([]*store.EntryInfo, 0, len(args))
		for _, id := range args {
			info, err := local.QueryMetadata(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("querying %q: %w", id, err)
			}
			infos = append(infos, info)
		}

		if flagPathInfoJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		for _, info := range infos {
			fmt.Printf("%s:\n", info.ID)
			fmt.Printf("  digest:   %s\n", info.Digest)
			fmt.Printf("  size:     %d\n", info.Size)
			fmt.Printf("  ultimate: %v\n", info.Ultimate)
			if len(info.Sigs) > 0 {
				fmt.Printf("  sigs:     %s\n", strings.Join(info.Sigs, " "))
			}
			if len(info.References) > 0 {
				fmt.Printf("  refs:     %s\n", strings.Join(info.References, " "))
			}
			if info.Deriver != "" {
				fmt.Printf("  deriver:  %s\n", info.Deriver)
			}
		}
		return nil
	},
}

func init() {
	pathInfoCmd.Flags().BoolVar(&flagPathInfoJSON, "json", false,
		"print metadata as JSON")
}
