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

	"github.com/jeremyhahn/go-nixstore/internal/config"
	"github.com/jeremyhahn/go-nixstore/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	// Global configuration, resolved in the root PersistentPreRunE.
	globalConfig *config.Config
	logger       *logging.Logger

	// Persistent flag values
	flagConfigFile string
	flagStoreDir   string
	flagLogLevel   string
	flagJSONLog    bool
)

// ExitCodeError carries a specific process exit code up to main.
type ExitCodeError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "nixstore",
	Short: "Content-addressed store with signed entry verification",
	Long: `nixstore manages a content-addressed artifact store whose entries
carry a recorded content digest and a set of detached signatures.

Verification recomputes each entry's digest to detect silent corruption
and assembles a quorum of valid signatures, consulting substituter
stores when the entry's own signatures are not enough.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("store") {
			cfg.Store = flagStoreDir
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = flagLogLevel
		}
		if cmd.Flags().Changed("json-log") {
			cfg.Logging.JSON = flagJSONLog
		}
		globalConfig = cfg
		logger = logging.NewLogger(&logging.Options{
			Level: cfg.Logging.Level,
			JSON:  cfg.Logging.JSON,
		})
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "",
		"config file (default is $HOME/.nixstore.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagStoreDir, "store", "",
		"root directory of the local store")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false,
		"emit logs as JSON")

	rootCmd.AddCommand(verifyPathsCmd)
	rootCmd.AddCommand(verifyStoreCmd)
	rootCmd.AddCommand(pathInfoCmd)
	rootCmd.AddCommand(signPathsCmd)
	rootCmd.AddCommand(generateKeyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
