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
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-nixstore/internal/httpserver"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/spf13/cobra"
)

var flagServePort int

// serveCmd exposes the local store to substituter clients over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local store over HTTP",
	Long: `Serve the local store's metadata and content over the read-only JSON
API, so other stores can use this one as a substituter. Prometheus
metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, err := store.OpenLocalReadOnly(globalConfig.Store)
		if err != nil {
			return err
		}
		defer func() { _ = local.Close() }()

		port := flagServePort
		if port == 0 {
			port = globalConfig.Serve.Port
		}
		srv, err := httpserver.NewServer(&httpserver.Config{
			Port:   port,
			Store:  local,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&flagServePort, "port", "p", 0,
		"port to listen on (default from config)")
}
