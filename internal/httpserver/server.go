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

// Package httpserver exposes a local store to substituter clients over
// the read-only JSON API consumed by store.HTTPStore.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-nixstore/pkg/logging"
	"github.com/jeremyhahn/go-nixstore/pkg/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the store server configuration.
type Config struct {
	// Port is the HTTP port to listen on (default: 8090).
	Port int

	// Store is the store to serve. Required.
	Store store.Store

	// Logger is the request logger. Defaults to logging.DefaultLogger().
	Logger *logging.Logger

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes.
	// Content streaming of large entries must fit within it.
	WriteTimeout time.Duration
}

// Server serves a store's metadata and content over HTTP.
type Server struct {
	server *http.Server
	store  store.Store
	logger *logging.Logger
}

// NewServer creates a new store HTTP server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("httpserver: a store is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.DefaultLogger()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{store: cfg.Store, logger: cfg.Logger}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router builds the chi router for the store API.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", s.handleStoreInfo)
		r.Get("/entries", s.handleList)
		r.Route("/entries/{id}", func(r chi.Router) {
			r.Head("/", s.handleExists)
			r.Get("/", s.handleMetadata)
			r.Get("/content", s.handleContent)
		})
	})
	return r
}

// ListenAndServe starts serving. Blocks until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("store server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("store server shutting down")
	return s.server.Shutdown(ctx)
}
