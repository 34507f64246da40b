// Copyright (c) 2025 The Loadline Authors.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/loadline/loadline/pkg/version"
)

// AdminServer exposes /metrics and /version while a long run is in flight.
type AdminServer struct {
	hostPort string
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
}

// NewAdminServer creates the admin server; it does not listen yet.
func NewAdminServer(hostPort string, gatherer prometheus.Gatherer, logger *zap.Logger) *AdminServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	version.RegisterHandler(mux, logger)
	return &AdminServer{
		hostPort: hostPort,
		logger:   logger,
		server:   &http.Server{Handler: mux},
	}
}

// Serve binds the listener and serves in the background.
func (s *AdminServer) Serve() error {
	listener, err := net.Listen("tcp", s.hostPort)
	if err != nil {
		return err
	}
	s.listener = listener
	s.logger.Info("admin server started", zap.String("http.host-port", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("admin server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Close stops the server.
func (s *AdminServer) Close() error {
	return s.server.Close()
}
