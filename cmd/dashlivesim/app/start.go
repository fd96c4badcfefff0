// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grenault73/dash-live-source-simulator/internal"
	"github.com/grenault73/dash-live-source-simulator/pkg/logging"
)

// SetupServer sets up router, middleware, and server, given koanf configuration.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	var err error

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(addVersionAndCORSHeaders)
	r.Use(NewPrometheusMiddleware())

	l := chi.NewRouter()

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}

	// Add prometheus counters
	r.Mount("/metrics", promhttp.Handler())

	// Mount the simulator router
	r.Mount("/dashlivesim", l)

	delayer := NopDelayer
	if cfg.MediaDelayMS > 0 {
		delayer = NewSleepDelayer(time.Duration(cfg.MediaDelayMS) * time.Millisecond)
	}

	vodFS := os.DirFS(cfg.VodRoot)
	server := Server{
		Router:     r,
		LiveRouter: l,
		Cfg:        cfg,
		assetMgr:   newAssetMgr(vodFS),
		delayer:    delayer,
	}

	err = server.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	start := time.Now()
	err = server.assetMgr.discoverAssets(slog.Default())
	if err != nil {
		return nil, fmt.Errorf("discoverAssets: %w", err)
	}
	elapsedSeconds := fmt.Sprintf("%.3fs", time.Since(start).Seconds())

	slog.Info("VoD assets found", "count", len(server.assetMgr.assets), "elapsed", elapsedSeconds)
	for name, a := range server.assetMgr.assets {
		slog.Info("Available MPD", "assetPath", name, "mpdName", a.MPDName)
	}

	slog.Info("dashlivesim starting", "version", internal.GetVersion(), "port", cfg.Port)

	return &server, nil
}
