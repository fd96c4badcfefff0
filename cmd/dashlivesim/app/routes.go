// Copyright 2023, DASH-Industry Forum. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"

	"github.com/grenault73/dash-live-source-simulator/pkg/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes defines dispatches for all routes.
func (s *Server) Routes(ctx context.Context) error {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.Mount("/debug", middleware.Profiler())
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.Route("/api", createRouteAPI(s))
	s.Router.MethodFunc("OPTIONS", "/*", s.optionsHandlerFunc)
	// LiveRouter is mounted at /dashlivesim
	s.LiveRouter.MethodFunc("GET", "/*", s.livesimHandlerFunc)
	s.LiveRouter.MethodFunc("HEAD", "/*", s.livesimHandlerFunc)
	s.LiveRouter.MethodFunc("OPTIONS", "/*", s.optionsHandlerFunc)

	return nil
}
