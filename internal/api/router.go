// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greglas75/prefetch/internal/middleware"
)

// Router assembles the HTTP routes around a Handler.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter builds a router over the given handler and middleware
// factory.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global stack. CORS must be global so OPTIONS preflights are
	// answered on every route.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/collect", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWrite())
		r.Method(http.MethodPost, "/", middleware.PrometheusMetrics("/collect", http.HandlerFunc(router.handler.Collect)))
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitRead())
		r.Method(http.MethodGet, "/", middleware.PrometheusMetrics("/dashboard", http.HandlerFunc(router.handler.Dashboard)))
	})

	r.Route("/export", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitRead())
		r.Method(http.MethodGet, "/", middleware.PrometheusMetrics("/export", http.HandlerFunc(router.handler.Export)))
	})

	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(router.handler.NotFound)
	r.MethodNotAllowed(router.handler.NotFound)

	return r
}
