// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/greglas75/prefetch/internal/logging"
)

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string

	RateLimitDisabled bool
	RateLimitWrite    int
	RateLimitRead     int
	RateLimitWindow   time.Duration
}

// DefaultChiMiddlewareConfig returns the collector's defaults. CORS is
// wide open on purpose: submissions arrive from arbitrary third-party
// pages and in-app webviews, and the collect endpoint carries no
// credentials worth protecting.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitDisabled:  false,
		RateLimitWrite:     600,
		RateLimitRead:      60,
		RateLimitWindow:    time.Minute,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the CORS middleware, applied globally so OPTIONS
// preflights on every route are answered.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// rateLimit builds an IP-keyed limiter, or a no-op when disabled.
func (m *ChiMiddleware) rateLimit(requests int) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(requests, m.config.RateLimitWindow)
}

// RateLimitWrite limits the collect endpoint. Generous: a single page
// view fires several events plus a heartbeat stream.
func (m *ChiMiddleware) RateLimitWrite() func(http.Handler) http.Handler {
	return m.rateLimit(m.config.RateLimitWrite)
}

// RateLimitRead limits the dashboard and export endpoints, which
// re-read the whole log on every request.
func (m *ChiMiddleware) RateLimitRead() func(http.Handler) http.Handler {
	return m.rateLimit(m.config.RateLimitRead)
}

// RateLimitHealth is permissive so monitoring can poll frequently.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.rateLimit(1000)
}

// RequestIDWithLogging attaches a request ID to the response header and
// the logging context of every request.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
