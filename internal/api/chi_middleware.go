// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

// Package api provides HTTP routing and handlers using the Chi router with
// production-hardened middleware from the Chi ecosystem.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/wastevision/wastevision/internal/config"
)

// ChiMiddleware builds the CORS and rate-limiting middleware from the
// security configuration.
type ChiMiddleware struct {
	cfg  *config.SecurityConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory.
func NewChiMiddleware(cfg *config.SecurityConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{
		cfg:  cfg,
		cors: corsHandler,
	}
}

// CORS returns the CORS middleware. It must run globally so OPTIONS
// preflight requests are answered on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the standard per-IP rate limiter for API routes.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limiter(m.cfg.RateLimitReqs, m.cfg.RateLimitWindow)
}

// RateLimitLogin returns the stricter per-IP limiter for the login route,
// slowing credential brute force.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.limiter(m.cfg.LoginRateLimitReqs, m.cfg.LoginRateLimitWindow)
}

func (m *ChiMiddleware) limiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
