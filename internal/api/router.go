// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/middleware"
)

// Router assembles the HTTP surface of the server.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	chiMW   *ChiMiddleware
}

// NewRouter creates the router from its handler set and middleware.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler: handler,
		authMW:  authMW,
		chiMW:   chiMW,
	}
}

// Setup wires all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMW.CORS()) // CORS must be global to handle OPTIONS preflight

	// Public auth endpoints. Login carries the strictest rate limit to slow
	// credential brute force.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/register", router.handler.Register)
		r.With(router.chiMW.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	// Health endpoints stay unauthenticated for monitoring.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Protected API. Every data endpoint requires a valid session token.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMW.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Get("/me", router.handler.Me)
		r.Put("/me", router.handler.UpdateMe)
		r.Delete("/me", router.handler.DeleteMe)
		r.Post("/detect", router.handler.Detect)
		r.Get("/detections/latest", router.handler.LatestDetection)
		r.Post("/history", router.handler.SaveHistory)
		r.Get("/history", router.handler.ListHistory)
		r.Delete("/history", router.handler.ClearHistory)
	})

	// Prometheus scrape endpoint.
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
