// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package api

import (
	"net/http"
	"time"

	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/config"
	"github.com/wastevision/wastevision/internal/detection"
	"github.com/wastevision/wastevision/internal/store"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg        *config.Config
	authSvc    *auth.Service
	users      *store.UserStore
	history    *store.HistoryStore
	classifier detection.Identifier
	db         *store.Store
	startedAt  time.Time
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, authSvc *auth.Service, users *store.UserStore, history *store.HistoryStore, classifier detection.Identifier, db *store.Store) *Handler {
	return &Handler{
		cfg:        cfg,
		authSvc:    authSvc,
		users:      users,
		history:    history,
		classifier: classifier,
		db:         db,
		startedAt:  time.Now(),
	}
}

// Health reports overall service health including storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK

	storage := "ok"
	if err := h.db.Ping(); err != nil {
		storage = "unavailable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondData(w, r, httpStatus, map[string]interface{}{
		"status":  status,
		"storage": storage,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// HealthLive is the liveness probe. It answers as long as the process can
// serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe. Not ready means storage is down; the
// classifier is deliberately excluded because the breaker handles its
// outages per-request.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "STORAGE_ERROR", "Storage is not ready", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
