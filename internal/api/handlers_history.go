// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/metrics"
	"github.com/wastevision/wastevision/internal/models"
	"github.com/wastevision/wastevision/internal/store"
)

// validateDetectionRecord checks a client-posted record against the
// canonical shape. Records produced by Detect are always valid; this guards
// the history partition against hand-crafted payloads.
func validateDetectionRecord(record *models.DetectionRecord) error {
	for _, d := range record.Detections {
		if !d.Type.Valid() {
			return fmt.Errorf("unknown waste type %q", d.Type)
		}
		if d.Confidence != nil && (*d.Confidence < 0 || *d.Confidence > 1) {
			return fmt.Errorf("confidence %v out of range [0, 1]", *d.Confidence)
		}
	}
	return nil
}

// SaveHistory handles POST /api/v1/history. With a JSON body the posted
// record is saved; with an empty body the latest detection is promoted into
// history. Either way the new entry is returned with 201. Saving the same
// record twice creates two entries; each save is its own event.
func (h *Handler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read request body", err)
		return
	}

	var record models.DetectionRecord
	if len(body) > 0 {
		if err := json.Unmarshal(body, &record); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a valid detection record", err)
			return
		}
		if err := validateDetectionRecord(&record); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	} else {
		latest, err := h.history.Latest(r.Context(), owner(claims))
		if err != nil {
			if errors.Is(err, store.ErrNoLatest) {
				respondError(w, r, http.StatusNotFound, "NO_LATEST_DETECTION", "No detection available to save", nil)
				return
			}
			respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load latest detection", err)
			return
		}
		record = *latest
	}

	entry, err := h.history.Append(r.Context(), owner(claims), record)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to save history entry", err)
		return
	}

	metrics.HistoryAppends.Inc()
	respondData(w, r, http.StatusCreated, entry)
}

// ListHistory handles GET /api/v1/history. Entries come back newest first.
// The limit query parameter is clamped to the configured maximum.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	limit := getIntParam(r, "limit", h.cfg.API.DefaultHistoryLimit)
	if limit <= 0 {
		limit = h.cfg.API.DefaultHistoryLimit
	}
	if limit > h.cfg.API.MaxHistoryLimit {
		limit = h.cfg.API.MaxHistoryLimit
	}

	entries, err := h.history.List(r.Context(), owner(claims), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to list history", err)
		return
	}

	respondData(w, r, http.StatusOK, entries)
}

// ClearHistory handles DELETE /api/v1/history. It removes every saved entry
// for the user; the latest-detection slot is untouched.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	if err := h.history.Clear(r.Context(), owner(claims)); err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to clear history", err)
		return
	}

	metrics.HistoryClears.Inc()
	respondData(w, r, http.StatusOK, map[string]string{"message": "History cleared"})
}
