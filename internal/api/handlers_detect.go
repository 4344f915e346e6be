// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/detection"
	"github.com/wastevision/wastevision/internal/metrics"
	"github.com/wastevision/wastevision/internal/store"
)

// owner returns the history partition key for the authenticated request.
func owner(claims *auth.Claims) string {
	return strings.ToLower(claims.Email)
}

// Detect handles POST /api/v1/detect. The uploaded image is forwarded to the
// classifier, the response is normalized, and the result becomes the user's
// latest detection. Nothing is appended to history until the user saves it.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Classifier.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Multipart field 'file' is required", err)
		return
	}
	defer file.Close()

	raw, err := h.classifier.Identify(r.Context(), header.Filename, file)
	if err != nil {
		switch {
		case detection.IsBreakerOpen(err):
			respondError(w, r, http.StatusServiceUnavailable, "CLASSIFIER_UNAVAILABLE", "The detection service is temporarily unavailable", err)
		case errors.Is(err, detection.ErrClassifierUnavailable):
			respondError(w, r, http.StatusBadGateway, "CLASSIFIER_UNAVAILABLE", "Cannot reach the detection service", err)
		default:
			respondError(w, r, http.StatusBadGateway, "CLASSIFIER_UNAVAILABLE", "The detection service returned an error", err)
		}
		return
	}

	record := detection.Normalize(raw)
	for _, d := range record.Detections {
		metrics.RecordDetection(string(d.Type))
	}

	if err := h.history.SetLatest(r.Context(), owner(claims), record); err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store detection", err)
		return
	}

	respondData(w, r, http.StatusOK, record)
}

// LatestDetection handles GET /api/v1/detections/latest.
func (h *Handler) LatestDetection(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	record, err := h.history.Latest(r.Context(), owner(claims))
	if err != nil {
		if errors.Is(err, store.ErrNoLatest) {
			respondError(w, r, http.StatusNotFound, "NO_LATEST_DETECTION", "No detection has been run yet", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load latest detection", err)
		return
	}

	respondData(w, r, http.StatusOK, record)
}
