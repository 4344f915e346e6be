// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/models"
	"github.com/wastevision/wastevision/internal/store"
)

// Register handles POST /register. On success it returns 201 with the
// client-safe user projection; the client logs in separately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	user, err := h.authSvc.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(w, r, http.StatusConflict, "EMAIL_TAKEN", "An account already exists for this email", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed", err)
		}
		return
	}

	respondData(w, r, http.StatusCreated, user.Summary())
}

// Login handles POST /login. The success body keeps the legacy shape
// (message, token, user) rather than the standard envelope, so existing
// clients keep working.
//
// An unknown email and a wrong password return different statuses (404 and
// 401). Account existence is already observable through registration's
// EMAIL_TAKEN conflict, so collapsing them here would hide nothing.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	resp, err := h.authSvc.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			respondError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "No account exists for this email", nil)
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", err)
		}
		return
	}

	respondRaw(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/me and returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Token outlived the account.
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load profile", err)
		return
	}

	respondData(w, r, http.StatusOK, user.Summary())
}

// UpdateMe handles PUT /api/v1/me. Only the display name and avatar are
// editable; email is the storage key and cannot change here.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req models.UpdateProfileRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to load profile", err)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.users.Update(r.Context(), user); err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to update profile", err)
		return
	}

	respondData(w, r, http.StatusOK, user.Summary())
}

// DeleteMe handles DELETE /api/v1/me. The account, its history, and its
// latest-detection slot are all removed; outstanding tokens keep validating
// cryptographically but stop resolving to an account.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	if err := h.users.Delete(r.Context(), claims.Email); err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete account", err)
		return
	}

	respondData(w, r, http.StatusOK, map[string]string{"message": "Account deleted"})
}
