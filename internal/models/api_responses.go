// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package models

import "time"

// APIResponse is the standardized response envelope used by all HTTP endpoints.
//
// Status is "success" or "error"; Error is populated only for errors. Message
// mirrors the top-level human-readable message older clients read directly.
type APIResponse struct {
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is a structured error with a stable machine-readable code.
//
// Codes used by this service:
//   - VALIDATION_ERROR: missing or malformed input, user-correctable
//   - EMAIL_TAKEN: duplicate email on registration
//   - USER_NOT_FOUND: unknown identity on login
//   - INVALID_CREDENTIALS: wrong password
//   - UNAUTHORIZED: missing, malformed, expired, or forged bearer token
//   - CRYPTO_ERROR: internal hashing fault
//   - CLASSIFIER_UNAVAILABLE: detection service unreachable or failing
//   - STORAGE_ERROR: embedded store fault
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
