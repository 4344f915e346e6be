// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package auth

import "errors"

// Sentinel errors returned by the auth service and token manager.
// Handlers map these to API error codes; the mapping is the only place
// that decides which failures are distinguishable to clients.
var (
	// ErrEmailTaken is returned by Register when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound is returned by Login when no account exists for the email.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned by Login when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCrypto signals an internal hashing failure, such as a stored hash
	// that bcrypt cannot parse. Never returned for a plain mismatch.
	ErrCrypto = errors.New("password hashing failed")

	// ErrTokenExpired is returned by Validate for a well-formed token past
	// its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature is returned by Validate when the signature does not
	// verify against the configured secret.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenMalformed covers every other token validation failure.
	ErrTokenMalformed = errors.New("malformed token")
)
