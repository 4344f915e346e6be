// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wastevision/wastevision/internal/logging"
	"github.com/wastevision/wastevision/internal/metrics"
	"github.com/wastevision/wastevision/internal/models"
	"github.com/wastevision/wastevision/internal/store"
)

// UserStore is the persistence surface the auth service needs.
// *store.UserStore satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service implements account registration and login on top of a user store,
// a password hasher, and a JWT manager.
type Service struct {
	users      UserStore
	hasher     *PasswordHasher
	jwtManager *JWTManager
	now        func() time.Time
}

// NewService creates the auth service.
func NewService(users UserStore, hasher *PasswordHasher, jwtManager *JWTManager) *Service {
	return &Service{
		users:      users,
		hasher:     hasher,
		jwtManager: jwtManager,
		now:        time.Now,
	}
}

// Register creates a new account from an already-validated request.
// The email is lowercased before storage so lookups are case-insensitive.
// Returns ErrEmailTaken if an account already exists for the email.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("register", "error")
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			metrics.RecordAuthAttempt("register", "email_taken")
			return nil, ErrEmailTaken
		}
		metrics.RecordAuthAttempt("register", "error")
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	metrics.RecordAuthAttempt("register", "success")
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a session token.
//
// Failure modes are distinct on purpose and match the public API contract:
// an unknown email returns ErrUserNotFound, a wrong password returns
// ErrInvalidCredentials. The distinction leaks account existence; the
// registration endpoint already does via EMAIL_TAKEN, so login hides
// nothing by collapsing them.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			metrics.RecordAuthAttempt("login", "user_not_found")
			return nil, ErrUserNotFound
		}
		metrics.RecordAuthAttempt("login", "error")
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	match, err := s.hasher.Verify(user.PasswordHash, req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("login", "error")
		return nil, err
	}
	if !match {
		metrics.RecordAuthAttempt("login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.Issue(user.ID, user.Email)
	if err != nil {
		metrics.RecordAuthAttempt("login", "error")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.RecordAuthAttempt("login", "success")
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User logged in")

	return &models.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Summary(),
	}, nil
}
