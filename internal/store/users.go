// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package store

import (
	"context"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/models"
)

// UserStore persists user accounts keyed by lowercased email.
type UserStore struct {
	store *Store
}

// NewUserStore creates a user store backed by the shared database.
func NewUserStore(s *Store) *UserStore {
	return &UserStore{store: s}
}

func userKey(email string) []byte {
	return []byte("user:" + strings.ToLower(email))
}

// storedUser is the persisted form of models.User. The API model excludes
// PasswordHash from JSON so it can never leak into a response; storage must
// keep it, so the outer field re-serializes the digest under its own name.
type storedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func marshalUser(user *models.User) ([]byte, error) {
	return json.Marshal(storedUser{User: *user, PasswordHash: user.PasswordHash})
}

func unmarshalUser(val []byte) (*models.User, error) {
	var su storedUser
	if err := json.Unmarshal(val, &su); err != nil {
		return nil, err
	}
	user := su.User
	user.PasswordHash = su.PasswordHash
	return &user, nil
}

// validateUser rejects records missing a required field. The email doubles
// as the storage key, so it must at least look like an address.
func validateUser(user *models.User) error {
	switch {
	case user.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	case user.Email == "" || !strings.Contains(user.Email, "@"):
		return fmt.Errorf("%w: malformed email %q", ErrInvalidUser, user.Email)
	case user.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidUser)
	case user.PasswordHash == "":
		return fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	return nil
}

// Create inserts a new user. The email is the unique key; if an account
// already exists for it, ErrEmailTaken is returned and nothing is written.
// The uniqueness check and the write happen in one transaction.
func (us *UserStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	key := userKey(user.Email)
	payload, err := marshalUser(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = us.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrEmailTaken
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, payload)
	})
	if err == ErrEmailTaken {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail looks up a user by email, case-insensitively.
// Returns ErrUserNotFound when no account exists.
func (us *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *models.User
	err := us.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(email))
		if err == badger.ErrKeyNotFound {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = unmarshalUser(val)
			return err
		})
	})
	if err == ErrUserNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Update replaces the stored record for an existing user.
// Returns ErrUserNotFound if the account does not exist.
func (us *UserStore) Update(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := userKey(user.Email)
	payload, err := marshalUser(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = us.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrUserNotFound
		} else if err != nil {
			return err
		}
		return txn.Set(key, payload)
	})
	if err == ErrUserNotFound {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user account and all history owned by it, including the
// latest-detection slot. Deleting a missing user is not an error.
// The history partition goes first: if deletion is interrupted, a
// re-registration must never inherit the previous account's entries.
func (us *UserStore) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	owner := strings.ToLower(email)
	if err := us.store.deletePrefix(historyPrefix(owner)); err != nil {
		return fmt.Errorf("failed to delete user history: %w", err)
	}

	err := us.store.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(userKey(owner)); err != nil {
			return err
		}
		return txn.Delete(latestKey(owner))
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
