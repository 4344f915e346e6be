// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/wastevision/wastevision/internal/config"
	"github.com/wastevision/wastevision/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(&config.StorageConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return s
}

func testUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// The API model hides PasswordHash from JSON; storage must not inherit that
// and drop the digest, or no account could ever log in again.
func TestUserStorePreservesPasswordHash(t *testing.T) {
	s := newTestStore(t)
	us := NewUserStore(s)
	ctx := context.Background()

	user := testUser("ada@example.com")
	if err := us.Create(ctx, user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := us.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if got.PasswordHash == "" {
		t.Fatal("password hash dropped at the storage boundary")
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, user.PasswordHash)
	}

	// The API model still excludes the digest from its own serialization.
	apiJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(apiJSON), got.PasswordHash) {
		t.Error("API serialization leaks the password hash")
	}
}

func TestUserStoreCreateRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	us := NewUserStore(s)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.User)
	}{
		{"missing id", func(u *models.User) { u.ID = "" }},
		{"missing email", func(u *models.User) { u.Email = "" }},
		{"malformed email", func(u *models.User) { u.Email = "not-an-address" }},
		{"missing name", func(u *models.User) { u.Name = "" }},
		{"missing password hash", func(u *models.User) { u.PasswordHash = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUser("valid@example.com")
			tt.mutate(user)

			err := us.Create(ctx, user)
			if !errors.Is(err, ErrInvalidUser) {
				t.Fatalf("Create() error = %v, want ErrInvalidUser", err)
			}
		})
	}
}

func TestUserStoreCreateAndFind(t *testing.T) {
	s := newTestStore(t)
	us := NewUserStore(s)
	ctx := context.Background()

	user := testUser("ada@example.com")
	if err := us.Create(ctx, user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	t.Run("find exact email", func(t *testing.T) {
		got, err := us.FindByEmail(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("FindByEmail() error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID = %q, want %q", got.ID, user.ID)
		}
		if got.PasswordHash != user.PasswordHash {
			t.Error("password hash not preserved")
		}
	})

	t.Run("find is case-insensitive", func(t *testing.T) {
		got, err := us.FindByEmail(ctx, "ADA@Example.COM")
		if err != nil {
			t.Fatalf("FindByEmail() error: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("ID = %q, want %q", got.ID, user.ID)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := us.FindByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("FindByEmail() error = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := testUser("ada@example.com")
		if err := us.Create(ctx, dup); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Create() error = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("duplicate email different case", func(t *testing.T) {
		dup := testUser("Ada@Example.com")
		if err := us.Create(ctx, dup); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Create() error = %v, want ErrEmailTaken", err)
		}
	})
}

func TestUserStoreUpdate(t *testing.T) {
	s := newTestStore(t)
	us := NewUserStore(s)
	ctx := context.Background()

	user := testUser("ada@example.com")
	if err := us.Create(ctx, user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	user.Name = "Ada Lovelace"
	if err := us.Update(ctx, user); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := us.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("FindByEmail() error: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want %q", got.Name, "Ada Lovelace")
	}

	missing := testUser("ghost@example.com")
	if err := us.Update(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserStoreDeleteClearsHistory(t *testing.T) {
	s := newTestStore(t)
	us := NewUserStore(s)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	user := testUser("ada@example.com")
	if err := us.Create(ctx, user); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	record := models.DetectionRecord{
		Detections: []models.Detection{{Item: "bottle", Type: models.WasteRecyclable}},
	}
	if _, err := hs.Append(ctx, user.Email, record); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := hs.SetLatest(ctx, user.Email, record); err != nil {
		t.Fatalf("SetLatest() error: %v", err)
	}

	if err := us.Delete(ctx, user.Email); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	if _, err := us.FindByEmail(ctx, user.Email); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindByEmail() after delete = %v, want ErrUserNotFound", err)
	}
	entries, err := hs.List(ctx, user.Email, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history after delete has %d entries, want 0", len(entries))
	}
	if _, err := hs.Latest(ctx, user.Email); !errors.Is(err, ErrNoLatest) {
		t.Errorf("Latest() after delete = %v, want ErrNoLatest", err)
	}

	// Deleting again is a no-op.
	if err := us.Delete(ctx, user.Email); err != nil {
		t.Errorf("second Delete() error: %v", err)
	}
}

func TestHistoryOrdering(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	items := []string{"bottle", "banana peel", "battery"}
	for _, item := range items {
		record := models.DetectionRecord{
			Detections: []models.Detection{{Item: item, Type: models.WasteGeneral}},
		}
		if _, err := hs.Append(ctx, "ada@example.com", record); err != nil {
			t.Fatalf("Append(%q) error: %v", item, err)
		}
	}

	entries, err := hs.List(ctx, "ada@example.com", 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}

	// Newest first.
	want := []string{"battery", "banana peel", "bottle"}
	for i, entry := range entries {
		if got := entry.Data.Detections[0].Item; got != want[i] {
			t.Errorf("entries[%d] item = %q, want %q", i, got, want[i])
		}
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Errorf("entries[%d] newer than entries[%d]", i, i-1)
		}
	}
}

func TestHistoryListLimit(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := models.DetectionRecord{}
		if _, err := hs.Append(ctx, "ada@example.com", record); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	entries, err := hs.List(ctx, "ada@example.com", 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List(limit=2) returned %d entries", len(entries))
	}
}

func TestHistoryOwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	if _, err := hs.Append(ctx, "ada@example.com", models.DetectionRecord{}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if _, err := hs.Append(ctx, GuestOwner, models.DetectionRecord{}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	adaEntries, err := hs.List(ctx, "ada@example.com", 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	guestEntries, err := hs.List(ctx, GuestOwner, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(adaEntries) != 1 || len(guestEntries) != 1 {
		t.Errorf("isolation broken: ada=%d guest=%d, want 1 each", len(adaEntries), len(guestEntries))
	}

	if err := hs.Clear(ctx, "ada@example.com"); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	guestEntries, err = hs.List(ctx, GuestOwner, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(guestEntries) != 1 {
		t.Errorf("guest history lost after clearing another owner")
	}
}

func TestHistoryClearLargePartition(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	owner := "ada@example.com"
	for i := 0; i < 500; i++ {
		if _, err := hs.Append(ctx, owner, models.DetectionRecord{Image: "scan.png"}); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	if _, err := hs.Append(ctx, GuestOwner, models.DetectionRecord{}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if err := hs.Clear(ctx, owner); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	entries, err := hs.List(ctx, owner, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() after Clear() = %d entries, want 0", len(entries))
	}

	guestEntries, err := hs.List(ctx, GuestOwner, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(guestEntries) != 1 {
		t.Errorf("guest history = %d entries after clearing another owner, want 1", len(guestEntries))
	}
}

func TestLatestSlot(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)
	ctx := context.Background()

	owner := "ada@example.com"

	if _, err := hs.Latest(ctx, owner); !errors.Is(err, ErrNoLatest) {
		t.Errorf("Latest() on empty slot = %v, want ErrNoLatest", err)
	}

	first := models.DetectionRecord{Image: "first.png"}
	second := models.DetectionRecord{Image: "second.png"}

	if err := hs.SetLatest(ctx, owner, first); err != nil {
		t.Fatalf("SetLatest() error: %v", err)
	}
	if err := hs.SetLatest(ctx, owner, second); err != nil {
		t.Fatalf("SetLatest() error: %v", err)
	}

	got, err := hs.Latest(ctx, owner)
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if got.Image != "second.png" {
		t.Errorf("Latest() image = %q, want second.png", got.Image)
	}

	if err := hs.ClearLatest(ctx, owner); err != nil {
		t.Fatalf("ClearLatest() error: %v", err)
	}
	if _, err := hs.Latest(ctx, owner); !errors.Is(err, ErrNoLatest) {
		t.Errorf("Latest() after clear = %v, want ErrNoLatest", err)
	}

	// Clearing an empty slot is a no-op.
	if err := hs.ClearLatest(ctx, owner); err != nil {
		t.Errorf("second ClearLatest() error: %v", err)
	}
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	hs := NewHistoryStore(s)

	// Freeze the clock so every append collides on the same nanosecond.
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	hs.now = func() time.Time { return fixed }

	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		entry, err := hs.Append(ctx, "ada@example.com", models.DetectionRecord{})
		if err != nil {
			t.Fatalf("Append() error: %v", err)
		}
		if seen[entry.ID] {
			t.Fatalf("duplicate entry ID %q", entry.ID)
		}
		seen[entry.ID] = true
	}

	entries, err := hs.List(ctx, "ada@example.com", 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("List() returned %d entries, want 10", len(entries))
	}
}
