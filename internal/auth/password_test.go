// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package auth

import (
	"errors"
	"testing"
)

func TestNewPasswordHasher(t *testing.T) {
	tests := []struct {
		name    string
		cost    int
		wantErr bool
	}{
		{"minimum cost", 4, false},
		{"default cost", 10, false},
		{"below minimum", 3, true},
		{"above maximum", 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPasswordHasher(tt.cost)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPasswordHasher(%d) error = %v, wantErr %v", tt.cost, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	// Minimum cost keeps the test fast.
	hasher, err := NewPasswordHasher(4)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error: %v", err)
	}

	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("Hash() returned the plaintext password")
	}

	t.Run("correct password", func(t *testing.T) {
		ok, err := hasher.Verify(hash, "secret123")
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if !ok {
			t.Error("Verify() = false for correct password")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := hasher.Verify(hash, "wrong")
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if ok {
			t.Error("Verify() = true for wrong password")
		}
	})

	t.Run("corrupted hash", func(t *testing.T) {
		_, err := hasher.Verify("not-a-bcrypt-hash", "secret123")
		if !errors.Is(err, ErrCrypto) {
			t.Errorf("Verify() error = %v, want ErrCrypto", err)
		}
	})
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewPasswordHasher(4)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error: %v", err)
	}

	h1, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	h2, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
}
