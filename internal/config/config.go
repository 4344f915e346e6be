// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

// Package config provides layered configuration for the WasteVision server
// using Koanf v2: built-in defaults, an optional YAML file, and environment
// variables, in increasing order of priority.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Storage    StorageConfig    `koanf:"storage"`
	Classifier ClassifierConfig `koanf:"classifier"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds authentication and abuse-prevention settings.
type SecurityConfig struct {
	// JWTSecret signs bearer tokens. Rotating it invalidates every
	// outstanding token; that is the accepted tradeoff of the stateless
	// session design.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the fixed lifetime of issued tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// BcryptCost is the bcrypt cost factor for password hashing. It bounds
	// the per-request latency of register and login.
	BcryptCost int `koanf:"bcrypt_cost"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginRateLimitReqs caps login attempts per window per IP to slow
	// brute-force attacks.
	LoginRateLimitReqs   int           `koanf:"login_rate_limit_reqs"`
	LoginRateLimitWindow time.Duration `koanf:"login_rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// StorageConfig holds embedded BadgerDB settings.
type StorageConfig struct {
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Tests only.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ClassifierConfig holds settings for the remote waste-classification service.
type ClassifierConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`

	// MaxUploadBytes caps the size of an uploaded image forwarded to the
	// classifier.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// APIConfig holds pagination limits for history listings.
type APIConfig struct {
	DefaultHistoryLimit int `koanf:"default_history_limit"`
	MaxHistoryLimit     int `koanf:"max_history_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Validate checks the configuration for invalid or insecure values.
// It is called once at load time; the server refuses to start on error.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.IsDevelopment() && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be between 4 and 31, got %d", c.Security.BcryptCost)
	}
	if c.Storage.Path == "" && !c.Storage.InMemory {
		return fmt.Errorf("storage.path is required when storage is not in-memory")
	}
	if c.Classifier.URL == "" {
		return fmt.Errorf("CLASSIFIER_URL is required")
	}
	if c.API.MaxHistoryLimit < c.API.DefaultHistoryLimit {
		return fmt.Errorf("api.max_history_limit must be >= api.default_history_limit")
	}
	return nil
}
