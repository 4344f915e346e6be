// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

// Package store persists users and detection history in embedded BadgerDB.
//
// Key layout:
//
//	user:<email>            -> models.User (email lowercased, unique)
//	hist:<owner>:<seq>      -> models.HistoryEntry, seq is an inverted
//	                           nanosecond timestamp so prefix iteration
//	                           yields newest entries first
//	latest:<owner>          -> models.DetectionRecord, single slot
//
// Owner is the lowercased account email, or the guest sentinel for
// unauthenticated local history.
package store

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/wastevision/wastevision/internal/config"
)

// Sentinel errors returned by the stores.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidUser  = errors.New("invalid user record")
	ErrNoLatest     = errors.New("no latest detection")
)

// GuestOwner is the history partition for unauthenticated sessions.
// The HTTP layer never routes to it; it exists for embedded and CLI use.
const GuestOwner = "guest"

// Store wraps a Badger database shared by the user and history stores.
type Store struct {
	db *badger.DB
}

// Open opens the Badger database described by cfg. With cfg.InMemory set,
// no files are created and all data is lost on Close.
func Open(cfg *config.StorageConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's default logger writes to stderr outside our logging setup.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

// Ping verifies the database is open and serving reads.
func (s *Store) Ping() error {
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// deletePrefix removes every key under prefix. Deletes go through a
// WriteBatch, which splits into multiple transactions as needed, so a
// partition larger than one transaction does not hit ErrTxnTooBig.
func (s *Store) deletePrefix(prefix []byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := wb.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return wb.Flush()
}

// RunGC runs one round of Badger value-log garbage collection.
// badger.ErrNoRewrite means there was nothing to collect and is not
// reported as a failure.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return fmt.Errorf("badger value log gc: %w", err)
	}
	return nil
}

