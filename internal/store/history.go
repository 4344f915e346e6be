// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/models"
)

// HistoryStore persists per-owner detection history and the single
// latest-detection slot.
type HistoryStore struct {
	store *Store

	// seq guards key uniqueness when appends land in the same nanosecond.
	mu      sync.Mutex
	lastSeq int64
	now     func() time.Time
}

// NewHistoryStore creates a history store backed by the shared database.
func NewHistoryStore(s *Store) *HistoryStore {
	return &HistoryStore{store: s, now: time.Now}
}

func historyPrefix(owner string) []byte {
	return []byte("hist:" + strings.ToLower(owner) + ":")
}

func latestKey(owner string) []byte {
	return []byte("latest:" + strings.ToLower(owner))
}

// historyKey builds a key whose suffix is the bitwise complement of the
// sequence number, so lexicographic prefix iteration returns entries
// newest first.
func historyKey(owner string, seq int64) []byte {
	prefix := historyPrefix(owner)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], ^uint64(seq))
	return key
}

// nextSeq returns a strictly increasing nanosecond sequence number.
func (hs *HistoryStore) nextSeq() int64 {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	seq := hs.now().UnixNano()
	if seq <= hs.lastSeq {
		seq = hs.lastSeq + 1
	}
	hs.lastSeq = seq
	return seq
}

// Append saves a detection record to the owner's history and returns the
// stored entry. The entry ID is assigned at save time, not detection time;
// saving the same record twice yields two distinct entries.
func (hs *HistoryStore) Append(ctx context.Context, owner string, record models.DetectionRecord) (*models.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := hs.nextSeq()
	entry := models.HistoryEntry{
		ID:        strconv.FormatInt(seq, 10),
		CreatedAt: time.Unix(0, seq).UTC(),
		Data:      record,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history entry: %w", err)
	}

	err = hs.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(owner, seq), payload)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}
	return &entry, nil
}

// List returns up to limit history entries for the owner, newest first.
// A limit of zero or less means no cap.
func (hs *HistoryStore) List(ctx context.Context, owner string, limit int) ([]models.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []models.HistoryEntry{}
	err := hs.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = historyPrefix(owner)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry models.HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Clear removes every history entry for the owner. The latest-detection
// slot is untouched. Deletes are batched, so a partition of any size can
// be cleared.
func (hs *HistoryStore) Clear(ctx context.Context, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := hs.store.deletePrefix(historyPrefix(owner)); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// SetLatest overwrites the owner's latest-detection slot.
func (hs *HistoryStore) SetLatest(ctx context.Context, owner string, record models.DetectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal detection record: %w", err)
	}

	err = hs.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(latestKey(owner), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to set latest detection: %w", err)
	}
	return nil
}

// Latest returns the owner's latest-detection slot, or ErrNoLatest if no
// detection has been stored since the slot was last cleared.
func (hs *HistoryStore) Latest(ctx context.Context, owner string) (*models.DetectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record models.DetectionRecord
	err := hs.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(latestKey(owner))
		if err == badger.ErrKeyNotFound {
			return ErrNoLatest
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == ErrNoLatest {
		return nil, ErrNoLatest
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest detection: %w", err)
	}
	return &record, nil
}

// ClearLatest removes the owner's latest-detection slot. Clearing an empty
// slot is not an error.
func (hs *HistoryStore) ClearLatest(ctx context.Context, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := hs.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(latestKey(owner))
	})
	if err != nil {
		return fmt.Errorf("failed to clear latest detection: %w", err)
	}
	return nil
}
