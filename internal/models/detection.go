// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// WasteType is the canonical waste category of a detected item.
type WasteType string

// The four canonical waste categories. Classifier labels outside this set
// normalize to WasteGeneral.
const (
	WasteRecyclable    WasteType = "recyclable"
	WasteBiodegradable WasteType = "biodegradable"
	WasteHazardous     WasteType = "hazardous"
	WasteGeneral       WasteType = "general"
)

// Valid reports whether t is one of the four canonical categories.
func (t WasteType) Valid() bool {
	switch t {
	case WasteRecyclable, WasteBiodegradable, WasteHazardous, WasteGeneral:
		return true
	}
	return false
}

// Detection is a single normalized classifier finding.
//
// Confidence is a pointer so that a payload without a confidence score stays
// "unknown" (null in JSON) instead of collapsing to 0.
type Detection struct {
	Item       string    `json:"item"`
	Type       WasteType `json:"type"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// DetectionRecord is the canonical shape every classifier response is
// normalized into. Records are immutable once created; Raw preserves the
// original payload byte-for-byte.
type DetectionRecord struct {
	Detections []Detection     `json:"detections"`
	Image      string          `json:"image,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// HistoryEntry wraps a DetectionRecord saved into a user's history partition.
// ID is creation-time based and unique within the partition; entries are never
// mutated after being written.
type HistoryEntry struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Data      DetectionRecord `json:"data"`
}
