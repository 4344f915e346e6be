// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package detection

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/models"
)

// classifierPayload is the subset of the classifier response the normalizer
// reads. Unknown fields are preserved untouched in DetectionRecord.Raw.
type classifierPayload struct {
	Detections   []classifierDetection `json:"detections"`
	DefaultModel *classifierModel      `json:"default_model"`
}

type classifierModel struct {
	Detections     []classifierDetection `json:"detections"`
	AnnotatedImage string                `json:"annotated_image"`
}

type classifierDetection struct {
	Item       string   `json:"item"`
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence"`
}

// Normalize converts a raw classifier payload into a DetectionRecord.
//
// Detections come from default_model.detections when present, otherwise from
// the top-level detections field, otherwise the record is empty. Order is
// preserved. Waste types are lowercased and checked against the known
// categories; anything unrecognized becomes general. A missing confidence
// stays nil rather than becoming zero. The image is taken from
// default_model.annotated_image. The full raw payload rides along for
// clients that want the untranslated response.
//
// Normalize never fails: an unparseable payload yields a record with no
// detections and the raw bytes intact.
func Normalize(raw json.RawMessage) models.DetectionRecord {
	record := models.DetectionRecord{
		Detections: []models.Detection{},
		Raw:        raw,
	}

	var payload classifierPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return record
	}

	source := payload.Detections
	if payload.DefaultModel != nil {
		if payload.DefaultModel.Detections != nil {
			source = payload.DefaultModel.Detections
		}
		record.Image = payload.DefaultModel.AnnotatedImage
	}

	for _, d := range source {
		record.Detections = append(record.Detections, models.Detection{
			Item:       d.Item,
			Type:       normalizeType(d.Type),
			Confidence: d.Confidence,
		})
	}

	return record
}

// normalizeType maps a classifier label to a waste category.
func normalizeType(label string) models.WasteType {
	t := models.WasteType(strings.ToLower(strings.TrimSpace(label)))
	if t.Valid() {
		return t
	}
	return models.WasteGeneral
}
