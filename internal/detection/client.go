// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

// Package detection talks to the external waste-classification service and
// normalizes its responses into the application's detection model.
package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/config"
	"github.com/wastevision/wastevision/internal/metrics"
)

// ErrClassifierUnavailable is returned when the classifier service cannot be
// reached at all, as opposed to reached but answering with an error.
var ErrClassifierUnavailable = errors.New("cannot reach the detection service")

// Client calls the waste-classification service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a classifier client from configuration.
func NewClient(cfg *config.ClassifierConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Identify uploads an image to the classifier's identify endpoint and returns
// the raw response payload. The payload shape is the classifier's own; use
// Normalize to convert it into a DetectionRecord.
//
// A transport-level failure returns ErrClassifierUnavailable. A reachable
// classifier that answers with a non-2xx status returns an ordinary error
// carrying the status code.
func (c *Client) Identify(ctx context.Context, filename string, image io.Reader) (json.RawMessage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart form: %w", err)
	}

	url := c.baseURL + "/identify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordClassifierCall("unreachable", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordClassifierCall("unreachable", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordClassifierCall("rejected", time.Since(start))
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	metrics.RecordClassifierCall("success", time.Since(start))
	return json.RawMessage(payload), nil
}
