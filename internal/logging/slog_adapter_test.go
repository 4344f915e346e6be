// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandlerHandle(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger()

	tests := []struct {
		name    string
		logFunc func()
		level   string
	}{
		{"debug", func() { logger.Debug("debug msg") }, "debug"},
		{"info", func() { logger.Info("info msg") }, "info"},
		{"warn", func() { logger.Warn("warn msg") }, "warn"},
		{"error", func() { logger.Error("error msg") }, "error"},
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()
			output := buf.String()
			if !strings.Contains(output, tt.name+" msg") {
				t.Errorf("expected message in output: %s", output)
			}
			if !strings.Contains(output, `"level":"`+tt.level+`"`) {
				t.Errorf("expected level %q in output: %s", tt.level, output)
			}
		})
	}
}

func TestSlogHandlerAttributes(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger()
	logger.Info("attrs",
		slog.String("service", "http-server"),
		slog.Int("restarts", 3),
		slog.Bool("healthy", true),
		slog.Duration("backoff", 15*time.Second),
	)

	output := buf.String()
	for _, want := range []string{`"service":"http-server"`, `"restarts":3`, `"healthy":true`, `"backoff":15000`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger().With(slog.String("supervisor", "root"))
	logger.Info("pre-configured")

	output := buf.String()
	if !strings.Contains(output, `"supervisor":"root"`) {
		t.Errorf("expected pre-configured attr in output: %s", output)
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger().WithGroup("svc")
	logger.Info("grouped", slog.String("name", "badger-gc"))

	output := buf.String()
	if !strings.Contains(output, `"svc.name":"badger-gc"`) {
		t.Errorf("expected group-prefixed key in output: %s", output)
	}
}

func TestSlogHandlerWithGroupEmpty(t *testing.T) {
	t.Parallel()

	h := NewSlogHandler()
	if h.WithGroup("") != h {
		t.Error("expected empty group to return same handler")
	}
}

func TestSlogHandlerError(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))

	logger := NewSlogLogger()
	logger.Error("failed", slog.Any("err", errors.New("boom")))

	output := buf.String()
	if !strings.Contains(output, "boom") {
		t.Errorf("expected error value in output: %s", output)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	h := &SlogHandler{logger: zerolog.New(nil).Level(zerolog.WarnLevel)}

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error enabled at warn level")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
