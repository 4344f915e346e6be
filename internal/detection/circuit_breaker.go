// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package detection

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/wastevision/wastevision/internal/logging"
	"github.com/wastevision/wastevision/internal/metrics"
)

// Identifier is the classifier call surface the API layer depends on.
// Both *Client and *BreakerClient satisfy it.
type Identifier interface {
	Identify(ctx context.Context, filename string, image io.Reader) (json.RawMessage, error)
}

// BreakerClient wraps the classifier client with a circuit breaker so a dead
// or flapping classifier fails fast instead of tying up request handlers.
//
// The breaker uses real time for its interval and timeout calculations.
// The timing governs recovery, not data integrity; unit tests should mock
// the wrapped client rather than the breaker.
type BreakerClient struct {
	client Identifier
	cb     *gobreaker.CircuitBreaker[json.RawMessage]
	name   string
}

// NewBreakerClient wraps client with a circuit breaker.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client Identifier) *BreakerClient {
	cbName := "classifier"
	metrics.SetCircuitBreakerState(cbName, 0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.SetCircuitBreakerState(name, stateToFloat(to))
			metrics.RecordCircuitBreakerTransition(name, fromStr, toStr)
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// Identify runs the classifier call under the breaker. When the circuit is
// open the call is rejected immediately; IsBreakerOpen distinguishes that
// from an ordinary classifier failure.
func (bc *BreakerClient) Identify(ctx context.Context, filename string, image io.Reader) (json.RawMessage, error) {
	result, err := bc.cb.Execute(func() (json.RawMessage, error) {
		return bc.client.Identify(ctx, filename, image)
	})
	if err != nil {
		if IsBreakerOpen(err) {
			metrics.ClassifierRequests.WithLabelValues("open").Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		}
		return nil, err
	}
	return result, nil
}

// IsBreakerOpen reports whether err means the breaker rejected the call
// without reaching the classifier.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts circuit breaker state to a numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
