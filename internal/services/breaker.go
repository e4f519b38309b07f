package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 2048

// HTTPStatusError reports a non-2xx response from an external service.
type HTTPStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.StatusCode, body)
}

// CheckResponse returns an HTTPStatusError for non-2xx responses, consuming a
// bounded prefix of the body.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPStatusError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
}

// NewBreaker returns the circuit breaker used around one external service.
// It opens after five consecutive failures and probes again after 30 seconds.
// Caller cancellation does not count as a failure.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Guard runs fn through cb. An open breaker surfaces as an external tool
// failure without calling fn.
func Guard[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if cb == nil {
		return fn()
	}
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, Wrap(ErrExternalTool, cb.Name(), "circuit breaker", "service temporarily unavailable", err)
	}
	if err != nil {
		return zero, err
	}
	value, _ := out.(T)
	return value, nil
}
