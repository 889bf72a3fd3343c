package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/entrhq/distill/pkg/types"
)

// ErrNoCredential is wrapped into ErrServiceUnavailable when a generator is
// asked to run without a configured API key.
var ErrNoCredential = errors.New("no API credential configured")

// ErrEmptyResponse means the service answered but produced no summary text.
var ErrEmptyResponse = errors.New("summarization service returned an empty response")

// Unavailable wraps err as a service-unavailable condition.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrServiceUnavailable, err)
}

// IsUnavailable reports whether err is a service-unavailable condition.
func IsUnavailable(err error) bool {
	return errors.Is(err, types.ErrServiceUnavailable)
}

// ClassifyTransportError maps errors raised while reaching the service.
// Deadlines and network failures become unavailability; caller
// cancellation and everything else pass through.
func ClassifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Unavailable(err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Unavailable(err)
	}
	return err
}

// ClassifyStatus maps an HTTP status from the service. Rate limiting and
// server-side failures are unavailability; other non-2xx statuses are
// request failures.
func ClassifyStatus(status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	err := fmt.Errorf("API request failed with status %d: %s", status, body)
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return Unavailable(err)
	}
	return err
}
