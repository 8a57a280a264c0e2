package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured       = errors.New("upstream credential not configured")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrGenerationFailed    = errors.New("insight generation failed")
	ErrInvalidTickers      = errors.New("invalid tickers")
)

// UpstreamError records one failed provider call. Kind is one of the sentinels above.
type UpstreamError struct {
	Op     string
	Status int
	Kind   error
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == e.Kind }

// ErrorKind names the failure class for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, ErrGenerationFailed):
		return "generation"
	default:
		return "unknown"
	}
}
