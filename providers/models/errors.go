package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrCapacityExceeded means the request was too large for the model's
	// input window. The caller should split the request and retry.
	ErrCapacityExceeded = errors.New("model capacity exceeded")
	// ErrRateLimited means the provider refused the request because of quota.
	ErrRateLimited = errors.New("rate limited")
	// ErrResponseInvalid means the provider answered with a body that could
	// not be decoded.
	ErrResponseInvalid = errors.New("response invalid")
)

var capacityMarkers = []string{
	"context length",
	"context_length_exceeded",
	"maximum context",
	"too many tokens",
	"prompt is too long",
	"request too large",
}

// IsCapacityMessage reports whether an error text describes an oversized input.
func IsCapacityMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range capacityMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// StatusError maps a failed HTTP exchange to an error wrapping the matching
// sentinel, when there is one.
func StatusError(provider string, status int, message string) error {
	message = strings.TrimSpace(message)
	switch {
	case status == http.StatusRequestEntityTooLarge || IsCapacityMessage(message):
		return fmt.Errorf("%s request failed with status code '%d' - %s: %w", provider, status, message, ErrCapacityExceeded)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s request failed with status code '%d' - %s: %w", provider, status, message, ErrRateLimited)
	default:
		return fmt.Errorf("%s request failed with status code '%d' - %s", provider, status, message)
	}
}
