package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrQuotaExceeded     = errors.New("gemini: quota exceeded")
	ErrUnavailable       = errors.New("gemini: service unavailable")
	ErrRegionUnsupported = errors.New("gemini: service not available in this region")
	ErrRejected          = errors.New("gemini: request rejected")
	ErrMalformedResponse = errors.New("gemini: malformed response")
	ErrEmptyPayload      = errors.New("gemini: empty image payload")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the error onto one of the package sentinels.
func (e *APIError) Unwrap() error {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "location is not supported") ||
		strings.Contains(msg, "user location") ||
		(e.Status == "FAILED_PRECONDITION" && strings.Contains(msg, "location")):
		return ErrRegionUnsupported
	case e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED":
		return ErrQuotaExceeded
	case e.StatusCode >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

func isUnknownFieldError(err error, field string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(apiErr.Message, "Unknown name") && strings.Contains(apiErr.Message, field)
}
