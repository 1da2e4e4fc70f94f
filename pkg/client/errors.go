package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultRateLimitMessage is shown when a 429 carries no message.
const DefaultRateLimitMessage = "您今日的AI助手使用次数已达上限，请明天再试"

const rateLimitMarker = "使用次数已达上限"

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	URI     string
	Code    int
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URI, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URI, e.Code)
}

// Transient reports whether the failure is worth retrying.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusInternalServerError || e.Code == http.StatusServiceUnavailable
}

// RateLimitError is returned when the daily assistant quota is used up.
type RateLimitError struct {
	Message string
	// Data is the raw response body.
	Data json.RawMessage
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// IsRateLimit reports whether err signals an exhausted usage quota.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), rateLimitMarker)
}

// IsRateLimitResponse reports whether a 2xx envelope still carries a
// rate-limit failure.
func IsRateLimitResponse[T any](resp *Response[T]) bool {
	if resp == nil || resp.Success {
		return false
	}
	return resp.Code == http.StatusTooManyRequests || strings.Contains(resp.Message, rateLimitMarker)
}

// IsTransient reports whether err is a 500 or 503 response.
func IsTransient(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Transient()
}
