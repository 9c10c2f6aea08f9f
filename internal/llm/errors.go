package llm

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Error represents a failure from the generation backend.
type Error struct {
	// Kind categorizes the error
	Kind string

	// Message is a human-readable error message
	Message string

	// Code is the HTTP status code (if applicable)
	Code int

	// Err is the underlying error
	Err error
}

// Error kinds.
const (
	KindNetwork   = "network"
	KindAPI       = "api"
	KindProbe     = "probe"
	KindParse     = "parse"
	KindRateLimit = "rate_limit"
)

func (e *Error) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("llm %s error (code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewProbeError wraps a failed liveness probe against a backend.
func NewProbeError(model string, err error) *Error {
	return &Error{
		Kind:    KindProbe,
		Message: fmt.Sprintf("probe of model %s failed", model),
		Err:     err,
	}
}

// NewParseError wraps an unusable response body.
func NewParseError(content string, err error) *Error {
	return &Error{
		Kind:    KindParse,
		Message: fmt.Sprintf("unusable model output: %s", content),
		Err:     err,
	}
}

// wrapGenAIError converts a genai SDK error into a typed Error, promoting
// quota exhaustion to its own kind so callers can message it distinctly.
func wrapGenAIError(op string, err error) *Error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		kind := KindAPI
		if apiErr.Code == 429 {
			kind = KindRateLimit
		}
		return &Error{
			Kind:    kind,
			Message: fmt.Sprintf("%s: %s", op, apiErr.Message),
			Code:    apiErr.Code,
			Err:     err,
		}
	}
	if isQuotaText(err) {
		return &Error{
			Kind:    KindRateLimit,
			Message: fmt.Sprintf("%s: %v", op, err),
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// IsRateLimited reports whether err signals quota or rate-limit exhaustion.
func IsRateLimited(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) && llmErr.Kind == KindRateLimit {
		return true
	}
	return isQuotaText(err)
}

// isQuotaText falls back to sniffing the error text for the rate-limit
// signature the API uses.
func isQuotaText(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	return strings.Contains(text, "429") && strings.Contains(strings.ToLower(text), "quota")
}
