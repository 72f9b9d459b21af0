package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies generation-service failures. Only rate-limited and
// transport errors are retried; everything else propagates immediately.
type Kind string

const (
	KindRateLimited       Kind = "rate_limited"
	KindInsufficientQuota Kind = "insufficient_quota"
	KindUnauthorized      Kind = "unauthorized"
	KindBadRequest        Kind = "bad_request"
	KindTransport         Kind = "transport"
)

// Error is a classified generation-service failure.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether the error is transient and may succeed on
// retry.
func IsRetryable(err error) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	switch le.Kind {
	case KindRateLimited, KindTransport:
		return true
	default:
		return false
	}
}

// ErrKind extracts the classification from an error, or "" when the error
// did not come from the generation service.
func ErrKind(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// classify maps a go-openai error to the typed taxonomy. 429 responses are
// split on the quota marker in the API error code: a hard quota exhaustion
// must not be retried the way a rate limit is.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if code, ok := apiErr.Code.(string); ok && strings.Contains(code, "insufficient_quota") {
				return &Error{Kind: KindInsufficientQuota, Cause: err}
			}
			return &Error{Kind: KindRateLimited, Cause: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Kind: KindUnauthorized, Cause: err}
		default:
			if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
				return &Error{Kind: KindBadRequest, Cause: err}
			}
			return &Error{Kind: KindTransport, Cause: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Kind: KindUnauthorized, Cause: err}
		case http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Cause: err}
		}
	}
	// Connection resets, timeouts, DNS failures.
	return &Error{Kind: KindTransport, Cause: err}
}
