package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			"rate limit",
			&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			KindRateLimited,
		},
		{
			"quota exhausted",
			&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"},
			KindInsufficientQuota,
		},
		{
			"bad key",
			&openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			KindUnauthorized,
		},
		{
			"forbidden",
			&openai.APIError{HTTPStatusCode: http.StatusForbidden},
			KindUnauthorized,
		},
		{
			"invalid request",
			&openai.APIError{HTTPStatusCode: http.StatusBadRequest},
			KindBadRequest,
		},
		{
			"server error",
			&openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			KindTransport,
		},
		{
			"request error unauthorized",
			&openai.RequestError{HTTPStatusCode: http.StatusUnauthorized, Err: errors.New("401")},
			KindUnauthorized,
		},
		{
			"plain network error",
			errors.New("dial tcp: connection refused"),
			KindTransport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("classify(%v).Kind = %q, want %q", tt.err, got.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) && got.Cause != tt.err {
				t.Errorf("classified error should wrap the cause")
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindRateLimited, true},
		{KindTransport, true},
		{KindInsufficientQuota, false},
		{KindUnauthorized, false},
		{KindBadRequest, false},
	}
	for _, tt := range tests {
		err := &Error{Kind: tt.kind, Cause: errors.New("x")}
		if got := IsRetryable(err); got != tt.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.kind, got, tt.want)
		}
		// Classification survives wrapping.
		wrapped := fmt.Errorf("generate guide: %w", err)
		if got := IsRetryable(wrapped); got != tt.want {
			t.Errorf("IsRetryable(wrapped %s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("unclassified errors are not retryable")
	}
}

func TestErrKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", &Error{Kind: KindRateLimited, Cause: errors.New("429")})
	if got := ErrKind(err); got != KindRateLimited {
		t.Errorf("ErrKind = %q, want %q", got, KindRateLimited)
	}
	if got := ErrKind(errors.New("plain")); got != "" {
		t.Errorf("ErrKind(plain) = %q, want empty", got)
	}
}
