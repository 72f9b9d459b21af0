package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const completionJSON = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "modelo",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "hola"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 7, "completion_tokens": 2, "total_tokens": 9}
}`

// fakeEndpoint serves scripted HTTP statuses, then the canned completion,
// and counts how many calls it saw.
func fakeEndpoint(t *testing.T, statuses ...int) (*Client, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := *calls
		*calls++
		w.Header().Set("Content-Type", "application/json")
		if i < len(statuses) {
			w.WriteHeader(statuses[i])
			switch statuses[i] {
			case http.StatusTooManyRequests:
				w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "requests"}}`))
			case http.StatusUnauthorized:
				w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
			default:
				w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			}
			return
		}
		w.Write([]byte(completionJSON))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/v1", "test-key", "modelo")
	c.retryBase = time.Millisecond
	return c, calls
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	c, calls := fakeEndpoint(t, http.StatusTooManyRequests, http.StatusTooManyRequests)

	res, err := c.Generate(context.Background(), Request{System: "s", User: "u"})
	if err != nil {
		t.Fatalf("Generate after retries: %v", err)
	}
	if res.Text != "hola" {
		t.Errorf("Text = %q, want %q", res.Text, "hola")
	}
	if *calls != 3 {
		t.Errorf("endpoint saw %d calls, want 3", *calls)
	}
}

func TestGenerateRetriesAreBounded(t *testing.T) {
	c, calls := fakeEndpoint(t,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests)

	_, err := c.Generate(context.Background(), Request{User: "u"})
	if err == nil {
		t.Fatal("want error when every attempt is rate limited")
	}
	if kind := ErrKind(err); kind != KindRateLimited {
		t.Errorf("ErrKind = %q, want %q", kind, KindRateLimited)
	}
	if *calls != defaultMaxAttempts {
		t.Errorf("endpoint saw %d calls, want %d", *calls, defaultMaxAttempts)
	}
}

func TestGenerateDoesNotRetryAuthFailure(t *testing.T) {
	c, calls := fakeEndpoint(t, http.StatusUnauthorized, http.StatusUnauthorized)

	_, err := c.Generate(context.Background(), Request{User: "u"})
	if err == nil {
		t.Fatal("want error for auth failure")
	}
	if kind := ErrKind(err); kind != KindUnauthorized {
		t.Errorf("ErrKind = %q, want %q", kind, KindUnauthorized)
	}
	if *calls != 1 {
		t.Errorf("endpoint saw %d calls, want 1", *calls)
	}
}
