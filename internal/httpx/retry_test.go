package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var fastRetry = RetryConfig{
	MaxRetries:  3,
	InitialWait: time.Millisecond,
	MaxWait:     5 * time.Millisecond,
	Multiplier:  2.0,
}

func TestRetryHTTP_RetriesRateLimitThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastRetry, func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	if err != nil {
		t.Fatalf("RetryHTTP: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryHTTP_NonRetryableStatusPassesThrough(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	resp, err := RetryHTTP(context.Background(), fastRetry, func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	if err != nil {
		t.Fatalf("RetryHTTP: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden || calls != 1 {
		t.Errorf("status = %d after %d calls, want one 403 passed through", resp.StatusCode, calls)
	}
}

func TestRetryDo_NonRetryableErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
		calls++
		return 0, errors.New("bad request body")
	})
	if err == nil {
		t.Fatal("want error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-transient error)", calls)
	}
}

func TestRetryDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func() (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusServiceUnavailable}
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if calls != fastRetry.MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, fastRetry.MaxRetries+1)
	}
}

func TestBackoffWait(t *testing.T) {
	rc := RetryConfig{InitialWait: time.Second, MaxWait: time.Minute, Multiplier: 2.0}
	plain := errors.New("timeout")

	if got := backoffWait(rc, 0, plain); got != time.Second {
		t.Errorf("attempt 0 = %v", got)
	}
	if got := backoffWait(rc, 2, plain); got != 4*time.Second {
		t.Errorf("attempt 2 = %v", got)
	}

	// Server-requested wait overrides the computed backoff.
	rateLimited := &StatusError{StatusCode: 429, RetryAfter: 30 * time.Second}
	if got := backoffWait(rc, 0, rateLimited); got != 30*time.Second {
		t.Errorf("retry-after override = %v", got)
	}

	// But never past the cap.
	patient := &StatusError{StatusCode: 429, RetryAfter: 10 * time.Minute}
	if got := backoffWait(rc, 0, patient); got != time.Minute {
		t.Errorf("capped wait = %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{"0", 0},
		{"-5", 0},
		{"soon", 0},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.header); got != tc.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}

	// HTTP-date form: a timestamp in the future yields a positive wait, a
	// past one yields zero.
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("future date = %v", got)
	}
	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(past); got != 0 {
		t.Errorf("past date = %v", got)
	}
}
