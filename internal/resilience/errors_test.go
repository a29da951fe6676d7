package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped", fmt.Errorf("call: %w", NewTransientError(errors.New("429"), 429)), true},
		{"plain", errors.New("invalid api key"), false},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"net timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, true},
		{"message pattern", errors.New("Get \"https://x\": TLS handshake timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("%d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("%d should not be transient", code)
		}
	}
}

func TestCheckStatus(t *testing.T) {
	if err := CheckStatus("svc", 204, nil); err != nil {
		t.Fatalf("2xx should be nil, got %v", err)
	}

	err := CheckStatus("fetcher", 404, []byte("  not here \n"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if se.StatusCode != 404 || se.Body != "not here" {
		t.Errorf("unexpected %+v", se)
	}
	if IsTransient(err) {
		t.Error("404 should not be transient")
	}
	if got := err.Error(); got != "fetcher: unexpected status 404 Not Found: not here" {
		t.Errorf("unexpected message %q", got)
	}

	err = CheckStatus("fetcher", 503, nil)
	if !IsTransient(err) {
		t.Error("503 should be transient")
	}
	if !errors.As(err, &se) || se.StatusCode != 503 {
		t.Error("transient status should still expose StatusError")
	}
}

func TestCheckStatus_TruncatesBody(t *testing.T) {
	body := make([]byte, 1000)
	for i := range body {
		body[i] = 'x'
	}
	var se *StatusError
	if !errors.As(CheckStatus("svc", 400, body), &se) {
		t.Fatal("expected StatusError")
	}
	if len(se.Body) != 256 {
		t.Errorf("expected 256 byte body, got %d", len(se.Body))
	}
}
