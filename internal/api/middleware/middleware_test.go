package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(seen) != 36 {
		t.Errorf("expected a UUID in context, got %q", seen)
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q does not match context %q", got, seen)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	tests := []struct {
		in   string
		keep bool
	}{
		{"abc-123", true},
		{"has space", false},
		{strings.Repeat("x", 200), false},
	}
	for _, tt := range tests {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, tt.in)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == tt.in) != tt.keep {
			t.Errorf("incoming %q: got %q, keep=%v", tt.in, seen, tt.keep)
		}
	}
}

func TestLogging_ScrubsAndTags(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resolve?q=kind+of+blue&api_key=s3cret", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"status":404`, `q=kind+of+blue`, `api_key=REDACTED`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
	if strings.Contains(line, "s3cret") {
		t.Errorf("secret leaked into log: %s", line)
	}
}

func TestScrubQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"q=blue", "q=blue"},
		{"q=blue&token=abc", "q=blue&token=REDACTED"},
		{"Authorization=x&flag", "Authorization=REDACTED&flag"},
	}
	for _, tt := range tests {
		if got := scrubQuery(tt.in); got != tt.want {
			t.Errorf("scrubQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
