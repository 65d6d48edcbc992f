package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendboard/internal/log"
)

func TestMiddlewareTagsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: log.ComponentHTTP})

	var seenID string
	h := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = GetRequestID(r.Context())
			log.FromContext(r.Context()).Info("inside handler")
			w.WriteHeader(http.StatusTeapot)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/display.png?account=main", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rr.Header().Get("X-Request-ID") != seenID {
		t.Errorf("response header id = %q", rr.Header().Get("X-Request-ID"))
	}

	out := buf.String()
	for _, want := range []string{
		`"msg":"inside handler"`,
		`"request_id":"` + seenID + `"`,
		`"msg":"HTTP request completed"`,
		`"status_code":418`,
		`"client_ip":"198.51.100.1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("id = %q", id)
	}
}

func TestMiddlewareRequestIDFromClient(t *testing.T) {
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: "json", Output: &bytes.Buffer{}})
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"well formed id is kept", "kindle-7f3a_01", true},
		{"empty id is replaced", "", false},
		{"id with spaces is replaced", "bad id", false},
		{"overlong id is replaced", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenID string
			h := NewMiddleware(logger, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.keep && seenID != tt.header {
				t.Fatalf("id = %q, want %q", seenID, tt.header)
			}
			if !tt.keep && !strings.HasPrefix(seenID, "req_") {
				t.Fatalf("id = %q, want generated", seenID)
			}
		})
	}
}

func TestMiddlewareLogsBytesWritten(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	h := NewMiddleware(logger, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
		w.Write([]byte(" world"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/display.png", nil))

	if !strings.Contains(buf.String(), `"bytes":11`) {
		t.Fatalf("log output missing byte count:\n%s", buf.String())
	}
}
