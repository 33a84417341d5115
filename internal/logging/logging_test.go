package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// TestParseLevel - Level names
// ---------------------------------------------------------------------------

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrUnknownLevel", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestNew - Handler selection, level filtering, timestamps
// ---------------------------------------------------------------------------

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("html_rewrite", "bytes", 42)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered):\n%s", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "html_rewrite" {
		t.Errorf("msg = %v, want html_rewrite", record["msg"])
	}
	ts, ok := record["time"].(string)
	if !ok {
		t.Fatalf("time = %v, want string", record["time"])
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestNew_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "debug", "text")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("listening", "addr", "127.0.0.1:8080")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "addr=127.0.0.1:8080") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, "loud", "text"); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("New(level=loud) error = %v, want ErrUnknownLevel", err)
	}
	if _, err := New(&bytes.Buffer{}, "info", "xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("New(format=xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() logger should not be enabled at any level")
	}
}

// ---------------------------------------------------------------------------
// TestRequestID - Context helpers
// ---------------------------------------------------------------------------

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(empty) = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "abc")
	if got := RequestID(ctx); got != "abc" {
		t.Errorf("RequestID() = %q, want %q", got, "abc")
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	FromContext(WithRequestID(context.Background(), "req-1"), base).Info("x")
	FromContext(context.Background(), base).Info("y")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"request_id":"req-1"`) {
		t.Errorf("first line missing request_id: %s", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("second line should have no request_id: %s", lines[1])
	}
}

// ---------------------------------------------------------------------------
// TestMiddleware - Request IDs and access log
// ---------------------------------------------------------------------------

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var seenID string
	handler := Middleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ru/post/1/", nil))

	if _, err := uuid.Parse(seenID); err != nil {
		t.Errorf("request ID %q is not a UUID: %v", seenID, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seenID {
		t.Errorf("header %s = %q, want %q", RequestIDHeader, got, seenID)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("access log is not one JSON line: %v\n%s", err, buf.String())
	}
	if record["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", record["msg"])
	}
	if record["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("status_code = %v, want %d", record["status_code"], http.StatusTeapot)
	}
	if record["path"] != "/ru/post/1/" {
		t.Errorf("path = %v, want /ru/post/1/", record["path"])
	}
	if record["bytes"] != float64(len("short and stout")) {
		t.Errorf("bytes = %v, want %d", record["bytes"], len("short and stout"))
	}
	if record["request_id"] != seenID {
		t.Errorf("request_id = %v, want %q", record["request_id"], seenID)
	}
}

func TestMiddleware_IncomingRequestID(t *testing.T) {
	t.Parallel()

	incoming := uuid.NewString()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid UUID is reused", incoming, true},
		{"garbage is replaced", "<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := Middleware(Discard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if (got == tt.header) != tt.keep {
				t.Errorf("response ID = %q, incoming %q, keep = %v", got, tt.header, tt.keep)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200 when handler writes nothing", rec.Code)
			}
		})
	}
}
