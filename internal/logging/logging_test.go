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
)

// captureLogOutput redirects the global logger to a buffer while f runs.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestInitLoggerWithWriter(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		format    Format
		logFunc   func()
		wantEmpty bool
		contains  string
	}{
		{"json info", LevelInfo, FormatJSON, func() { Info("hello", "k", "v") }, false, `"msg":"hello"`},
		{"text info", LevelInfo, FormatText, func() { Info("hello", "k", "v") }, false, "msg=hello"},
		{"debug filtered at info", LevelInfo, FormatJSON, func() { Debug("hidden") }, true, ""},
		{"warn passes at warn", LevelWarn, FormatJSON, func() { Warn("shown") }, false, `"level":"WARN"`},
		{"info filtered at error", LevelError, FormatText, func() { Info("hidden") }, true, ""},
	}

	defer InitLogger(LevelInfo, FormatJSON)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerWithWriter(&buf, tt.level, tt.format)
			tt.logFunc()

			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("output %q does not contain %q", out, tt.contains)
			}
		})
	}
}

func TestReplaceAttrTimestamp(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, LevelInfo, FormatJSON)
	defer InitLogger(LevelInfo, FormatJSON)

	Info("stamp")

	m := decode(t, buf.String())
	ts, ok := m["time"].(string)
	if !ok {
		t.Fatalf("time attr missing: %v", m)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, "error": LevelError}
	for in, want := range levels {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}

	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q; want req-1", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q; want empty", got)
	}

	out := captureLogOutput(func() { InfoContext(ctx, "with id") })
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("expected request_id in %q", out)
	}
}

func TestDomainEvents(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		log    func()
		msg    string
		fields map[string]any
	}{
		{
			name: "corpus built",
			log:  func() { CorpusBuilt(ctx, "KJV", 66, 31102, 31102, 3, 1500*time.Millisecond) },
			msg:  "corpus_built",
			fields: map[string]any{
				"source_id": "KJV", "books": float64(66), "verses": float64(31102),
				"skipped_lines": float64(3), "duration_ms": float64(1500),
			},
		},
		{
			name:   "source fetch",
			log:    func() { SourceFetch(ctx, "LSG", "https://example.org/LSG.txt", 4096, "attempts", 2) },
			msg:    "source_fetch",
			fields: map[string]any{"source_id": "LSG", "bytes": float64(4096), "attempts": float64(2)},
		},
		{
			name:   "source error",
			log:    func() { SourceError(ctx, "WLC", "fetch", errors.New("timeout")) },
			msg:    "source_error",
			fields: map[string]any{"operation": "fetch", "error": "timeout", "level": "ERROR"},
		},
		{
			name:   "match checked",
			log:    func() { MatchChecked(ctx, "verse", 0.9, true) },
			msg:    "match_checked",
			fields: map[string]any{"mode": "verse", "similarity": 0.9, "is_match": true, "level": "DEBUG"},
		},
		{
			name:   "websocket",
			log:    func() { WebSocketEvent("connect", 3) },
			msg:    "websocket_event",
			fields: map[string]any{"event": "connect", "client_count": float64(3)},
		},
		{
			name:   "startup",
			log:    func() { ServerStartup("api", "http", 8080) },
			msg:    "server_startup",
			fields: map[string]any{"server_type": "api", "port": float64(8080)},
		},
		{
			name:   "security",
			log:    func() { SecurityEvent("origin_rejected", "websocket", "origin", "http://evil.example") },
			msg:    "security_event",
			fields: map[string]any{"component": "websocket", "level": "WARN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, captureLogOutput(tt.log))
			if m["msg"] != tt.msg {
				t.Errorf("msg = %v; want %s", m["msg"], tt.msg)
			}
			for k, want := range tt.fields {
				if m[k] != want {
					t.Errorf("%s = %v; want %v", k, m[k], want)
				}
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if id := w.Header().Get("X-Request-ID"); len(id) != 36 || id != seen {
		t.Errorf("generated id = %q, context id = %q", id, seen)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "existing-req-id-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "existing-req-id-123" {
		t.Errorf("existing id not reused, got %q", seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK) // ignored
		_, _ = w.Write([]byte("short and stout"))
	}))

	out := captureLogOutput(func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/check", nil))
		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d; want 418", w.Code)
		}
	})

	m := decode(t, out)
	if m["msg"] != "http_request" || m["status_code"] != float64(http.StatusTeapot) || m["path"] != "/check" {
		t.Errorf("unexpected log entry: %v", m)
	}
	if _, ok := m["request_id"]; !ok {
		t.Error("request_id missing from request log")
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	_, _ = rw.Write([]byte("ok"))
	if !rw.written || rw.statusCode != http.StatusOK {
		t.Errorf("written=%v status=%d", rw.written, rw.statusCode)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}

	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack on a recorder should fail")
	}
}
