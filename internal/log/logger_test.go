package log

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
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"", "text", "json", "tint"} {
		if _, err := NewHandler(format, slog.LevelInfo, &bytes.Buffer{}); err != nil {
			t.Errorf("NewHandler(%q) error = %v", format, err)
		}
	}
	if _, err := NewHandler("xml", slog.LevelInfo, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentShare, Output: &buf})

	logger.InfoContext(context.Background(), "Share link issued", FieldPerson, "Ram")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if rec[FieldComponent] != ComponentShare || rec[FieldPerson] != "Ram" {
		t.Errorf("record = %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: "text", Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Component: ComponentHTTP, Output: &buf})

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"request_id":"req_1"`) {
		t.Errorf("request id missing from %q", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("unexpected default logger %+v", l)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithError(nil).WithOperation(OpIssue).WithError(errors.New("boom"))
	if f[FieldError] != "boom" || f[FieldOperation] != OpIssue {
		t.Errorf("fields = %v", f)
	}
	if len(f.ToSlice()) != 4 {
		t.Errorf("ToSlice len = %d", len(f.ToSlice()))
	}
}

func TestLogDebtCreated_PersonOnlyAtDebug(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogDebtCreated(context.Background(), "7", "Ram Thapa", 50000)
	if out := buf.String(); strings.Contains(out, "Ram Thapa") || !strings.Contains(out, `"amount_paisa":50000`) {
		t.Errorf("info output = %s", out)
	}

	buf.Reset()
	sl = NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}))
	sl.LogDebtCreated(context.Background(), "7", "Ram Thapa", 50000)
	if !strings.Contains(buf.String(), `"person":"Ram Thapa"`) {
		t.Errorf("debug output missing person: %s", buf.String())
	}
}

func TestLogHTTPEnd_RequestID(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))
	sl.LogHTTPEnd(context.Background(), httptest.NewRequest(http.MethodGet, "/healthz", nil), http.StatusOK, 3, "203.0.113.9", "req_abc")
	if !strings.Contains(buf.String(), `"request_id":"req_abc"`) {
		t.Errorf("request id missing: %s", buf.String())
	}
}
