package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hisab/internal/auth"
	"hisab/internal/core"
	applog "hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/share"
	"hisab/internal/wordpress"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"parse error", badRequest("months"), http.StatusBadRequest},
		{"invalid amount", fmt.Errorf("create: %w", core.ErrInvalidAmount), http.StatusBadRequest},
		{"empty person", core.ErrEmptyPerson, http.StatusBadRequest},
		{"share request", share.ErrInvalidRequest, http.StatusBadRequest},
		{"missing token", auth.ErrMissingToken, http.StatusUnauthorized},
		{"wordpress 401", fmt.Errorf("list: %w", wordpress.ErrUnauthorized), http.StatusUnauthorized},
		{"foreign share", share.ErrForbidden, http.StatusForbidden},
		{"no transactions", share.ErrNoTransactions, http.StatusNotFound},
		{"unknown share", share.ErrNotFound, http.StatusNotFound},
		{"wordpress 404", wordpress.ErrNotFound, http.StatusNotFound},
		{"expired share", share.ErrExpired, http.StatusGone},
		{"upstream", fmt.Errorf("list: %w", wordpress.ErrUpstream), http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"export disabled", services.ErrExportDisabled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	writeError(rr, req, errors.New("pq: password authentication failed"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"error\":\"internal server error\"}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestWriteError_LogsServerFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Format: "json", Output: &buf})

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", nil)
	req = req.WithContext(applog.WithLogger(req.Context(), logger))
	writeError(httptest.NewRecorder(), req, errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{`"msg":"Request failed"`, `"error":"disk full"`, `"operation":"create"`, `"status_code":500`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s: %s", want, out)
		}
	}

	buf.Reset()
	writeError(httptest.NewRecorder(), req, share.ErrNotFound)
	if strings.Contains(buf.String(), "Request failed") {
		t.Errorf("client errors must not log at error level: %s", buf.String())
	}
}

func TestOperationFor(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    applog.OpRead,
		http.MethodPost:   applog.OpCreate,
		http.MethodPatch:  applog.OpUpdate,
		http.MethodDelete: applog.OpDelete,
	}
	for method, want := range tests {
		if got := operationFor(method); got != want {
			t.Errorf("operationFor(%s) = %q, want %q", method, got, want)
		}
	}
}
