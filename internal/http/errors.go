package http

import (
	"context"
	"errors"
	"net/http"

	"hisab/internal/auth"
	"hisab/internal/core"
	applog "hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/share"
	"hisab/internal/wordpress"
)

// statusFor maps a domain error to a status code and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrEmptyPerson),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrDescriptionSize),
		errors.Is(err, share.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, wordpress.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, share.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, share.ErrNoTransactions):
		return http.StatusNotFound, "no transactions for this person"
	case errors.Is(err, share.ErrNotFound), errors.Is(err, wordpress.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, share.ErrExpired):
		return http.StatusGone, "share link expired"
	case errors.Is(err, wordpress.ErrUpstream):
		return http.StatusBadGateway, "upstream service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	case errors.Is(err, services.ErrExportDisabled):
		return http.StatusServiceUnavailable, "report export is not configured"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError logs and writes err as a JSON error. Server-side failures log
// the full error; the client only sees the mapped message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)

	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
		fields[applog.FieldStatusCode] = status
		applog.NewStructuredLogger(logger).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operationFor(r.Method), fields)
	} else {
		logger.WithComponent(applog.ComponentHTTP).DebugContext(r.Context(), "Request rejected",
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, status,
			applog.FieldError, err)
	}

	ErrorResponse(status, msg).Write(w)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	default:
		return applog.OpRead
	}
}
