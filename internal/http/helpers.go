package http

import (
	"context"
	"net/http"

	"hisab/internal/auth"
	"hisab/internal/core"
	applog "hisab/internal/log"
	"hisab/internal/wordpress"
)

// session returns the WordPress session of the authenticated caller.
func session(r *http.Request) (wordpress.Session, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return wordpress.Session{}, auth.ErrMissingToken
	}
	return wordpress.Session{UserID: id.UserID, Token: id.Token}, nil
}

// ownerName looks up the caller's display name. A failed lookup is logged
// and yields "", since the name is cosmetic.
func (s *Server) ownerName(ctx context.Context, sess wordpress.Session) string {
	u, err := s.deps.WordPress.CurrentUser(ctx, sess)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not resolve user name",
			applog.FieldUserID, sess.UserID,
			applog.FieldError, err)
		return ""
	}
	return u.Name
}

// parseDate parses an optional YYYY-MM-DD date. Empty means today.
func (s *Server) parseDate(raw string) (core.Date, error) {
	if raw = sanitizeInput(raw); raw == "" {
		now := s.now()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	d, ok := core.ParseDate(raw)
	if !ok {
		return core.Date{}, core.ErrInvalidDate
	}
	return d, nil
}
