package http

import (
	"fmt"
	"net/http"
	"time"

	"hisab/internal/auth"
	applog "hisab/internal/log"
	"hisab/internal/wordpress"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email,omitempty"`
	Token       string     `json:"token"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// handleLogin exchanges WordPress credentials for a JWT and stores it in the
// session cookie. The token is also returned for Bearer clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Username = sanitizeInput(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, r, badRequest("username and password are required"))
		return
	}

	res, err := s.deps.WordPress.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// A token we cannot verify means WP_JWT_SECRET does not match WordPress.
	id, err := s.deps.Verifier.Verify(res.Token)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: login token rejected: %v", wordpress.ErrUpstream, err))
		return
	}

	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	resp := loginResponse{
		UserID:      id.UserID,
		DisplayName: res.DisplayName,
		Email:       res.Email,
		Token:       res.Token,
	}
	if !id.ExpiresAt.IsZero() {
		cookie.Expires = id.ExpiresAt
		resp.ExpiresAt = &id.ExpiresAt
	}
	http.SetCookie(w, cookie)

	s.logger.InfoContext(r.Context(), "User logged in",
		applog.FieldUserID, id.UserID,
		applog.FieldOperation, applog.OpLogin)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.deps.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
