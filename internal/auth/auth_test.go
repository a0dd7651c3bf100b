package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func wpClaims(id any, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":  "https://wp.example.com",
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
		"data": map[string]any{"user": map[string]any{"id": id}},
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testSecret)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{"string id", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wpClaims("7", future)), "7", nil},
		{"numeric id", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wpClaims(42, future)), "42", nil},
		{"empty", "", "", ErrMissingToken},
		{"garbage", "not.a.jwt", "", ErrInvalidToken},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("another-secret-value"), wpClaims("7", future)), "", ErrInvalidToken},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wpClaims("7", time.Now().Add(-time.Hour))), "", ErrInvalidToken},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), wpClaims("7", future)), "", ErrInvalidToken},
		{"missing user", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": future.Unix()}), "", ErrInvalidToken},
		{"missing exp", sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"data": map[string]any{"user": map[string]any{"id": "1"}}}), "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.UserID != tt.wantID || id.Token != tt.token || id.ExpiresAt.IsZero() {
				t.Errorf("identity = %+v", id)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if TokenFromRequest(r) != "" {
		t.Error("expected empty token")
	}
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	if got := TokenFromRequest(r); got != "from-cookie" {
		t.Errorf("cookie token = %q", got)
	}
	r.Header.Set("Authorization", "Bearer from-header")
	if got := TokenFromRequest(r); got != "from-header" {
		t.Errorf("header should win, got %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret)
	var seen Identity
	h := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(testSecret), wpClaims("9", time.Now().Add(time.Hour))))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen.UserID != "9" {
		t.Errorf("status = %d, identity = %+v", rec.Code, seen)
	}
}
