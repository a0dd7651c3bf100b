package http

import (
	"net/http"
	"time"

	applog "hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/share"
)

type issueShareRequest struct {
	Person           string `json:"person"`
	PaymentQRCodeURL string `json:"payment_qr_code_url"`
	TTLHours         int    `json:"ttl_hours"`
}

// shareLink is the owner's view of an issued link.
type shareLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	Person    string    `json:"person"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toShareLink(d share.Data) shareLink {
	return shareLink{
		Token:     d.Token,
		URL:       "/api/share/" + d.Token,
		Person:    d.PersonName,
		Items:     len(d.Transactions),
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

func (s *Server) handleIssueShare(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req issueShareRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ttl, err := ParseTTLHours(req.TTLHours)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.deps.Shares.Issue(r.Context(), sess, services.IssueShareRequest{
		OwnerName:        s.ownerName(r.Context(), sess),
		Person:           sanitizeInput(req.Person),
		PaymentQRCodeURL: sanitizeInput(req.PaymentQRCodeURL),
		TTL:              ttl,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	link := toShareLink(d)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", link.URL).
		Body(link).
		Write(w)
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	all, err := s.deps.Shares.List(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	links := make([]shareLink, 0, len(all))
	for _, d := range all {
		links = append(links, toShareLink(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.deps.Shares.Revoke(r.Context(), sess, r.PathValue("token")); err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "Share link revoked",
		applog.FieldUserID, sess.UserID,
		applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// handleViewShare is public: the token is the credential.
func (s *Server) handleViewShare(w http.ResponseWriter, r *http.Request) {
	ledger, err := s.deps.Shares.View(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}
