// Package share issues and resolves time-boxed, read-only ledger links.
//
// A link freezes one person's entries at issue time. Resolving it returns
// the stored snapshot; the viewer-side balance is always derived on read
// by ViewerLedger and never stored.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"hisab/internal/core"
	"hisab/internal/debtloan"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	MaxTTL     = 30 * 24 * time.Hour
)

var (
	ErrNotFound       = errors.New("share link not found")
	ErrExpired        = errors.New("share link expired")
	ErrNoTransactions = errors.New("no transactions for person")
	ErrForbidden      = errors.New("share link belongs to another owner")
	ErrInvalidRequest = errors.New("invalid share request")
)

// Store persists snapshots by token.
type Store interface {
	Save(ctx context.Context, d Data) error
	Get(ctx context.Context, token string) (Data, error) // ErrNotFound when missing
	Delete(ctx context.Context, token string) error      // ErrNotFound when missing
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Data, error)
}

type IssueRequest struct {
	OwnerID          string
	OwnerName        string
	Person           string
	Items            []core.DebtLoanItem // the owner's whole ledger; filtered by Person
	PaymentQRCodeURL string
	TTL              time.Duration
}

type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a share service. A non-positive defaultTTL means DefaultTTL.
func NewService(store Store, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Service{store: store, ttl: defaultTTL, now: time.Now}
}

// Issue snapshots the person's entries and stores them under a fresh token.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (Data, error) {
	person := strings.TrimSpace(req.Person)
	if person == "" || strings.TrimSpace(req.OwnerID) == "" {
		return Data{}, ErrInvalidRequest
	}

	qr, ok := paymentURL(req.PaymentQRCodeURL)
	if !ok {
		return Data{}, fmt.Errorf("%w: payment QR code URL must be http or https", ErrInvalidRequest)
	}

	items := debtloan.ItemsForPerson(req.Items, person)
	if len(items) == 0 {
		return Data{}, ErrNoTransactions
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.ttl
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	now := s.now().UTC()
	d := Data{
		Token:            NewToken(),
		OwnerID:          req.OwnerID,
		OwnerName:        strings.TrimSpace(req.OwnerName),
		PersonName:       items[0].Person,
		Transactions:     items,
		PaymentQRCodeURL: qr,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
	if err := s.store.Save(ctx, d); err != nil {
		return Data{}, fmt.Errorf("save share link: %w", err)
	}

	slog.InfoContext(ctx, "Share link issued",
		"owner_id", d.OwnerID,
		"items", len(items),
		"expires_at", d.ExpiresAt)
	return d, nil
}

// paymentURL accepts an empty value or an absolute http(s) URL. The link is
// handed to unauthenticated viewers, so no other scheme is stored.
func paymentURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String(), true
	}
	return "", false
}

// Resolve returns the snapshot for token. Expired links return ErrExpired and
// are never handed to the ledger computation.
func (s *Service) Resolve(ctx context.Context, token string) (Data, error) {
	token = strings.TrimSpace(token)
	if !ValidToken(token) {
		return Data{}, ErrNotFound
	}
	d, err := s.store.Get(ctx, token)
	if err != nil {
		return Data{}, err
	}
	if !s.now().Before(d.ExpiresAt) {
		return Data{}, ErrExpired
	}
	return d, nil
}

// View resolves token and computes the viewer's ledger.
func (s *Service) View(ctx context.Context, token string) (Ledger, error) {
	d, err := s.Resolve(ctx, token)
	if err != nil {
		return Ledger{}, err
	}
	return ViewerLedger(d), nil
}

// Revoke deletes a link owned by ownerID.
func (s *Service) Revoke(ctx context.Context, ownerID, token string) error {
	d, err := s.store.Get(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if d.OwnerID != ownerID {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, d.Token); err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	slog.InfoContext(ctx, "Share link revoked", "owner_id", ownerID)
	return nil
}

// List returns the owner's links that have not expired yet.
func (s *Service) List(ctx context.Context, ownerID string) ([]Data, error) {
	all, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	now := s.now()
	out := make([]Data, 0, len(all))
	for _, d := range all {
		if now.Before(d.ExpiresAt) {
			out = append(out, d)
		}
	}
	return out, nil
}

// PurgeExpired removes every expired snapshot.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired share links: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Purged expired share links", "count", n)
	}
	return n, nil
}

// NewToken returns an opaque 32-character hex token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidToken reports whether s has the shape of a token from NewToken.
func ValidToken(s string) bool {
	if len(s) != 32 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
