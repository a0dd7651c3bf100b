package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hisab/internal/share"
	"hisab/internal/wordpress"
)

// ShareService issues share links from the owner's live ledger and counts
// link activity.
type ShareService struct {
	debts   DebtLister
	shares  *share.Service
	metrics ShareRecorder
}

func NewShareService(debts DebtLister, shares *share.Service, metrics ShareRecorder) *ShareService {
	return &ShareService{debts: debts, shares: shares, metrics: metrics}
}

type IssueShareRequest struct {
	OwnerName        string
	Person           string
	PaymentQRCodeURL string
	TTL              time.Duration
}

// Issue snapshots the named person's current entries.
func (s *ShareService) Issue(ctx context.Context, sess wordpress.Session, req IssueShareRequest) (share.Data, error) {
	items, err := s.debts.ListDebtLoans(ctx, sess)
	if err != nil {
		return share.Data{}, fmt.Errorf("list debts: %w", err)
	}
	d, err := s.shares.Issue(ctx, share.IssueRequest{
		OwnerID:          sess.UserID,
		OwnerName:        req.OwnerName,
		Person:           req.Person,
		Items:            items,
		PaymentQRCodeURL: req.PaymentQRCodeURL,
		TTL:              req.TTL,
	})
	if err != nil {
		return share.Data{}, err
	}
	if s.metrics != nil {
		s.metrics.ShareIssued()
	}
	return d, nil
}

// View resolves a public token into the viewer's ledger.
func (s *ShareService) View(ctx context.Context, token string) (share.Ledger, error) {
	l, err := s.shares.View(ctx, token)
	if s.metrics != nil {
		s.metrics.ShareViewed(viewOutcome(err))
	}
	return l, err
}

func (s *ShareService) Revoke(ctx context.Context, sess wordpress.Session, token string) error {
	return s.shares.Revoke(ctx, sess.UserID, token)
}

func (s *ShareService) List(ctx context.Context, sess wordpress.Session) ([]share.Data, error) {
	return s.shares.List(ctx, sess.UserID)
}

// PurgeExpired removes expired links and counts them.
func (s *ShareService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.shares.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil && n > 0 {
		s.metrics.SharePurged(n)
	}
	return n, nil
}

func viewOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, share.ErrExpired):
		return "expired"
	case errors.Is(err, share.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
