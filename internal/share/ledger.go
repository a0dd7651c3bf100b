package share

import (
	"fmt"
	"strings"
	"time"

	"hisab/internal/core"
)

type (
	// Data is a token-addressed snapshot of one person's history with the owner.
	// Items are stored exactly as the owner recorded them.
	Data struct {
		Token            string              `json:"token"`
		OwnerID          string              `json:"owner_id"`
		OwnerName        string              `json:"owner_name"`
		PersonName       string              `json:"person_name"`
		Transactions     []core.DebtLoanItem `json:"transactions"`
		PaymentQRCodeURL string              `json:"payment_qr_code_url,omitempty"`
		CreatedAt        time.Time           `json:"created_at"`
		ExpiresAt        time.Time           `json:"expires_at"`
	}

	// HistoryEntry is one item as the viewer sees it.
	HistoryEntry struct {
		ID          int64           `json:"id"`
		Type        core.DebtType   `json:"type"`
		Status      core.DebtStatus `json:"status"`
		Amount      core.Money      `json:"amount"`
		Date        string          `json:"date"`
		Description string          `json:"description,omitempty"`
		Label       string          `json:"label"`
	}

	PaymentPrompt struct {
		QRCodeURL string     `json:"qr_code_url"`
		Amount    core.Money `json:"amount"`
		Message   string     `json:"message"`
	}

	// Ledger is the viewer's perspective. NetBalance > 0 means the owner owes
	// the viewer; < 0 means the viewer owes the owner.
	Ledger struct {
		OwnerName     string         `json:"owner_name"`
		PersonName    string         `json:"person_name"`
		TotalLent     core.Money     `json:"total_lent"`
		TotalBorrowed core.Money     `json:"total_borrowed"`
		NetBalance    core.Money     `json:"net_balance"`
		Summary       string         `json:"summary"`
		History       []HistoryEntry `json:"history"`
		PaymentPrompt *PaymentPrompt `json:"payment_prompt,omitempty"`
		ExpiresAt     time.Time      `json:"expires_at"`
	}
)

// ViewerLedger recasts the owner's entries into the viewer's perspective.
// It is a pure function of d and is recomputed on every read.
func ViewerLedger(d Data) Ledger {
	owner := strings.TrimSpace(d.OwnerName)
	if owner == "" {
		owner = "the owner"
	}
	l := Ledger{
		OwnerName:  d.OwnerName,
		PersonName: d.PersonName,
		History:    make([]HistoryEntry, 0, len(d.Transactions)),
		ExpiresAt:  d.ExpiresAt,
	}

	for _, item := range d.Transactions {
		viewerType := item.Type.Invert()
		l.History = append(l.History, HistoryEntry{
			ID:          item.ID,
			Type:        viewerType,
			Status:      item.Status,
			Amount:      item.Amount,
			Date:        item.Date.String(),
			Description: item.Description,
			Label:       viewerLabel(viewerType, owner),
		})

		if !item.IsOutstanding() {
			continue
		}
		switch viewerType {
		case core.Lent:
			l.TotalLent = l.TotalLent.Add(item.Amount)
		case core.Borrowed:
			l.TotalBorrowed = l.TotalBorrowed.Add(item.Amount)
		}
	}

	l.NetBalance = l.TotalLent.Sub(l.TotalBorrowed)
	l.Summary = balanceSummary(l.NetBalance, owner)

	if l.NetBalance.Paisa < 0 && strings.TrimSpace(d.PaymentQRCodeURL) != "" {
		owed := l.NetBalance.Abs()
		l.PaymentPrompt = &PaymentPrompt{
			QRCodeURL: d.PaymentQRCodeURL,
			Amount:    owed,
			Message:   fmt.Sprintf("Scan to pay %s to %s", owed.Format(), owner),
		}
	}
	return l
}

func viewerLabel(t core.DebtType, owner string) string {
	switch t {
	case core.Borrowed:
		return "You borrowed from " + owner
	case core.Lent:
		return "You lent to " + owner
	default:
		return "Entry with " + owner
	}
}

func balanceSummary(net core.Money, owner string) string {
	switch {
	case net.Paisa > 0:
		return fmt.Sprintf("%s owes you %s", owner, net.Format())
	case net.Paisa < 0:
		return fmt.Sprintf("You owe %s %s", owner, net.Abs().Format())
	default:
		return "All settled up with " + owner
	}
}
