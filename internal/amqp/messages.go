package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hisab/internal/finance"
)

// ReportExportMessage carries an already aggregated report. The worker only
// writes rows; it never recomputes or calls back into WordPress.
type ReportExportMessage struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	UserName    string                 `json:"user_name,omitempty"`
	Months      int                    `json:"months"`
	GeneratedAt time.Time              `json:"generated_at"`
	Summary     finance.Summary        `json:"summary"`
	Monthly     []finance.MonthlyData  `json:"monthly"`
	Categories  []finance.CategoryData `json:"categories"`
}

// NewReportExportMessage stamps a fresh id and generation time.
func NewReportExportMessage(userID, userName string, months int, summary finance.Summary, monthly []finance.MonthlyData, categories []finance.CategoryData) *ReportExportMessage {
	return &ReportExportMessage{
		ID:          uuid.NewString(),
		UserID:      userID,
		UserName:    userName,
		Months:      months,
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Monthly:     monthly,
		Categories:  categories,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON decodes and checks a message body.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("report export message missing id or user_id")
	}
	return &msg, nil
}
