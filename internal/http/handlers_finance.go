package http

import (
	"net/http"
	"strings"

	"hisab/internal/core"
	"hisab/internal/finance"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := ParseMonths(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := s.deps.Finance.Dashboard(r.Context(), sess, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleSummary totals every transaction the caller has.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.transactions(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, finance.CalculateSummary(txs))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months, err := ParseMonths(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, ok := s.transactions(w, r)
	if !ok {
		return
	}

	months = finance.ClampMonths(months)
	writeJSON(w, http.StatusOK, map[string]any{
		"months":  months,
		"monthly": finance.MonthlyDataAt(txs, months, s.now()),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	if raw != "" && raw != string(core.Income) && raw != string(core.Expense) {
		writeError(w, r, badRequest("type must be income or expense"))
		return
	}
	txs, ok := s.transactions(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":       raw,
		"categories": finance.GetCategoryData(txs, finance.ParseTypeFilter(raw)),
	})
}

func (s *Server) handleDefaultCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": core.GetDefaultCategories()})
}

// transactions loads the caller's transactions or writes the error.
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) ([]core.Transaction, bool) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	txs, err := s.deps.WordPress.ListTransactions(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return txs, true
}
