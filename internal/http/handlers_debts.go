package http

import (
	"net/http"
	"strconv"

	"hisab/internal/core"
	"hisab/internal/debtloan"
	applog "hisab/internal/log"
)

type debtRequest struct {
	Person      string     `json:"person"`
	Amount      core.Money `json:"amount"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type debtListResponse struct {
	Filter debtloan.Filter          `json:"filter"`
	Query  string                   `json:"query,omitempty"`
	People []debtloan.PersonSummary `json:"people"`
	Totals debtloan.Totals          `json:"totals"`
}

// handleListDebts groups the caller's debt/loan items by person. filter
// selects by balance sign and q matches person names. Totals always cover
// the whole ledger.
func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := s.deps.WordPress.ListDebtLoans(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := debtloan.ParseFilter(q.Get("filter"))
	query := sanitizeInput(q.Get("q"))

	people := debtloan.GroupByPerson(items)
	people = debtloan.FilterByStatus(people, filter)
	people = debtloan.SearchByName(people, query)

	writeJSON(w, http.StatusOK, debtListResponse{
		Filter: filter,
		Query:  query,
		People: nonNil(people),
		Totals: debtloan.CalculateTotals(items),
	})
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req debtRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	dt, err := core.ParseDebtType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := core.Outstanding
	if req.Status != "" {
		if status, err = core.ParseDebtStatus(req.Status); err != nil {
			writeError(w, r, err)
			return
		}
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item := core.DebtLoanItem{
		Person:      sanitizeInput(req.Person),
		Amount:      req.Amount,
		Type:        dt,
		Status:      status,
		Date:        date,
		Description: sanitizeInput(req.Description),
	}
	if err := item.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.deps.WordPress.CreateDebtLoan(r.Context(), sess, item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogDebtCreated(r.Context(), sess.UserID, created.Person, created.Amount.Paisa)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/debts/"+strconv.FormatInt(created.ID, 10)).
		Body(created).
		Write(w)
}

// handleUpdateDebtStatus marks an item paid or outstanding.
func (s *Server) handleUpdateDebtStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req statusRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := core.ParseDebtStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := s.deps.WordPress.UpdateDebtLoanStatus(r.Context(), sess, id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Debt status updated",
		applog.FieldUserID, sess.UserID,
		applog.FieldOperation, applog.OpUpdate,
		"debt_id", id,
		"status", status)
	writeJSON(w, http.StatusOK, item)
}
