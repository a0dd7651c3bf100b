package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hisab/internal/core"
	"hisab/internal/finance"
	applog "hisab/internal/log"
)

type transactionRequest struct {
	Title    string     `json:"title"`
	Amount   core.Money `json:"amount"`
	Type     string     `json:"type"`
	Category string     `json:"category"`
	Date     string     `json:"date"`
	Note     string     `json:"note"`
}

// handleListTransactions lists the caller's transactions, newest first.
// With year and month it narrows to that calendar month.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	year, month, filtered, err := parseYearMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := s.deps.WordPress.ListTransactions(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filtered {
		txs = finance.InMonth(txs, year, month)
	}
	if t := strings.ToLower(strings.TrimSpace(q.Get("type"))); t != "" {
		tt, err := core.ParseTransactionType(t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		txs = onlyType(txs, tt)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": nonNil(finance.Recent(txs, len(txs))),
		"count":        len(txs),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	sess, err := session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tt, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx := core.Transaction{
		Title:    sanitizeInput(req.Title),
		Amount:   req.Amount,
		Type:     tt,
		Category: sanitizeInput(req.Category),
		Date:     date,
		Note:     sanitizeInput(req.Note),
	}
	if tx.Category == "" {
		tx.Category = core.UncategorizedLabel
	}
	if err := tx.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.deps.WordPress.CreateTransaction(r.Context(), sess, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction created",
		applog.FieldUserID, sess.UserID,
		applog.FieldOperation, applog.OpCreate,
		"transaction_id", created.ID,
		"type", created.Type)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+strconv.FormatInt(created.ID, 10)).
		Body(created).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.deps.WordPress.DeleteTransaction(r.Context(), sess, id); err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		applog.FieldUserID, sess.UserID,
		applog.FieldOperation, applog.OpDelete,
		"transaction_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// parseYearMonth reads an optional year/month pair. Both or neither must be set.
func parseYearMonth(rawYear, rawMonth string) (int, time.Month, bool, error) {
	rawYear, rawMonth = strings.TrimSpace(rawYear), strings.TrimSpace(rawMonth)
	if rawYear == "" && rawMonth == "" {
		return 0, 0, false, nil
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1 {
		return 0, 0, false, badRequest("invalid year %q", rawYear)
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false, badRequest("invalid month %q", rawMonth)
	}
	return year, time.Month(month), true, nil
}

func onlyType(txs []core.Transaction, t core.TransactionType) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == t {
			out = append(out, tx)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
