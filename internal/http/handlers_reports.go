package http

import (
	"bytes"
	"net/http"
	"strconv"

	applog "hisab/internal/log"
	"hisab/internal/reports"
	"hisab/internal/services"
)

// handleStatement renders the PDF statement. The document is rendered into
// memory first so a failure can still be reported as JSON.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
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

	st, err := s.deps.Finance.Statement(r.Context(), sess, s.ownerName(r.Context(), sess), months)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.RenderStatement(&buf, st); err != nil {
		writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Statement rendered",
		applog.FieldUserID, sess.UserID,
		applog.FieldOperation, applog.OpRender,
		"bytes", buf.Len())

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+st.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleExport queues a report export for the worker.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
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
	if s.deps.Reports == nil {
		writeError(w, r, services.ErrExportDisabled)
		return
	}

	msg, err := s.deps.Reports.Export(r.Context(), sess, s.ownerName(r.Context(), sess), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":           msg.ID,
		"months":       msg.Months,
		"generated_at": msg.GeneratedAt,
	})
}
