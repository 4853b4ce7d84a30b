package ui

import (
	"net/http"

	"datalens/domain/summary"
	apperrors "datalens/internal/errors"
)

// handleSummary renders descriptive statistics for the working table
func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	sess.Lock()
	t := sess.Cleaned.Clone()
	sess.Unlock()

	tableSummary, err := summary.Describe(r.Context(), t)
	if err != nil {
		a.writeError(w, apperrors.Wrap(err, "failed to summarize table"))
		return
	}

	if isHTMX(r) || r.URL.Query().Get("format") == "html" {
		a.renderTemplate(w, "summary.html", tableSummary)
		return
	}
	a.writeJSON(w, http.StatusOK, tableSummary)
}

// handleMissing reports per-column missing counts
func (a *App) handleMissing(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	type columnMissing struct {
		Column  string  `json:"column"`
		Missing int     `json:"missing"`
		Rate    float64 `json:"rate"`
	}

	sess.Lock()
	t := sess.Cleaned
	rows := t.RowCount()
	out := make([]columnMissing, 0, len(t.Headers))
	for _, h := range t.Headers {
		missing := t.MissingCount(h)
		rate := 0.0
		if rows > 0 {
			rate = float64(missing) / float64(rows)
		}
		out = append(out, columnMissing{Column: h, Missing: missing, Rate: rate})
	}
	total := t.MissingTotal()
	sess.Unlock()

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": out,
		"total":   total,
	})
}
