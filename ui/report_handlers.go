package ui

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"datalens/domain/cleaning"
	apperrors "datalens/internal/errors"
	"datalens/internal/report"
)

// buildReport snapshots the session and renders the markdown report
func (a *App) buildReport(r *http.Request) (string, string, error) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		return "", "", err
	}

	sess.Lock()
	in := report.Input{
		Filename:    sess.Filename,
		Sheet:       sess.Sheet,
		UploadedAt:  sess.CreatedAt,
		Table:       sess.Cleaned.Clone(),
		CleaningLog: append([]cleaning.LogEntry(nil), sess.Log...),
	}
	filename := sess.Filename
	sess.Unlock()

	md, err := report.Generate(r.Context(), in)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate report")
	}
	return md, filename, nil
}

// handleReportDownload serves the report as a plain-text attachment
func (a *App) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	md, filename, err := a.buildReport(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	base := strings.TrimSuffix(filename, ".csv")
	base = strings.TrimSuffix(base, ".xlsx")
	download := fmt.Sprintf("%s_report_%s.txt", base, time.Now().Format("20060102"))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download))
	w.Write([]byte(md))
}

// handleReportPreview renders the report as an HTML fragment
func (a *App) handleReportPreview(w http.ResponseWriter, r *http.Request) {
	md, _, err := a.buildReport(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.renderTemplate(w, "report.html", map[string]interface{}{
		"Body": template.HTML(report.ToHTML(md)),
	})
}
