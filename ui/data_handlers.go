package ui

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"datalens/adapters/tabular"
	"datalens/domain/catalog"
	"datalens/domain/cleaning"
	apperrors "datalens/internal/errors"
	"datalens/internal/session"
)

// handleUpload receives a CSV or Excel file, stores it, and loads it into
// the session. Multi-sheet workbooks pause for sheet selection instead of
// loading immediately.
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	log.Printf("[handleUpload] Starting file upload process")
	sess := a.ensureSession(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		log.Printf("[handleUpload] FAILED - Could not parse form: %v", err)
		a.writeError(w, apperrors.InvalidInput(fmt.Sprintf("upload exceeds the %dMB limit or is malformed", a.maxUploadBytes/(1024*1024))))
		return
	}

	file, header, err := r.FormFile("dataset")
	if err != nil {
		log.Printf("[handleUpload] FAILED - No file uploaded: %v", err)
		a.writeError(w, apperrors.InvalidInput("no file uploaded"))
		return
	}
	defer file.Close()

	if !tabular.IsSupportedFilename(header.Filename) {
		log.Printf("[handleUpload] FAILED - Invalid file extension: %s", header.Filename)
		a.writeError(w, apperrors.UnsupportedFormat("only .csv and .xlsx files are supported"))
		return
	}

	// Some browsers report CSV as text/plain, so the MIME check only warns
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "csv") &&
		!strings.Contains(contentType, "excel") && !strings.Contains(contentType, "spreadsheet") &&
		!strings.Contains(contentType, "text/plain") && !strings.Contains(contentType, "octet-stream") {
		log.Printf("[handleUpload] WARNING - Unexpected MIME type: %s for file: %s", contentType, header.Filename)
	}

	filePath, err := a.storage.Store(r.Context(), file, header.Filename)
	if err != nil {
		a.writeError(w, apperrors.Wrap(err, "failed to store uploaded file"))
		return
	}

	rc, err := a.storage.GetReader(r.Context(), filePath)
	if err != nil {
		a.storage.Delete(r.Context(), filePath)
		a.writeError(w, apperrors.Wrap(err, "failed to reopen stored upload"))
		return
	}
	sheets, err := tabular.NewReader(rc, header.Filename).Sheets()
	rc.Close()
	if err != nil {
		a.storage.Delete(r.Context(), filePath)
		a.writeError(w, apperrors.Wrap(err, "failed to inspect workbook sheets"))
		return
	}

	sess.Lock()
	oldPath := sess.FilePath
	sess.FilePath = filePath
	sess.Filename = header.Filename
	sess.FileSize = header.Size
	sess.Sheets = sheets
	sess.Sheet = ""
	sess.Original = nil
	sess.Cleaned = nil
	sess.Log = nil
	sess.Unlock()

	if oldPath != "" && oldPath != filePath {
		a.storage.Delete(r.Context(), oldPath)
	}

	if len(sheets) > 1 {
		log.Printf("[handleUpload] Workbook %s has %d sheets, awaiting selection", header.Filename, len(sheets))
		a.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "sheet_selection",
			"sheets": sheets,
		})
		return
	}

	sheet := ""
	if len(sheets) == 1 {
		sheet = sheets[0]
	}
	a.loadSheet(w, r, sess, sheet)
}

// handleSheetSelect loads the chosen sheet of a previously uploaded workbook
func (a *App) handleSheetSelect(w http.ResponseWriter, r *http.Request) {
	sess := a.currentSession(r)
	if sess == nil {
		a.writeError(w, apperrors.SessionExpired())
		return
	}

	sheet := r.FormValue("sheet")
	if sheet == "" {
		a.writeError(w, apperrors.InvalidInput("sheet name is required"))
		return
	}

	sess.Lock()
	filePath := sess.FilePath
	sheets := sess.Sheets
	sess.Unlock()

	if filePath == "" {
		a.writeError(w, apperrors.InvalidInput("no workbook uploaded, upload a file first"))
		return
	}

	known := false
	for _, s := range sheets {
		if s == sheet {
			known = true
			break
		}
	}
	if !known {
		a.writeError(w, apperrors.InvalidInput(fmt.Sprintf("unknown sheet %q", sheet)))
		return
	}

	a.loadSheet(w, r, sess, sheet)
}

// loadSheet re-opens the stored upload through the storage port, parses the
// requested sheet into the session tables and records the upload
func (a *App) loadSheet(w http.ResponseWriter, r *http.Request, sess *session.Session, sheet string) {
	sess.Lock()
	filePath := sess.FilePath
	sess.Unlock()

	rc, err := a.storage.GetReader(r.Context(), filePath)
	if err != nil {
		a.writeError(w, apperrors.Wrap(err, "failed to reopen stored upload"))
		return
	}
	defer rc.Close()

	t, err := tabular.NewReader(rc, filePath).Read(sheet)
	if err != nil {
		a.writeError(w, apperrors.Wrap(err, "failed to parse file"))
		return
	}

	sess.Lock()
	sess.Sheet = sheet
	sess.Original = t
	sess.Cleaned = t.Clone()
	sess.Log = nil
	filename := sess.Filename
	fileSize := sess.FileSize
	sess.Unlock()

	a.recordUpload(r.Context(), filename, sheet, fileSize, t.RowCount(), t.ColumnCount(), t.MissingRate())

	log.Printf("[loadSheet] Loaded %s (%d rows, %d columns)", filename, t.RowCount(), t.ColumnCount())
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "loaded",
		"rows":    t.RowCount(),
		"columns": t.ColumnCount(),
	})
}

// recordUpload writes upload metadata to the catalog. Failures are logged
// but never block the session, the catalog is an audit trail only.
func (a *App) recordUpload(ctx context.Context, filename, sheet string, size int64, rows, cols int, missingRate float64) {
	if a.catalog == nil {
		return
	}
	record := catalog.NewRecord(filename, sheet, size)
	record.RowCount = rows
	record.ColumnCount = cols
	record.MissingRate = missingRate
	if err := a.catalog.Create(ctx, record); err != nil {
		log.Printf("[recordUpload] WARNING - Failed to record upload: %v", err)
	}
}

// handleTablePreview renders the first rows of the working table
func (a *App) handleTablePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// Rendering happens outside the lock, so it must run on a snapshot:
	// a concurrent cleaning request mutates the live row maps in place.
	sess.Lock()
	src := sess.Cleaned
	if r.URL.Query().Get("which") == "original" && sess.Original != nil {
		src = sess.Original
	}
	t := src.Clone()
	logEntries := append([]cleaning.LogEntry(nil), sess.Log...)
	filename := sess.Filename
	sheet := sess.Sheet
	sess.Unlock()

	preview := t.Head(limit)
	types := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		types[h] = string(t.TypeOf(h))
	}
	a.renderTemplate(w, "preview.html", map[string]interface{}{
		"Headers":  t.Headers,
		"Types":    types,
		"Rows":     preview,
		"RowCount": t.RowCount(),
		"ColCount": t.ColumnCount(),
		"Shown":    len(preview),
		"Log":      logEntries,
		"Filename": filename,
		"Sheet":    sheet,
	})
}

// handleHistory lists recent uploads from the catalog
func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		a.renderTemplate(w, "history.html", map[string]interface{}{"Records": nil})
		return
	}
	records, err := a.catalog.ListRecent(r.Context(), 10)
	if err != nil {
		a.writeError(w, apperrors.Wrap(err, "failed to load upload history"))
		return
	}
	a.renderTemplate(w, "history.html", map[string]interface{}{"Records": records})
}
