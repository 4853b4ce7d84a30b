package ui

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"datalens/domain/cleaning"
	"datalens/domain/core"
	apperrors "datalens/internal/errors"
)

// handleDropMissing removes every row with at least one missing cell
func (a *App) handleDropMissing(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	sess.Lock()
	removed := cleaning.DropMissingRows(sess.Cleaned)
	if removed > 0 {
		sess.Log = append(sess.Log, cleaning.LogEntry{
			Op:           cleaning.OpDropMissingRows,
			Detail:       "Dropped rows with missing values",
			RowsAffected: removed,
			At:           core.Now(),
		})
	}
	remaining := sess.Cleaned.RowCount()
	sess.Unlock()

	log.Printf("[handleDropMissing] Removed %d rows, %d remaining", removed, remaining)
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed":   removed,
		"remaining": remaining,
	})
}

// handleImpute fills missing cells. With a column it applies the requested
// strategy to that column; without one it fills every column with mean or
// mode depending on type.
func (a *App) handleImpute(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	column := r.FormValue("column")
	strategy := cleaning.Strategy(r.FormValue("strategy"))

	sess.Lock()
	defer sess.Unlock()

	if column == "" {
		results, err := cleaning.ImputeAll(sess.Cleaned)
		if err != nil {
			a.writeError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		total := 0
		for _, res := range results {
			total += res.Filled
		}
		if total > 0 {
			sess.Log = append(sess.Log, cleaning.LogEntry{
				Op:            cleaning.OpImpute,
				Detail:        fmt.Sprintf("Imputed %d column(s) with mean/mode", len(results)),
				CellsAffected: total,
				At:            core.Now(),
			})
		}
		a.writeJSON(w, http.StatusOK, map[string]interface{}{
			"columns": results,
			"filled":  total,
		})
		return
	}

	if strategy == "" {
		strategy = cleaning.StrategyMean
	}
	result, err := cleaning.ImputeColumn(sess.Cleaned, column, strategy)
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	if result.Filled > 0 {
		sess.Log = append(sess.Log, cleaning.LogEntry{
			Op:            cleaning.OpImpute,
			Detail:        fmt.Sprintf("Imputed %q with %s (%s)", result.Column, result.Strategy, result.FillValue),
			CellsAffected: result.Filled,
			At:            core.Now(),
		})
	}
	a.writeJSON(w, http.StatusOK, result)
}

// handleDropColumns removes the named columns from the working table
func (a *App) handleDropColumns(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		a.writeError(w, apperrors.InvalidInput("malformed form data"))
		return
	}
	names := r.Form["columns"]
	if len(names) == 1 && strings.Contains(names[0], ",") {
		names = strings.Split(names[0], ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
	}

	sess.Lock()
	defer sess.Unlock()

	if err := cleaning.DropColumns(sess.Cleaned, names); err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	sess.Log = append(sess.Log, cleaning.LogEntry{
		Op:     cleaning.OpDropColumns,
		Detail: fmt.Sprintf("Dropped column(s): %s", strings.Join(names, ", ")),
		At:     core.Now(),
	})

	log.Printf("[handleDropColumns] Dropped %d column(s), %d remaining", len(names), sess.Cleaned.ColumnCount())
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dropped":   names,
		"remaining": sess.Cleaned.Headers,
	})
}

// handleCleanReset restores the working table to the original upload
func (a *App) handleCleanReset(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	sess.Lock()
	sess.ResetCleaned()
	rows := sess.Cleaned.RowCount()
	cols := sess.Cleaned.ColumnCount()
	sess.Unlock()

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "reset",
		"rows":    rows,
		"columns": cols,
	})
}
