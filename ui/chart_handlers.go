package ui

import (
	"net/http"
	"strconv"

	"datalens/domain/charts"
	"datalens/domain/table"
	apperrors "datalens/internal/errors"
)

// handleChartColumns lists which columns each chart type can use
func (a *App) handleChartColumns(w http.ResponseWriter, r *http.Request) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	sess.Lock()
	t := sess.Cleaned
	numeric := t.NumericColumns()
	categorical := t.CategoricalColumns()
	sess.Unlock()

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"numeric":     numeric,
		"categorical": categorical,
	})
}

// chartTable snapshots the working table so chart building runs outside
// the session lock
func (a *App) chartTable(r *http.Request) (*table.Table, error) {
	sess, err := a.requireLoaded(r)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	t := sess.Cleaned.Clone()
	sess.Unlock()
	return t, nil
}

func (a *App) handleHistogram(w http.ResponseWriter, r *http.Request) {
	t, err := a.chartTable(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	bins := charts.DefaultBins
	if v := r.URL.Query().Get("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			a.writeError(w, apperrors.InvalidInput("bins must be an integer"))
			return
		}
		bins = n
	}

	config, err := charts.Histogram(t, r.URL.Query().Get("column"), bins)
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	a.writeJSON(w, http.StatusOK, config)
}

func (a *App) handleBoxPlot(w http.ResponseWriter, r *http.Request) {
	t, err := a.chartTable(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	config, err := charts.BoxPlot(t, r.URL.Query().Get("column"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	a.writeJSON(w, http.StatusOK, config)
}

func (a *App) handleScatter(w http.ResponseWriter, r *http.Request) {
	t, err := a.chartTable(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	q := r.URL.Query()
	config, err := charts.Scatter(t, q.Get("x"), q.Get("y"), q.Get("hue"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	a.writeJSON(w, http.StatusOK, config)
}

func (a *App) handleBar(w http.ResponseWriter, r *http.Request) {
	t, err := a.chartTable(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	q := r.URL.Query()
	config, err := charts.Bar(t, q.Get("category"), q.Get("value"))
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	a.writeJSON(w, http.StatusOK, config)
}

func (a *App) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	t, err := a.chartTable(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	config, err := charts.Heatmap(t)
	if err != nil {
		a.writeError(w, apperrors.InvalidInput(err.Error()))
		return
	}
	a.writeJSON(w, http.StatusOK, config)
}
