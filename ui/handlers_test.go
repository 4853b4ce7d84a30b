package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/adapters/memory"
	"datalens/internal/session"
	"datalens/internal/storage"
)

const sampleCSV = "name,age,city\nalice,30,berlin\nbob,,paris\ncarol,25,berlin\ndave,40,\n"

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	return newTestServerWithLimit(t, 10*1024*1024)
}

func newTestServerWithLimit(t *testing.T, maxUploadBytes int64) (*httptest.Server, *http.Client) {
	t.Helper()

	sessions := session.NewStore(time.Hour)
	t.Cleanup(sessions.Stop)

	app, err := NewApp(Config{
		Port:           "0",
		MaxUploadBytes: maxUploadBytes,
		Sessions:       sessions,
		Storage:        storage.NewLocalFileStorage(t.TempDir()),
		Catalog:        memory.NewCatalogRepository(),
	})
	require.NoError(t, err)

	server := httptest.NewServer(app.router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}
	return server, client
}

func uploadCSV(t *testing.T, server *httptest.Server, client *http.Client, csv string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("dataset", "people.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := client.Post(server.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func getJSON(t *testing.T, client *http.Client, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestUploadAndPreview(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	resp, err := client.Get(server.URL + "/api/table/preview")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "4 rows × 3 columns")
	assert.Contains(t, html, "alice")
	assert.Contains(t, html, "berlin")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	server, client := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("dataset", "data.txt")
	require.NoError(t, err)
	part.Write([]byte("hello"))
	require.NoError(t, writer.Close())

	resp, err := client.Post(server.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	server, client := newTestServerWithLimit(t, 1024*1024)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("dataset", "big.csv")
	require.NoError(t, err)
	part.Write([]byte("a,b\n"))
	// Just past the 1MB cap so the server still drains the remainder
	part.Write(bytes.Repeat([]byte("1,2\n"), 300_000))
	require.NoError(t, writer.Close())

	resp, err := client.Post(server.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "exceeds the 1MB limit")
}

// Preview renders outside the session lock, so it must not share row maps
// with cleaning requests mutating the same table.
func TestPreviewConcurrentWithCleaning(t *testing.T) {
	server, client := newTestServer(t)

	var b strings.Builder
	b.WriteString("name,age,city\n")
	for i := 0; i < 400; i++ {
		if i%3 == 0 {
			fmt.Fprintf(&b, "user%d,,berlin\n", i)
		} else {
			fmt.Fprintf(&b, "user%d,%d,paris\n", i, 20+i%40)
		}
	}
	uploadCSV(t, server, client, b.String())

	const rounds = 30
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			resp, err := client.Get(server.URL + "/api/table/preview?limit=500")
			if err != nil {
				t.Errorf("preview request failed: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("preview returned %d", resp.StatusCode)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		impute := url.Values{"column": {"age"}, "strategy": {"mean"}}.Encode()
		for i := 0; i < rounds; i++ {
			resp, err := client.Post(server.URL+"/api/clean/impute",
				"application/x-www-form-urlencoded", strings.NewReader(impute))
			if err != nil {
				t.Errorf("impute request failed: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			// Reset reintroduces the missing cells so every round imputes
			resp, err = client.Post(server.URL+"/api/clean/reset",
				"application/x-www-form-urlencoded", nil)
			if err != nil {
				t.Errorf("reset request failed: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()

	wg.Wait()
}

func TestEndpointsWithoutSession(t *testing.T) {
	server, _ := newTestServer(t)

	// No cookie jar: every data endpoint refuses politely
	resp, err := http.Get(server.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCleaningFlow(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	// Two rows carry missing cells
	var dropResult struct {
		Removed   int `json:"removed"`
		Remaining int `json:"remaining"`
	}
	resp, err := client.Post(server.URL+"/api/clean/drop-missing", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dropResult))
	resp.Body.Close()
	assert.Equal(t, 2, dropResult.Removed)
	assert.Equal(t, 2, dropResult.Remaining)

	// Reset restores the original upload
	var resetResult struct {
		Rows int `json:"rows"`
	}
	resp, err = client.Post(server.URL+"/api/clean/reset", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&resetResult))
	resp.Body.Close()
	assert.Equal(t, 4, resetResult.Rows)
}

func TestImputeColumnEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	form := url.Values{"column": {"age"}, "strategy": {"mean"}}
	resp, err := client.Post(server.URL+"/api/clean/impute",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Column    string `json:"column"`
		FillValue string `json:"fill_value"`
		Filled    int    `json:"filled"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "age", result.Column)
	// Mean of 30, 25, 40
	assert.Equal(t, "31.666666666666668", result.FillValue)
	assert.Equal(t, 1, result.Filled)
}

func TestDropColumnsEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	form := url.Values{"columns": {"city"}}
	resp, err := client.Post(server.URL+"/api/clean/drop-columns",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Remaining []string `json:"remaining"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, []string{"name", "age"}, result.Remaining)

	// Dropping everything left is rejected
	form = url.Values{"columns": {"name", "age"}}
	resp, err = client.Post(server.URL+"/api/clean/drop-columns",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummaryEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	var summary struct {
		RowCount    int `json:"row_count"`
		ColumnCount int `json:"column_count"`
		Columns     []struct {
			Name    string `json:"name"`
			Type    string `json:"type"`
			Missing int    `json:"missing"`
		} `json:"columns"`
	}
	resp := getJSON(t, client, server.URL+"/api/summary", &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 4, summary.RowCount)
	assert.Equal(t, 3, summary.ColumnCount)
	require.Len(t, summary.Columns, 3)
	assert.Equal(t, "name", summary.Columns[0].Name)
	assert.Equal(t, "numeric", summary.Columns[1].Type)
	assert.Equal(t, 1, summary.Columns[1].Missing)
}

func TestMissingEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	var missing struct {
		Total   int `json:"total"`
		Columns []struct {
			Column  string `json:"column"`
			Missing int    `json:"missing"`
		} `json:"columns"`
	}
	resp := getJSON(t, client, server.URL+"/api/summary/missing", &missing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, missing.Total)
	require.Len(t, missing.Columns, 3)
}

func TestHistogramEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	var config struct {
		ChartType string `json:"chart_type"`
		Series    []struct {
			Data []struct {
				Value float64 `json:"value"`
			} `json:"data"`
		} `json:"series"`
	}
	resp := getJSON(t, client, server.URL+"/api/charts/histogram?column=age&bins=5", &config)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "histogram", config.ChartType)
	require.Len(t, config.Series, 1)

	total := 0.0
	for _, p := range config.Series[0].Data {
		total += p.Value
	}
	assert.Equal(t, 3.0, total)
}

func TestHistogramRejectsCategoricalColumn(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	resp, err := client.Get(server.URL + "/api/charts/histogram?column=name")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportDownload(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	resp, err := client.Get(server.URL + "/report/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# Data Analysis Report")
	assert.Contains(t, string(body), "people.csv")
}

func TestHistoryEndpoint(t *testing.T) {
	server, client := newTestServer(t)
	uploadCSV(t, server, client, sampleCSV)

	resp, err := client.Get(server.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "people.csv")
}

func TestIndexPage(t *testing.T) {
	server, client := newTestServer(t)

	resp, err := client.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "DataLens")
}
