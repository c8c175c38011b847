package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ratiobudget/ratiobudget/internal/config"
	"github.com/ratiobudget/ratiobudget/pkg/report"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApplication(t *testing.T, cfg config.Application) http.Handler {
	t.Helper()
	application, err := NewApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.deps.Close)
	return application.Handler()
}

func memoryConfig() config.Application {
	cfg := config.Defaults()
	cfg.Store.Backend = "memory"
	return cfg
}

func serve(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func TestRoutes(t *testing.T) {
	handler := setupApplication(t, memoryConfig())

	t.Run("should record a transaction and reflect it in insights", func(t *testing.T) {
		// given
		w := serve(handler, http.MethodPut, "/api/income-sources", `[{"name":"Salary","amount":1000}]`)
		require.Equal(t, http.StatusOK, w.Code)

		// when
		w = serve(handler, http.MethodPost, "/api/transactions", `{"amount":200,"type":"expense","description":"Groceries"}`)

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		w = serve(handler, http.MethodGet, "/api/insights/summary", "")
		require.Equal(t, http.StatusOK, w.Code)
		var summary map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.JSONEq(t, "200", string(summary["expensesActual"]))
	})

	t.Run("should route every group", func(t *testing.T) {
		tests := []struct {
			method string
			path   string
			body   string
			want   int
		}{
			{http.MethodGet, "/api/state", "", http.StatusOK},
			{http.MethodGet, "/api/totals", "", http.StatusOK},
			{http.MethodGet, "/api/ratio", "", http.StatusOK},
			{http.MethodPost, "/api/ratio/reset", "", http.StatusOK},
			{http.MethodPut, "/api/categories/expense", `[{"name":"Rent","limit":400}]`, http.StatusOK},
			{http.MethodPut, "/api/categories/unknown", `[]`, http.StatusNotFound},
			{http.MethodGet, "/api/transactions", "", http.StatusOK},
			{http.MethodDelete, "/api/transactions/missing", "", http.StatusNotFound},
			{http.MethodGet, "/api/insights/recommendations", "", http.StatusOK},
			{http.MethodGet, "/api/insights/subscriptions", "", http.StatusOK},
			{http.MethodGet, "/api/insights/trend?last=0", "", http.StatusBadRequest},
			{http.MethodGet, "/api/backup", "", http.StatusOK},
			{http.MethodDelete, "/api/backup/preview/missing", "", http.StatusNotFound},
			{http.MethodGet, "/api/report", "", http.StatusOK},
			{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.method+" "+tt.path, func(t *testing.T) {
				w := serve(handler, tt.method, tt.path, tt.body)

				assert.Equal(t, tt.want, w.Code, w.Body.String())
			})
		}
	})

	t.Run("should serve the report as a spreadsheet", func(t *testing.T) {
		w := serve(handler, http.MethodGet, "/api/report", "")

		assert.Equal(t, report.ContentTypeXlsx, w.Header().Get("Content-Type"))
	})
}

func TestBuildDependencies(t *testing.T) {
	t.Run("should persist to sqlite and write automatic backups", func(t *testing.T) {
		// given
		dir := t.TempDir()
		cfg := config.Defaults()
		cfg.Store.Path = filepath.Join(dir, "ratiobudget.db")
		cfg.Backup.AutoDir = filepath.Join(dir, "backups")
		hook := logtest.NewGlobal()
		handler := setupApplication(t, cfg)

		// when
		w := serve(handler, http.MethodPut, "/api/month", `{"monthKey":"2024-01"}`)

		// then
		require.Equal(t, http.StatusOK, w.Code)
		entries, err := os.ReadDir(cfg.Backup.AutoDir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		announced := 0
		for _, entry := range hook.AllEntries() {
			if strings.HasPrefix(entry.Message, "Automatic backups enabled") {
				announced++
			}
		}
		assert.Equal(t, 1, announced)
	})

	t.Run("should reject an unknown backend", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Store.Backend = "floppy"

		_, err := BuildDependencies(context.Background(), cfg)

		assert.ErrorContains(t, err, "floppy")
	})
}
