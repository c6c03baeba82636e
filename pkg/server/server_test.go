package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuongiornoTexas/pwdusage/pkg/config"
	"github.com/BuongiornoTexas/pwdusage/pkg/datasource"
	"github.com/BuongiornoTexas/pwdusage/pkg/engine"
	"github.com/BuongiornoTexas/pwdusage/pkg/types"
)

type stubStore struct {
	data []byte
}

func (s *stubStore) Load(ctx context.Context) ([]byte, string, error) {
	return s.data, "usage.json", nil
}

func (s *stubStore) Close() error { return nil }

const testDocument = `{
	"settings": {
		"influx_url": "http://influx:8086",
		"bucket": "powerwall",
		"timezone": "UTC",
		"resample": false
	},
	"plans": [
		{
			"name": "Flexible",
			"agent": "Simple",
			"report": ["GRID_SUPPLY"],
			"seasons": [
				{
					"name": "All",
					"schedules": [
						{
							"schedule": "Every day",
							"days": [0, 1, 2, 3, 4, 5, 6],
							"periods": {"00:00": "Anytime"}
						}
					]
				}
			]
		}
	],
	"calendar": {
		"2023-01-01": {
			"plan": "Flexible",
			"season": "All",
			"tariffs": {"Anytime": {"GRID_SUPPLY": -0.5}}
		}
	}
}`

func testServer(t *testing.T, store config.Store, mock *datasource.Mock) (*Server, http.Handler) {
	t.Helper()
	eng := engine.New(store, func(s config.Settings) (datasource.Source, error) {
		return mock, nil
	})
	srv := &Server{engine: eng, serverName: "pwdusage"}
	return srv, srv.setupHandler()
}

func TestHandleReload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, datasource.NewMock(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/usage_engine", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pwdusage", w.Header().Get("Server"))
		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "configuration loaded", body.Status)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, handler := testServer(t, &stubStore{data: []byte(`{"settings": {}}`)}, datasource.NewMock(nil))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/usage_engine", nil))

		require.Equal(t, statusUpstreamError, w.Code)
		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "invalid configuration")
	})
}

func queryBody(from, to string, payload string) string {
	return `{
		"range": {"from": "` + from + `", "to": "` + to + `"},
		"targets": [{"target": "usage", "payload": ` + payload + `}]
	}`
}

func TestHandleQuery(t *testing.T) {
	ts := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	mock := datasource.NewMock([]types.Row{
		{
			TS:       ts,
			Duration: time.Hour,
			Values: map[types.Column]float64{
				types.ColumnHomeDemand: 10,
				types.ColumnGridSupply: 6,
			},
		},
	})
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, mock)

	// Load the configuration first, as the front end's health check would.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/usage_engine", nil))
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("returns table array", func(t *testing.T) {
		body := queryBody("2023-06-15T00:00:00Z", "2023-06-16T00:00:00Z", "{}")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		var tables []types.Table
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tables))
		require.Len(t, tables, 1)
		assert.Equal(t, "table", tables[0].Type)
		require.NotEmpty(t, tables[0].Columns)
		assert.Equal(t, "_time", tables[0].Columns[0].Text)
		require.Len(t, tables[0].Rows, 1)
	})

	t.Run("summary payload", func(t *testing.T) {
		body := queryBody("2023-06-15T00:00:00Z", "2023-06-16T00:00:00Z", `{"summary": true}`)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		var tables []types.Table
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tables))
		require.Len(t, tables, 1)
		assert.Equal(t, "Variable", tables[0].Columns[0].Text)
	})

	t.Run("bad time range", func(t *testing.T) {
		body := queryBody("yesterday", "2023-06-16T00:00:00Z", "{}")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader("{oops")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure maps to 599", func(t *testing.T) {
		mock.SetError(&types.UpstreamDataError{Err: context.DeadlineExceeded})
		defer mock.SetError(nil)

		body := queryBody("2023-06-15T00:00:00Z", "2023-06-16T00:00:00Z", "{}")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader(body)))
		assert.Equal(t, statusUpstreamError, w.Code)
	})
}

func TestHandleListMetrics(t *testing.T) {
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, datasource.NewMock(nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var metrics []struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	require.Len(t, metrics, 1)
	assert.Equal(t, "Usage", metrics[0].Label)
	assert.Equal(t, "usage", metrics[0].Value)
}

func TestHandleExport(t *testing.T) {
	ts := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	mock := datasource.NewMock([]types.Row{
		{
			TS:       ts,
			Duration: time.Hour,
			Values: map[types.Column]float64{
				types.ColumnHomeDemand: 10,
				types.ColumnGridSupply: 6,
			},
		},
	})
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, mock)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/usage_engine", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := queryBody("2023-06-15T00:00:00Z", "2023-06-16T00:00:00Z", "{}")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/export", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "usage-2023-06-15.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestHandleHealthz(t *testing.T) {
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, datasource.NewMock(nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestUnknownPathReturnsJSON(t *testing.T) {
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, datasource.NewMock(nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestQueryWithoutConfiguration(t *testing.T) {
	_, handler := testServer(t, &stubStore{data: []byte(testDocument)}, datasource.NewMock(nil))

	body := queryBody("2023-06-15T00:00:00Z", "2023-06-16T00:00:00Z", "{}")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/usage_engine/query", strings.NewReader(body)))
	assert.Equal(t, statusUpstreamError, w.Code)
}
