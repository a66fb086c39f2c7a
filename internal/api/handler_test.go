package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpe-tracking-backend/config"
	"cpe-tracking-backend/internal/logging"
	"cpe-tracking-backend/internal/model"
	"cpe-tracking-backend/internal/parse"
	"cpe-tracking-backend/internal/report"
	"cpe-tracking-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	records    []model.Record
	listErr    error
	lastParams *parse.Params

	options    model.FilterOptions
	optionsErr error

	stats    model.DashboardStats
	statsErr error

	pingErr error
}

func (f *fakeStore) ListDevices(_ context.Context, p parse.Params) ([]model.Record, error) {
	f.lastParams = &p
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.records == nil {
		return []model.Record{}, nil
	}
	return f.records, nil
}

func (f *fakeStore) FilterOptions(context.Context) (model.FilterOptions, error) {
	return f.options, f.optionsErr
}

func (f *fakeStore) DashboardStats(context.Context) (model.DashboardStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000},
		Report: config.ReportConfig{DefaultPerPage: 50, MaxPerPage: 500},
	}
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func device(id string, extra ...any) model.Record {
	values := make([]any, len(report.Columns()))
	values[0] = id
	for i := 0; i+1 < len(extra); i += 2 {
		for j, col := range report.Columns() {
			if col == extra[i] {
				values[j] = extra[i+1]
			}
		}
	}
	return model.Record{Columns: report.Columns(), Values: values}
}

var errUnavailable = fmt.Errorf("list devices: %w: dial tcp: connection refused", store.ErrUnavailable)
var errQuery = fmt.Errorf("%w: syntax error", store.ErrQuery)
var errGate = fmt.Errorf("%w: statement contains DROP", report.ErrNotSelect)

func TestGetDevices(t *testing.T) {
	fs := &fakeStore{records: []model.Record{
		device("D001", "CATEGORY", "ONT", "STATE_CITY", "Kerala, Kochi"),
		device("D002"),
	}}
	router := NewRouter(fs, testConfig(), logging.Discard())

	w := get(router, "/api/devices?category=ONT&sort_by=MODEL_MAKE&sort_order=desc&page=abc")
	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "D001", body[0]["DEVICE_ID"])
	assert.Equal(t, "ONT", body[0]["CATEGORY"])
	assert.Equal(t, "Kerala, Kochi", body[0]["STATE_CITY"])
	assert.Nil(t, body[1]["CATEGORY"])
	assert.Len(t, body[0], 38)

	// Keys follow projection order.
	assert.True(t, strings.HasPrefix(w.Body.String(), `[{"DEVICE_ID":"D001","DEVICE_SERIAL_NO":null,"MODEL_MAKE":null,"CATEGORY":"ONT"`))

	require.NotNil(t, fs.lastParams)
	assert.Equal(t, "ONT", fs.lastParams.Category)
	assert.Equal(t, "MODEL_MAKE", fs.lastParams.SortBy)
	assert.Equal(t, "DESC", fs.lastParams.SortOrder)
	assert.Nil(t, fs.lastParams.Page)
}

func TestGetDevices_EmptyIsArray(t *testing.T) {
	router := NewRouter(&fakeStore{}, testConfig(), logging.Discard())

	w := get(router, "/api/devices")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestGetDevices_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"Gate rejection", errGate, http.StatusForbidden, `{"error":"Only SELECT queries are allowed"}`},
		{"Connection failure", errUnavailable, http.StatusInternalServerError, `[]`},
		{"Query failure", errQuery, http.StatusInternalServerError, `[]`},
	}

	for _, tc := range testCases {
		for _, path := range []string{"/api/devices", "/api/devices/paginated"} {
			t.Run(tc.name+" "+path, func(t *testing.T) {
				router := NewRouter(&fakeStore{listErr: tc.err}, testConfig(), logging.Discard())
				w := get(router, path)
				assert.Equal(t, tc.expectedCode, w.Code)
				assert.JSONEq(t, tc.expectedBody, w.Body.String())
			})
		}
	}
}

func TestGetDevicesPaginated(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		expectedCode int
		expectedPage *parse.Page
	}{
		{"Defaults", "", http.StatusOK, &parse.Page{Number: 1, PerPage: 50}},
		{"Explicit", "?page=3&per_page=20", http.StatusOK, &parse.Page{Number: 3, PerPage: 20}},
		{"Clamped", "?per_page=9999", http.StatusOK, &parse.Page{Number: 1, PerPage: 500}},
		{"Non-numeric page", "?page=two", http.StatusBadRequest, nil},
		{"Zero per_page", "?per_page=0", http.StatusBadRequest, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := &fakeStore{}
			router := NewRouter(fs, testConfig(), logging.Discard())

			w := get(router, "/api/devices/paginated"+tc.query)
			assert.Equal(t, tc.expectedCode, w.Code)

			if tc.expectedPage == nil {
				assert.Nil(t, fs.lastParams, "store must not be called")
				assert.Contains(t, w.Body.String(), `"error"`)
				return
			}
			require.NotNil(t, fs.lastParams)
			assert.Equal(t, tc.expectedPage, fs.lastParams.Page)
			assert.Equal(t, "[]", w.Body.String())
		})
	}
}

func TestExportDevices(t *testing.T) {
	moved := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fs := &fakeStore{records: []model.Record{
		device("D001", "CUSTOMER_NAME", "Doe, Jane", "LOCATION_MOVEMENT_DATE", moved, "POID_ID0", int64(42)),
	}}
	router := gin.New()
	handler := NewHandler(fs, logging.Discard(), parse.DefaultLimits)
	handler.now = func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }
	router.GET("/api/devices/export", handler.ExportDevices)

	w := get(router, "/api/devices/export?search=D001&page=x")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cpe_devices_2026-10-17.csv"`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, report.Columns(), rows[0])

	row := map[string]string{}
	for i, col := range rows[0] {
		row[col] = rows[1][i]
	}
	assert.Equal(t, "D001", row["DEVICE_ID"])
	assert.Equal(t, "Doe, Jane", row["CUSTOMER_NAME"])
	assert.Equal(t, "2024-03-01T10:00:00Z", row["LOCATION_MOVEMENT_DATE"])
	assert.Equal(t, "42", row["POID_ID0"])
	assert.Equal(t, "", row["CATEGORY"])

	require.NotNil(t, fs.lastParams)
	assert.Equal(t, "D001", fs.lastParams.Search)
	assert.Nil(t, fs.lastParams.Page)
}

func TestExportDevices_Errors(t *testing.T) {
	router := NewRouter(&fakeStore{listErr: errQuery}, testConfig(), logging.Discard())
	w := get(router, "/api/devices/export")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Export failed"}`, w.Body.String())

	router = NewRouter(&fakeStore{listErr: errGate}, testConfig(), logging.Discard())
	w = get(router, "/api/devices/export")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetFilters(t *testing.T) {
	fs := &fakeStore{options: model.FilterOptions{
		Categories:         []string{"ONT", "STB"},
		AcceptanceStatuses: []string{"ACCEPTED"},
		AllocationStatuses: []string{"FAULTY", "GOOD"},
		StateCities:        []string{"Kerala, Kochi"},
		FlowTypes:          []string{},
		TicketTypes:        []string{"REPLACE"},
	}}
	router := NewRouter(fs, testConfig(), logging.Discard())

	w := get(router, "/api/filters")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"categories": ["ONT", "STB"],
		"acceptance_statuses": ["ACCEPTED"],
		"allocation_statuses": ["FAULTY", "GOOD"],
		"state_cities": ["Kerala, Kochi"],
		"flow_types": [],
		"ticket_types": ["REPLACE"]
	}`, w.Body.String())
}

func TestGetFilters_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"Gate rejection", errGate, http.StatusForbidden, `{"error":"Only SELECT queries are allowed"}`},
		{"Connection failure", errUnavailable, http.StatusInternalServerError, `{"error":"Database connection failed"}`},
		{"Query failure", errQuery, http.StatusInternalServerError, `{"error":"Database error"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(&fakeStore{optionsErr: tc.err}, testConfig(), logging.Discard())
			w := get(router, "/api/filters")
			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestGetDashboardStats(t *testing.T) {
	fs := &fakeStore{stats: model.DashboardStats{
		TotalDevices: 100, Allocated: 40, Available: 30, Repaired: 5, Repairing: 3, Faulty: 2,
	}}
	router := NewRouter(fs, testConfig(), logging.Discard())

	w := get(router, "/api/dashboard-stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_devices":100,"allocated":40,"available":30,"repaired":5,"repairing":3,"faulty":2}`, w.Body.String())
}

func TestGetDashboardStats_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"Gate rejection", errGate, http.StatusForbidden, `{"error":"Only SELECT queries are allowed"}`},
		{"Connection failure", errUnavailable, http.StatusInternalServerError, `{"error":"Database connection failed"}`},
		{"Query failure", errQuery, http.StatusInternalServerError, `{"error":"Query execution failed"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(&fakeStore{statsErr: tc.err}, testConfig(), logging.Discard())
			w := get(router, "/api/dashboard-stats")
			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestGetHealth(t *testing.T) {
	router := NewRouter(&fakeStore{}, testConfig(), logging.Discard())
	w := get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	router = NewRouter(&fakeStore{pingErr: store.ErrUnavailable}, testConfig(), logging.Discard())
	w = get(router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())
}

func TestRouter_RateLimitAndRequestID(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitPerSec = 1
	cfg.Server.RateLimitBurst = 1
	router := NewRouter(&fakeStore{}, cfg, logging.Discard())

	w := get(router, "/api/devices")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(router, "/api/devices")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Health checks are not rate limited.
	w = get(router, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(&fakeStore{}, testConfig(), logging.Discard())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/devices", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
}
