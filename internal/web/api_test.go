package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kirana/internal/forecast"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// loadedService returns a service over ten days of Rice (10/day) and
// Dal (1/day) sales ending today.
func loadedService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	writeSales(t, path, 10, map[string]int{"Rice": 10, "Dal": 1})
	s := testService(t, path)
	s.pollOnce()
	return s
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealthz(t *testing.T) {
	rec := doGet(t, New(Config{}).Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestIndex(t *testing.T) {
	rec := doGet(t, New(Config{}).Handler(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/restock")
}

func TestNotLoaded(t *testing.T) {
	rec := doGet(t, New(Config{Days: 7}).Handler(), "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "not been loaded")
}

func TestSummary(t *testing.T) {
	rec := doGet(t, loadedService(t).Handler(), "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "77", body["units"])
	assert.EqualValues(t, 14, body["transactions"])
	assert.EqualValues(t, 2, body["products"])
	top := body["top"].([]any)
	require.Len(t, top, 2)
	assert.Equal(t, "Rice", top[0].(map[string]any)["product"])
}

func TestTop(t *testing.T) {
	h := loadedService(t).Handler()

	rec := doGet(t, h, "/api/top?n=1&days=3")
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode(t, rec)["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, "30", products[0].(map[string]any)["units"])

	rec = doGet(t, h, "/api/top?from=2024-02-01&to=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doGet(t, h, "/api/top?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyAndDaily(t *testing.T) {
	h := loadedService(t).Handler()

	rec := doGet(t, h, "/api/weekly?weeks=4")
	require.Equal(t, http.StatusOK, rec.Code)
	// 28 days cover four or five Sunday-ending weeks depending on today.
	weeks := decode(t, rec)["weeks"].([]any)
	assert.GreaterOrEqual(t, len(weeks), 4)
	assert.LessOrEqual(t, len(weeks), 5)

	rec = doGet(t, h, "/api/weekly?weeks=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h, "/api/daily?product=dal&days=5")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Dal", body["product"])
	days := body["days"].([]any)
	require.Len(t, days, 5)
	assert.Equal(t, "1", days[0].(map[string]any)["units"])

	rec = doGet(t, h, "/api/daily?product=ghee")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestock(t *testing.T) {
	h := loadedService(t).Handler()

	rec := doGet(t, h, "/api/restock")
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode(t, rec)["products"].([]any)
	require.Len(t, products, 2)
	rice := products[0].(map[string]any)
	assert.Equal(t, "Rice", rice["product"])
	assert.EqualValues(t, 3, rice["days_left"])
	assert.Equal(t, "low", rice["status"])

	rec = doGet(t, h, "/api/restock?stock=5")
	require.Equal(t, http.StatusOK, rec.Code)
	rice = decode(t, rec)["products"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 0, rice["days_left"])
	assert.Equal(t, "order now", rice["status"])

	for _, q := range []string{"?stock=-1", "?stock=abc", "?days=0", "?days=x"} {
		rec = doGet(t, h, "/api/restock"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.NotEmpty(t, decode(t, rec)["error"], q)
	}
}

func TestProjection(t *testing.T) {
	h := loadedService(t).Handler()

	rec := doGet(t, h, "/api/projection/rice?days=10&stock=100")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Rice", body["product"])
	assert.Equal(t, "100", body["sold"])
	assert.EqualValues(t, 10, body["days_left"])
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["depletion_date"])

	rec = doGet(t, h, "/api/projection/rice?stock=1e20")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, true, body["days_left_capped"])
	assert.EqualValues(t, forecast.MaxDaysLeft, body["days_left"])

	rec = doGet(t, h, "/api/projection/ghee")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForecast(t *testing.T) {
	h := loadedService(t).Handler()

	rec := doGet(t, h, "/api/forecast/Rice?horizon=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Len(t, body["points"], 3)
	assert.InDelta(t, 30.0, body["total_needed"], 1e-6)
	assert.InDelta(t, 1.0, body["r2"], 1e-9)

	rec = doGet(t, h, "/api/forecast/Rice?horizon=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doGet(t, h, "/api/forecast/ghee")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRangeLimits(t *testing.T) {
	h := loadedService(t).Handler()

	tests := []struct {
		target string
		want   int
	}{
		{"/api/daily?days=3660", http.StatusOK},
		{"/api/daily?days=3661", http.StatusBadRequest},
		{"/api/summary?days=2000000", http.StatusBadRequest},
		{"/api/restock?days=2000000", http.StatusBadRequest},
		{"/api/forecast/Rice?horizon=365", http.StatusOK},
		{"/api/forecast/Rice?horizon=366", http.StatusBadRequest},
		{"/api/forecast/Rice?horizon=2000000", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := doGet(t, h, tt.target)
		assert.Equal(t, tt.want, rec.Code, tt.target)
	}
}

func TestReloadFailureKeepsData(t *testing.T) {
	s := loadedService(t)
	h := s.Handler()
	require.NoError(t, os.Remove(s.cfg.DataFile))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "reload failed")

	rec = doGet(t, h, "/api/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusAndReload(t *testing.T) {
	s := loadedService(t)
	h := s.Handler()

	rec := doGet(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["poll_count"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["poll_count"])

	rec = doGet(t, h, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}

func TestCORS(t *testing.T) {
	s := loadedService(t)
	s.cfg.AllowedOrigins = []string{"http://shop.local"}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Origin", "http://shop.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://shop.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://elsewhere.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errorStatus(errUnknownProduct))
	assert.Equal(t, http.StatusServiceUnavailable, errorStatus(errNotLoaded))
	assert.Equal(t, http.StatusBadGateway, errorStatus(fmt.Errorf("%w: disk gone", errReloadFailed)))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(assert.AnError))
}
