package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nstankic/tollcalc/server/internal/cache"
	"github.com/nstankic/tollcalc/server/internal/clients/osrm"
	"github.com/nstankic/tollcalc/server/internal/config"
	"github.com/nstankic/tollcalc/server/internal/lib/pricing"
	"github.com/nstankic/tollcalc/server/internal/lib/stations"
	"github.com/nstankic/tollcalc/server/internal/lib/tollmatrix"
	"github.com/nstankic/tollcalc/server/internal/services"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := stations.NewCatalog([]stations.Station{
		{Name: "A", Lat: 44.8000, Lon: 20.5000, Section: "A2"},
		{Name: "B", Lat: 44.9000, Lon: 20.5000, Section: "A2"},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	matrixPath := filepath.Join(dir, "A2.csv")
	require.NoError(t, os.WriteFile(matrixPath, []byte("A,B\n0,100\n110,0\n"), 0o644))

	cfg := &config.TollConfig{
		Matrices:          map[string]string{"A2": matrixPath},
		DensifyStepMeters: 10,
		ToleranceMeters:   50,
		QuoteCacheTTL:     time.Minute,
	}

	log := zap.NewNop().Sugar()
	store := tollmatrix.NewStore(cfg.Matrices)
	service := services.NewTollService(catalog, store, osrm.NewClient(""), cache.New(), cfg, log)

	router := gin.New()
	NewTollHandler(service, log).RegisterRoutes(router)
	return router
}

func TestQuoteRoute_OK(t *testing.T) {
	router := testRouter(t)

	body := `{"route": [{"lat": 44.8000, "lon": 20.5000}, {"lat": 44.9000, "lon": 20.5000}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result pricing.ChargeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 110.0, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "A", result.Items[0].From)
	assert.Equal(t, "B", result.Items[0].To)
}

func TestQuoteRoute_EmptyBody(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(`{"route": []}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteRoute_InvalidCoordinates(t *testing.T) {
	router := testRouter(t)

	body := `{"route": [{"lat": 200, "lon": 20.5}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteRoute_EncodedPolyline(t *testing.T) {
	router := testRouter(t)

	// A polyline far from every station quotes to zero
	body := `{"polyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result pricing.ChargeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 0.0, result.Total)
}

func TestListStations(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stations", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"A2"`)
}

func TestListMatrices(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matrices", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"A2"`)
}

func TestMatrixLabels(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matrices/A2/labels", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"labels":["A","B"]`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matrices/NOPE/labels", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
