package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytics-ceew/agri-google/internal/config"
	"github.com/analytics-ceew/agri-google/internal/models"
	"github.com/analytics-ceew/agri-google/internal/services"
	"github.com/analytics-ceew/agri-google/internal/storage"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func fixtureCellID() string {
	return services.NewCellService().FromLatLng(20.15, 76.15).IDInt
}

func fixtureEnvelope(t *testing.T) []byte {
	t.Helper()
	collection := models.FeatureCollection{
		Type: "FeatureCollection",
		Features: []models.Feature{{
			Type: "Feature",
			ID:   "field-1",
			Geometry: json.RawMessage(`{"type":"Polygon","coordinates":` +
				`[[[76.1,20.1],[76.2,20.1],[76.2,20.2],[76.1,20.2],[76.1,20.1]]]}`),
			Properties: models.FeatureProperties{
				AreaSqM:         12345.67,
				ALUType:         "CROPLAND",
				ClassConfidence: 0.92,
				MonitoringPrediction: []models.MonitoringPrediction{{
					StartTimestampSec: 1717200000,
					EndTimestampSec:   1727654400,
					CropPrediction:    models.CropPrediction{Crop1: "RICE", Conf1: 0.85},
				}},
			},
		}},
	}
	inner, err := json.Marshal(collection)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]any{
		"monitoredLandscape": map[string]any{"geojson": string(inner)},
	})
	require.NoError(t, err)
	return outer
}

func setupRouter(apiKey, upstreamURL string, store storage.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.LandscapeServiceConfig{APIKey: apiKey, APIBaseURL: upstreamURL}
	cells := services.NewCellService()
	router := gin.New()
	NewLandscapeHandler(
		services.NewLandscapeService(cfg),
		services.NewMapService(cells),
		services.NewExportService(),
		store,
	).RegisterRoutes(router)
	return router
}

func postMonitor(router *gin.Engine, cellID string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	body := strings.NewReader(`{"s2_cell_id": "` + cellID + `"}`)
	req := httptest.NewRequest("POST", "/landscape/api/v1/monitor", body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ============================================================================
// TEST SUITE 1: FETCH ERROR CLASSES
// ============================================================================

func TestMonitor_MissingAPIKeyBlocksFetch(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	router := setupRouter("", upstream.URL, storage.NewMemoryStore(0))
	w := postMonitor(router, fixtureCellID())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Configuration Error")
	assert.Equal(t, int64(0), calls.Load(), "fetch must never reach the network without a credential")
}

func TestMonitor_UpstreamForbiddenLeavesStateUntouched(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer upstream.Close()

	store := storage.NewMemoryStore(0)
	previous := storage.Snapshot{
		CellID:      "9999",
		RawResponse: json.RawMessage(`{"monitoredLandscape":{"geojson":"{}"}}`),
		Collection:  &models.FeatureCollection{},
		FetchedAt:   time.Now(),
	}
	require.NoError(t, store.Put(context.Background(), "session-1", previous))

	router := setupRouter("test-key", upstream.URL, store)
	cookie := &http.Cookie{Name: sessionCookieName, Value: "session-1"}
	w := postMonitor(router, fixtureCellID(), cookie)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Upstream Error")
	assert.Contains(t, w.Body.String(), "403")

	kept, ok, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "9999", kept.CellID, "failed fetch must not overwrite the previous snapshot")
}

func TestMonitor_MissingPayloadIsDataError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"monitoredLandscape": {}}`))
	}))
	defer upstream.Close()

	router := setupRouter("test-key", upstream.URL, storage.NewMemoryStore(0))
	w := postMonitor(router, fixtureCellID())

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Data Error")
	assert.NotContains(t, w.Body.String(), "Upstream Error")
}

func TestMonitor_MissingCellIDIsBadRequest(t *testing.T) {
	router := setupRouter("test-key", "http://unused", storage.NewMemoryStore(0))

	req := httptest.NewRequest("POST", "/landscape/api/v1/monitor", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "s2_cell_id")
}

// ============================================================================
// TEST SUITE 2: HAPPY PATH AND EXPORTS
// ============================================================================

func TestMonitor_FetchRenderExportFlow(t *testing.T) {
	envelope := fixtureEnvelope(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(envelope)
	}))
	defer upstream.Close()

	router := setupRouter("test-key", upstream.URL, storage.NewMemoryStore(0))
	cookie := &http.Cookie{Name: sessionCookieName, Value: "session-1"}
	cellID := fixtureCellID()

	w := postMonitor(router, cellID, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    MonitorResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data.FieldCount)
	assert.Equal(t, cellID, resp.Data.CellID)
	require.NotNil(t, resp.Data.Period)
	assert.Equal(t, "June 2024 - September 2024", resp.Data.Period.Label)
	require.NotNil(t, resp.Data.Map)
	require.Len(t, resp.Data.Map.Features, 1)
	assert.Equal(t, models.CropColors["RICE"], resp.Data.Map.Features[0].FillColor)
	assert.Equal(t, 1, resp.Data.Stats.TotalFields)

	// CSV export for the same session.
	req := httptest.NewRequest("GET", "/landscape/api/v1/export/csv", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "agri_landscape_"+cellID+".csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2, "header plus one prediction row")
	assert.Contains(t, lines[0], "Field_ID")
	assert.Contains(t, lines[1], "RICE")

	// Raw viewer.
	req = httptest.NewRequest("GET", "/landscape/api/v1/raw", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(envelope), w.Body.String())

	// Raw JSON download.
	req = httptest.NewRequest("GET", "/landscape/api/v1/export/json", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "agri_raw_response_"+cellID+".json")
}

func TestMonitor_EmptyCollectionWarnsWithoutMap(t *testing.T) {
	inner, err := json.Marshal(models.FeatureCollection{Type: "FeatureCollection"})
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]any{
		"monitoredLandscape": map[string]any{"geojson": string(inner)},
	})
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(outer)
	}))
	defer upstream.Close()

	router := setupRouter("test-key", upstream.URL, storage.NewMemoryStore(0))
	w := postMonitor(router, fixtureCellID())

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data MonitorResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data.Map)
	assert.Equal(t, "No features found in the data.", resp.Data.Warning)
	assert.Equal(t, 0, resp.Data.FieldCount)
}

func TestExports_WithoutFetchReturnNotFound(t *testing.T) {
	router := setupRouter("test-key", "http://unused", storage.NewMemoryStore(0))

	for _, path := range []string{
		"/landscape/api/v1/export/csv",
		"/landscape/api/v1/export/json",
		"/landscape/api/v1/raw",
	} {
		req := httptest.NewRequest("GET", path, nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "fresh-session"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, "path %s", path)
		assert.Contains(t, w.Body.String(), "Not Found")
	}
}

func TestMonitor_MintsSessionCookieOnFirstContact(t *testing.T) {
	envelope := fixtureEnvelope(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope)
	}))
	defer upstream.Close()

	router := setupRouter("test-key", upstream.URL, storage.NewMemoryStore(0))
	w := postMonitor(router, fixtureCellID())

	require.Equal(t, http.StatusOK, w.Code)
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "first fetch must establish a session")
	assert.NotEmpty(t, sessionCookie.Value)
}
