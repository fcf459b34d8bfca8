package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/analytics-ceew/agri-google/internal/metrics"
	"github.com/analytics-ceew/agri-google/internal/models"
	"github.com/analytics-ceew/agri-google/internal/services"
	"github.com/analytics-ceew/agri-google/internal/storage"
	"github.com/analytics-ceew/agri-google/internal/utils"
)

const sessionCookieName = "agri_session"

type LandscapeHandler struct {
	landscapeService services.ILandscapeService
	mapService       services.IMapService
	exportService    services.IExportService
	store            storage.Store
}

func NewLandscapeHandler(
	landscapeService services.ILandscapeService,
	mapService services.IMapService,
	exportService services.IExportService,
	store storage.Store,
) *LandscapeHandler {
	return &LandscapeHandler{
		landscapeService: landscapeService,
		mapService:       mapService,
		exportService:    exportService,
		store:            store,
	}
}

func (h *LandscapeHandler) RegisterRoutes(router *gin.Engine) {
	landscapeGroup := router.Group("/landscape/api/v1")
	landscapeGroup.POST("/monitor", h.MonitorLandscape)
	landscapeGroup.GET("/raw", h.GetRawResponse)
	landscapeGroup.GET("/export/csv", h.ExportCSV)
	landscapeGroup.GET("/export/json", h.ExportRawJSON)
}

// MonitorResponse is the payload the monitor page renders after a fetch.
type MonitorResponse struct {
	CellID     string              `json:"cell_id"`
	FieldCount int                 `json:"field_count"`
	Stats      models.SummaryStats `json:"stats"`
	Period     *models.TimePeriod  `json:"period,omitempty"`
	Map        *services.MapView   `json:"map,omitempty"`
	Warning    string              `json:"warning,omitempty"`
}

// MonitorLandscape fetches the landscape for the requested cell, stores the
// snapshot for this session, and returns the map view plus summary stats. A
// failed fetch leaves any previously stored snapshot untouched.
func (h *LandscapeHandler) MonitorLandscape(c *gin.Context) {
	var req models.MonitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", "s2_cell_id is required"))
		return
	}

	start := time.Now()
	result, err := h.landscapeService.FetchLandscape(req.S2CellID)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.respondFetchError(c, err)
		return
	}
	metrics.FetchTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	snapshot := storage.Snapshot{
		CellID:      req.S2CellID,
		RawResponse: result.Raw,
		Collection:  result.Collection,
		Period:      result.Period,
		FetchedAt:   time.Now(),
	}
	if err := h.store.Put(c.Request.Context(), h.sessionID(c), snapshot); err != nil {
		log.Printf("Error storing snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Internal server error", "Failed to store fetched data"))
		return
	}

	response := MonitorResponse{
		CellID:     req.S2CellID,
		FieldCount: len(result.Collection.Features),
		Stats:      models.ComputeSummaryStats(result.Collection),
		Period:     result.Period,
	}

	view, err := h.mapService.Build(result.Collection, req.S2CellID)
	switch {
	case errors.Is(err, services.ErrNoFeatures):
		response.Warning = "No features found in the data."
	case err != nil:
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", err.Error()))
		return
	default:
		response.Map = view
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(response))
}

func (h *LandscapeHandler) respondFetchError(c *gin.Context, err error) {
	var upstreamErr *services.UpstreamError
	var dataErr *services.DataError

	switch {
	case errors.Is(err, services.ErrMissingAPIKey):
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeConfig).Inc()
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Configuration Error",
			"API key is not configured. Set AGRI_API_KEY and restart the service."))
	case errors.As(err, &upstreamErr):
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeUpstream).Inc()
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("Upstream Error", upstreamErr.Error()))
	case errors.As(err, &dataErr):
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeData).Inc()
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("Data Error", dataErr.Error()))
	default:
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeUpstream).Inc()
		c.JSON(http.StatusBadGateway, utils.CreateErrorResponse("Upstream Error", err.Error()))
	}
}

// GetRawResponse serves the pretty-printed raw API response for the viewer.
func (h *LandscapeHandler) GetRawResponse(c *gin.Context) {
	snapshot, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	pretty, err := h.exportService.PrettyJSON(snapshot.RawResponse)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Internal server error", "Failed to format raw response"))
		return
	}
	c.Data(http.StatusOK, "application/json", pretty)
}

// ExportCSV streams the flattened (feature, prediction) table as a download.
func (h *LandscapeHandler) ExportCSV(c *gin.Context) {
	snapshot, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	data, err := h.exportService.LandscapeCSV(snapshot.Collection)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Internal server error", "Failed to build CSV export"))
		return
	}
	filename := fmt.Sprintf("agri_landscape_%s.csv", snapshot.CellID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportRawJSON streams the unmodified raw response as a download.
func (h *LandscapeHandler) ExportRawJSON(c *gin.Context) {
	snapshot, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	pretty, err := h.exportService.PrettyJSON(snapshot.RawResponse)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Internal server error", "Failed to format raw response"))
		return
	}
	filename := fmt.Sprintf("agri_raw_response_%s.json", snapshot.CellID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", pretty)
}

func (h *LandscapeHandler) currentSnapshot(c *gin.Context) (storage.Snapshot, bool) {
	snapshot, ok, err := h.store.Get(c.Request.Context(), h.sessionID(c))
	if err != nil {
		log.Printf("Error reading snapshot: %v", err)
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("Internal server error", "Failed to read session data"))
		return storage.Snapshot{}, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("Not Found",
			"No fetched data for this session. Fetch a landscape first."))
		return storage.Snapshot{}, false
	}
	return snapshot, true
}

// sessionID returns the caller's session cookie, minting one on first contact.
func (h *LandscapeHandler) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(sessionCookieName, id, 0, "/", "", false, true)
	return id
}
