package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/analytics-ceew/agri-google/internal/metrics"
	"github.com/analytics-ceew/agri-google/internal/services"
	"github.com/analytics-ceew/agri-google/internal/utils"
)

type CellHandler struct {
	cellService services.ICellService
}

func NewCellHandler(cellService services.ICellService) *CellHandler {
	return &CellHandler{cellService: cellService}
}

func (h *CellHandler) RegisterRoutes(router *gin.Engine) {
	cellGroup := router.Group("/cells/api/v1")
	cellGroup.GET("/lookup", h.LookupCell)
	cellGroup.GET("/center", h.CellCenter)
}

// LookupCell converts a clicked lat/lng into the level-13 S2 cell id.
func (h *CellHandler) LookupCell(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", "Latitude and Longitude are required"))
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", "Latitude must be a number between -90 and 90"))
		return
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", "Longitude must be a number between -180 and 180"))
		return
	}

	metrics.CellLookups.Inc()
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(h.cellService.FromLatLng(lat, lng)))
}

// CellCenter converts a decimal S2 cell id to its center lat/lng.
func (h *CellHandler) CellCenter(c *gin.Context) {
	cellID := c.Query("cell_id")
	if cellID == "" {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", "cell_id is required"))
		return
	}

	lat, lng, err := h.cellService.CenterOf(cellID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("Bad Request", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{
		"cell_id": cellID,
		"lat":     lat,
		"lng":     lng,
	}))
}
