package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/analytics-ceew/agri-google/internal/services"
)

// DefaultCellID pre-fills the monitor page input with a known agricultural
// cell so the page works out of the box.
const DefaultCellID = "3486736072451293184"

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.MonitorPage)
	router.GET("/finder", h.FinderPage)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *PageHandler) MonitorPage(c *gin.Context) {
	c.HTML(http.StatusOK, "monitor.html", gin.H{
		"DefaultCellID": DefaultCellID,
	})
}

func (h *PageHandler) FinderPage(c *gin.Context) {
	c.HTML(http.StatusOK, "finder.html", gin.H{
		"CellLevel": services.CellLevel,
	})
}

func (h *PageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
