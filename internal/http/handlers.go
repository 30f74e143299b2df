package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webdeckhq/webdeck/backend/internal/applets"
	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/service"
	"github.com/webdeckhq/webdeck/backend/internal/shared/id"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// Version reported by the status endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	applets  *applets.Registry
	fetcher  *fetch.Service
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, appletReg *applets.Registry, fetcher *fetch.Service, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		registry: registry,
		applets:  appletReg,
		fetcher:  fetcher,
		metrics:  metrics,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "WebDeck Backend",
		"version": Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":           "healthy",
		"fetch_pool":       h.fetcher.Stats(),
		"service_registry": h.registry.Stats(),
		"applets":          h.applets.Stats(),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// ListServices lists all registered services, optionally by category
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		switch cat {
		case types.CategoryNetwork, types.CategoryPage, types.CategorySystem:
			category = &cat
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + categoryStr})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices finds services relevant to a free-form query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": h.registry.Discover(req.Query, 5),
	})
}

// ExecuteService executes a service tool
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Requests carrying an applet ID are held to that applet's manifest;
	// the deck shell omits it and may call anything.
	if req.AppletID != nil {
		if err := h.applets.Allowed(*req.AppletID, req.ToolID); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	reqID := id.NewRequestID().String()
	execCtx := &types.Context{
		AppletID:  req.AppletID,
		RequestID: &reqID,
	}

	var timer *monitoring.Timer
	if h.metrics != nil {
		timer = monitoring.NewTimer(h.metrics, serviceOf(req.ToolID), req.ToolID)
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, execCtx)
	if err != nil && result == nil {
		if timer != nil {
			h.metrics.RecordServiceError(serviceOf(req.ToolID), req.ToolID)
			timer.Stop("error")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if timer != nil {
		status := "success"
		if !result.Success {
			status = "error"
			h.metrics.RecordServiceError(serviceOf(req.ToolID), req.ToolID)
		}
		timer.Stop(status)
	}

	c.JSON(http.StatusOK, result)
}

// serviceOf returns the service prefix of a dotted tool ID.
func serviceOf(toolID string) string {
	if i := strings.IndexByte(toolID, '.'); i >= 0 {
		return toolID[:i]
	}
	return toolID
}

// ListApplets lists all registered applet manifests
func (h *Handlers) ListApplets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"applets": h.applets.List(),
		"stats":   h.applets.Stats(),
	})
}

// GetApplet returns a single applet manifest
func (h *Handlers) GetApplet(c *gin.Context) {
	appletID := c.Param("id")

	manifest, ok := h.applets.Get(appletID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "applet not found"})
		return
	}

	c.JSON(http.StatusOK, manifest)
}
