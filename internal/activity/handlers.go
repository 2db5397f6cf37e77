package activity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for wagering activity.
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up activity routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/activity", h.Ingest)
	r.GET("/subjects/:id/activity", h.ListActivity)
}

// Ingest handles POST /v1/activity
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	records, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"records": records, "count": len(records)})
}

// ListActivity handles GET /v1/subjects/:id/activity?window=24h|7d|30d
func (h *Handler) ListActivity(c *gin.Context) {
	window := Window30d
	switch c.DefaultQuery("window", "30d") {
	case "24h":
		window = Window24h
	case "7d":
		window = Window7d
	case "30d":
		window = Window30d
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_window", "message": "window must be 24h, 7d, or 30d"})
		return
	}

	records, err := h.service.ListSince(c.Request.Context(), c.Param("id"), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
