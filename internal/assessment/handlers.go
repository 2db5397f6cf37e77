package assessment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for behavioral-assessment sessions.
type Handler struct {
	service *Service
}

// NewHandler creates a new assessment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up assessment routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/sessions", h.CompleteSession)
	r.GET("/sessions/:id", h.GetSession)
	r.PUT("/sessions/:id/signals", h.PutSignals)
	r.GET("/sessions/:id/signals", h.GetSignals)
	r.GET("/subjects/:id/sessions", h.ListSessions)
	r.GET("/subjects/:id/badges", h.ListBadges)
}

// CompleteSession handles POST /v1/sessions
func (h *Handler) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	scores, comparison, err := h.service.CompleteSession(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidTier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": scores, "comparison": comparison})
}

// GetSession handles GET /v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	scores, err := h.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": scores})
}

// ListSessions handles GET /v1/subjects/:id/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	limit := parseLimit(c, historyLimit, 100)

	sessions, err := h.service.ListSessions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// ListBadges handles GET /v1/subjects/:id/badges
func (h *Handler) ListBadges(c *gin.Context) {
	badges, err := h.service.ListBadges(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges, "count": len(badges)})
}

// PutSignals handles PUT /v1/sessions/:id/signals
func (h *Handler) PutSignals(c *gin.Context) {
	var req PutSignalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}

	sig, err := h.service.PutSignals(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": sig})
}

// GetSignals handles GET /v1/sessions/:id/signals
func (h *Handler) GetSignals(c *gin.Context) {
	sig, err := h.service.GetSignals(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrSignalsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Signal scores not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"signals": sig})
}

func parseLimit(c *gin.Context, defaultLimit, maxLimit int) int {
	limit := defaultLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	return limit
}
