package riskintel

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for risk evaluation.
type Handler struct {
	service *Service
}

// NewHandler creates a new risk-intelligence handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up risk-intelligence routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/subjects/:id/evaluate", h.Evaluate)
	r.GET("/subjects/:id/reason-stacks", h.ListStacks)
	r.GET("/reason-stacks/:id", h.GetStack)
	r.GET("/reason-stacks/:id/recommendation", h.GetRecommendation)
}

// Evaluate handles POST /v1/subjects/:id/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	// Body is optional; an empty request evaluates on live activity alone.
	var req EvaluateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Invalid request body",
			})
			return
		}
	}

	stack, rec, err := h.service.Evaluate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrRecommendationWrite) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "recommendation_write_failed",
				"message": "Evaluation was rolled back; retry the request",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation_failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reasonStack": stack, "recommendation": rec})
}

// GetStack handles GET /v1/reason-stacks/:id
func (h *Handler) GetStack(c *gin.Context) {
	stack, err := h.service.GetStack(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Reason stack not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reasonStack": stack})
}

// GetRecommendation handles GET /v1/reason-stacks/:id/recommendation
func (h *Handler) GetRecommendation(c *gin.Context) {
	rec, err := h.service.GetRecommendation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrStackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Recommendation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendation": rec})
}

// ListStacks handles GET /v1/subjects/:id/reason-stacks
func (h *Handler) ListStacks(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > 100 {
				limit = 100
			}
		}
	}

	stacks, err := h.service.ListStacks(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reasonStacks": stacks, "count": len(stacks)})
}
