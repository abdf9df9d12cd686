package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neuromatch/app"
	"neuromatch/domain/core"
	"neuromatch/domain/sample"
	"neuromatch/ports"
)

// MatchHandler handles matching requests over the JSON API
type MatchHandler struct {
	matcher *app.MatchingService
	repo    ports.CandidateRepository
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matcher *app.MatchingService, repo ports.CandidateRepository) *MatchHandler {
	return &MatchHandler{matcher: matcher, repo: repo}
}

// RegisterRoutes mounts the API routes on a gin router group
func (h *MatchHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/match", h.RunMatch)
	r.GET("/candidates", h.ListCandidates)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RunMatch executes one matching request. Domain failures (insufficient
// pools, imbalance) come back as 200 with success=false in the payload;
// only malformed input produces a 4xx.
func (h *MatchHandler) RunMatch(c *gin.Context) {
	var criteria sample.MatchingCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	requestID := uuid.New().String()

	result, err := h.matcher.FindMatchedSets(c.Request.Context(), criteria)
	if err != nil {
		if core.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"request_id": requestID, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "result": result})
}

// ListCandidates exposes the filtered candidate query for inspection
func (h *MatchHandler) ListCandidates(c *gin.Context) {
	filter := ports.CandidateFilter{
		Diagnosis:   c.Query("diagnosis"),
		BrainRegion: c.Query("brain_region"),
		Source:      c.Query("source"),
	}
	if sex := c.Query("sex"); sex != "" {
		filter.Sex = sample.NormalizeSex(sex)
	}

	candidates, err := h.repo.FindCaseCandidates(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(candidates), "candidates": candidates})
}
