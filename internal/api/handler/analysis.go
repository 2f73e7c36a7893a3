package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trendscout/uts-engine/internal/service"
)

// AnalysisHandler handles deep-analyze session endpoints.
type AnalysisHandler struct {
	analysis *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
// Parameters:
//   - analysis: analysis service instance.
// Returns:
//   - *AnalysisHandler: initialized handler.
func NewAnalysisHandler(analysis *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// DeepAnalyzeRequest is the request body for POST /api/v1/deep-analyze.
type DeepAnalyzeRequest struct {
	VideoIDs      []string `json:"video_ids" binding:"required"`
	NicheBaseline float64  `json:"niche_baseline,omitempty"`
}

// StartDeepAnalyze handles POST /api/v1/deep-analyze. The session runs in
// the background; the response carries its ID for polling.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AnalysisHandler) StartDeepAnalyze(c *gin.Context) {
	var req DeepAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	session, err := h.analysis.Start(c.Request.Context(), req.VideoIDs, req.NicheBaseline)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, session)
}

// GetSession handles GET /api/v1/deep-analyze/:id.
func (h *AnalysisHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Session ID is required",
		})
		return
	}

	session, err := h.analysis.GetSession(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CancelSession handles POST /api/v1/deep-analyze/:id/cancel.
func (h *AnalysisHandler) CancelSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Session ID is required",
		})
		return
	}

	if err := h.analysis.Cancel(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"cancelled":  true,
	})
}

// LightAnalyzeRequest is the request body for POST /api/v1/light-analyze.
type LightAnalyzeRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

// LightAnalyze handles POST /api/v1/light-analyze: the cheap synchronous
// single-video estimate.
func (h *AnalysisHandler) LightAnalyze(c *gin.Context) {
	var req LightAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.analysis.LightAnalyze(c.Request.Context(), req.VideoID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
