package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trendscout/uts-engine/internal/service"
)

// VideoHandler handles video query endpoints.
type VideoHandler struct {
	videos *service.VideoQueryService
}

// NewVideoHandler creates a new video handler.
// Parameters:
//   - videos: video query service instance.
// Returns:
//   - *VideoHandler: initialized handler.
func NewVideoHandler(videos *service.VideoQueryService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// ListVideos handles GET /api/v1/videos: scored videos ranked by UTS
// score descending.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *VideoHandler) ListVideos(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	videos, total, err := h.videos.ListRanked(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetVideoUTS handles GET /api/v1/videos/:id/uts: one video's score,
// breakdown, and snapshot history.
func (h *VideoHandler) GetVideoUTS(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Video ID is required",
		})
		return
	}

	detail, err := h.videos.GetDetail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}
