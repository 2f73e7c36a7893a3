package api

import (
	"github.com/gin-gonic/gin"

	"github.com/trendscout/uts-engine/internal/api/handler"
	"github.com/trendscout/uts-engine/internal/api/middleware"
	"github.com/trendscout/uts-engine/internal/config"
	"github.com/trendscout/uts-engine/internal/logger"
	"github.com/trendscout/uts-engine/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	analysisService *service.AnalysisService,
	videoService *service.VideoQueryService,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	videoHandler := handler.NewVideoHandler(videoService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Deep analysis sessions
		v1.POST("/deep-analyze", analysisHandler.StartDeepAnalyze)
		v1.GET("/deep-analyze/:id", analysisHandler.GetSession)
		v1.POST("/deep-analyze/:id/cancel", analysisHandler.CancelSession)

		// Light analysis
		v1.POST("/light-analyze", analysisHandler.LightAnalyze)

		// Scored videos
		v1.GET("/videos", videoHandler.ListVideos)
		v1.GET("/videos/:id/uts", videoHandler.GetVideoUTS)
	}

	return r
}
