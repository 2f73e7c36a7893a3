package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trendscout/uts-engine/internal/api"
	"github.com/trendscout/uts-engine/internal/collector"
	"github.com/trendscout/uts-engine/internal/config"
	"github.com/trendscout/uts-engine/internal/embedding"
	"github.com/trendscout/uts-engine/internal/logger"
	"github.com/trendscout/uts-engine/internal/repository"
	"github.com/trendscout/uts-engine/internal/rescan"
	"github.com/trendscout/uts-engine/internal/scoring"
	"github.com/trendscout/uts-engine/internal/service"
	"github.com/trendscout/uts-engine/internal/storage"
)

func main() {
	// Initialize logger first (with rotation and env overrides)
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	vectorRepo, err := repository.NewVectorRepository(&repository.VectorConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Qdrant.Dimensions,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize vector repository")
	}
	defer vectorRepo.Close()

	ctx := context.Background()
	if err := vectorRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure vector collection")
	}

	// Initialize cover archival storage (optional)
	var thumbnails service.ThumbnailStore
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewStorage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		thumbnails = storage.NewThumbnailArchive(objectStorage)
	}

	// Initialize the metric collector and the embedding client
	coll := collector.NewApifyCollector(&collector.ApifyConfig{
		BaseURL:  cfg.Collector.BaseURL,
		APIToken: cfg.Collector.APIToken,
		ActorID:  cfg.Collector.ActorID,
		Timeout:  2 * time.Minute,
	})

	embedClient := embedding.NewClient(&embedding.Config{
		BaseURL: cfg.MLService.BaseURL,
		Timeout: cfg.MLService.Timeout,
	})

	// Initialize the rescan tracker over the video repository
	tracker := rescan.NewTracker(videoRepo, cfg.Rescan.Window)

	// Build the layer scorer
	params := scoring.DefaultParams()
	if !cfg.Scoring.IsZero() {
		params = scoring.Params{
			DefaultBaseline:      cfg.Scoring.DefaultBaseline,
			VelocityMidpoint:     cfg.Scoring.VelocityMidpoint,
			RetentionScale:       cfg.Scoring.RetentionScale,
			LongFormSec:          cfg.Scoring.LongFormSec,
			LongFormBonus:        cfg.Scoring.LongFormBonus,
			FollowerBaselineRef:  cfg.Scoring.FollowerBaselineRef,
			CascadeLogScale:      cfg.Scoring.CascadeLogScale,
			SaturationCascadeRef: cfg.Scoring.SaturationCascadeRef,
			SaturationAgeRefDays: cfg.Scoring.SaturationAgeRefDays,
		}
	}
	scorer := scoring.NewScorer(params)

	// Initialize services
	analysisService := service.NewAnalysisService(
		videoRepo,
		sessionRepo,
		coll,
		embedClient,
		vectorRepo,
		thumbnails,
		tracker,
		scorer,
		appLogger,
		service.AnalysisConfig{
			BatchCap:  cfg.Session.BatchCap,
			Workers:   cfg.Session.Workers,
			Timeout:   cfg.Session.Timeout,
			Eps:       cfg.Clustering.Eps,
			MinPoints: cfg.Clustering.MinPoints,
			MinViews:  cfg.Collector.MinViews,
		},
	)
	videoService := service.NewVideoQueryService(videoRepo)

	// Start the rescan sweeper
	sweeper := rescan.NewSweeper(tracker, func(ctx context.Context, videoIDs []string) (string, error) {
		session, err := analysisService.Start(ctx, videoIDs, 0)
		if err != nil {
			return "", err
		}
		return session.SessionID, nil
	}, cfg.Rescan.BatchSize, appLogger)
	if err := sweeper.Run(cfg.Rescan.SweepSpec); err != nil {
		appLogger.WithError(err).Fatal("Failed to start rescan sweeper")
	}

	// Setup router
	router := api.SetupRouter(analysisService, videoService, appLogger, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	sweeper.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
