package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/trendscout/uts-engine/internal/collector"
	"github.com/trendscout/uts-engine/internal/config"
	"github.com/trendscout/uts-engine/internal/domain"
	"github.com/trendscout/uts-engine/internal/embedding"
	"github.com/trendscout/uts-engine/internal/logger"
	"github.com/trendscout/uts-engine/internal/repository"
	"github.com/trendscout/uts-engine/internal/rescan"
	"github.com/trendscout/uts-engine/internal/scoring"
	"github.com/trendscout/uts-engine/internal/service"
)

// One-shot rescan runner. Scores explicit videos or sweeps everything whose
// rescan deadline has passed, then waits for the sessions to finish.
func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "uts-rescan",
	})
	logger.SetDefaultLogger(appLogger)

	videos := flag.String("videos", "", "Comma-separated video IDs to rescore (default: all due videos)")
	baseline := flag.Float64("baseline", 0, "Niche engagement-rate baseline, 0 for the configured default")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

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
	tracker := rescan.NewTracker(videoRepo, cfg.Rescan.Window)

	analysisService := service.NewAnalysisService(
		videoRepo,
		sessionRepo,
		coll,
		embedClient,
		vectorRepo,
		nil,
		tracker,
		scoring.NewScorer(scoring.DefaultParams()),
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

	var ids []string
	if *videos != "" {
		for _, id := range strings.Split(*videos, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				ids = append(ids, trimmed)
			}
		}
	} else {
		ids, err = tracker.Due(ctx, time.Now())
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to query due videos")
		}
	}

	if len(ids) == 0 {
		appLogger.Info("Nothing to rescore")
		return
	}

	batchSize := cfg.Rescan.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		session, err := analysisService.Start(ctx, batch, *baseline)
		if err != nil {
			appLogger.WithError(err).Error("Failed to start session")
			continue
		}

		final := waitForSession(ctx, analysisService, session.SessionID, cfg.Session.Timeout)
		appLogger.WithFields(logger.Fields{
			logger.FieldSessionID: session.SessionID,
			logger.FieldPhase:     string(final.Phase),
			"videos":              len(batch),
			"results":             len(final.Results),
			"clusters":            len(final.Clusters),
		}).Info("Session finished")
	}
}

// waitForSession polls until the session goes terminal or the deadline
// passes, returning the last observed state.
func waitForSession(ctx context.Context, svc *service.AnalysisService, sessionID string, timeout time.Duration) *domain.AnalysisSession {
	deadline := time.Now().Add(timeout + 30*time.Second)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	last := &domain.AnalysisSession{SessionID: sessionID}
	for time.Now().Before(deadline) {
		session, err := svc.GetSession(ctx, sessionID)
		if err == nil {
			last = session
			if session.Phase.Terminal() {
				return session
			}
		}
		<-ticker.C
	}
	return last
}
