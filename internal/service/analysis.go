package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trendscout/uts-engine/internal/cluster"
	"github.com/trendscout/uts-engine/internal/collector"
	"github.com/trendscout/uts-engine/internal/domain"
	"github.com/trendscout/uts-engine/internal/logger"
	"github.com/trendscout/uts-engine/internal/rescan"
	"github.com/trendscout/uts-engine/internal/scoring"
)

// cascadeWindow bounds the corpus view used for the cascade and saturation
// layers: only videos posted inside this window count toward a sound's
// cascade.
const cascadeWindow = 30 * 24 * time.Hour

// VideoStore is the persistence surface the analysis pipeline needs for
// video records and their snapshot history.
type VideoStore interface {
	Upsert(ctx context.Context, video *domain.VideoRecord) error
	Update(ctx context.Context, video *domain.VideoRecord) error
	GetByID(ctx context.Context, videoID string) (*domain.VideoRecord, error)
	AppendSnapshot(ctx context.Context, snapshot *domain.VideoMetricSnapshot) error
	Snapshots(ctx context.Context, videoID string) ([]domain.VideoMetricSnapshot, error)
	CountBySound(ctx context.Context, soundID string, since time.Time) (int64, error)
	EarliestBySound(ctx context.Context, soundID string) (time.Time, error)
}

// SessionStore persists analysis sessions.
type SessionStore interface {
	Create(ctx context.Context, session *domain.AnalysisSession) error
	GetByID(ctx context.Context, sessionID string) (*domain.AnalysisSession, error)
	Update(ctx context.Context, session *domain.AnalysisSession) error
}

// EmbeddingProvider turns cover image URLs into fixed-dimension vectors.
type EmbeddingProvider interface {
	EmbedImages(ctx context.Context, imageURLs []string) ([][]float32, error)
}

// VectorCache caches cover embeddings across sessions so rescans do not
// re-embed unchanged covers.
type VectorCache interface {
	UpsertEmbedding(ctx context.Context, videoID string, vector []float32) error
	GetEmbeddings(ctx context.Context, videoIDs []string) ([]domain.EmbeddingVector, error)
}

// ThumbnailStore archives downloaded cover images. Optional.
type ThumbnailStore interface {
	Save(ctx context.Context, videoID string, data []byte, contentType string) (string, error)
}

// AnalysisConfig holds orchestration tunables.
type AnalysisConfig struct {
	BatchCap  int
	Workers   int
	Timeout   time.Duration
	Eps       float64
	MinPoints int
	MinViews  int64
}

// AnalysisService orchestrates deep-analyze sessions: collect metrics,
// score every video through the layer pipeline, cluster covers, summarize.
type AnalysisService struct {
	videos     VideoStore
	sessions   SessionStore
	coll       collector.Collector
	embedder   EmbeddingProvider
	vectors    VectorCache
	thumbnails ThumbnailStore
	tracker    *rescan.Tracker
	scorer     *scoring.Scorer
	logger     *logger.Logger
	cfg        AnalysisConfig

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewAnalysisService creates the orchestrator. vectors and thumbnails may
// be nil; the corresponding steps degrade gracefully.
func NewAnalysisService(
	videos VideoStore,
	sessions SessionStore,
	coll collector.Collector,
	embedder EmbeddingProvider,
	vectors VectorCache,
	thumbnails ThumbnailStore,
	tracker *rescan.Tracker,
	scorer *scoring.Scorer,
	log *logger.Logger,
	cfg AnalysisConfig,
) *AnalysisService {
	if cfg.BatchCap <= 0 {
		cfg.BatchCap = 500
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &AnalysisService{
		videos:     videos,
		sessions:   sessions,
		coll:       coll,
		embedder:   embedder,
		vectors:    vectors,
		thumbnails: thumbnails,
		tracker:    tracker,
		scorer:     scorer,
		logger:     log,
		cfg:        cfg,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *AnalysisService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// dedupe removes duplicate IDs preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Start validates the batch, creates a session, and launches the pipeline
// in the background. It returns as soon as the session is persisted in the
// collecting phase; progress is observed via GetSession.
// Parameters:
//   - ctx: context for the synchronous validation and persistence.
//   - videoIDs: batch of platform video IDs, at most BatchCap after dedupe.
//   - nicheBaseline: engagement-rate baseline for Viral Lift, 0 if unknown.
// Returns:
//   - *domain.AnalysisSession: the created session in its initial phase.
//   - error: ErrEmptyBatch, ErrBatchTooLarge, or a persistence failure.
func (s *AnalysisService) Start(ctx context.Context, videoIDs []string, nicheBaseline float64) (*domain.AnalysisSession, error) {
	ids := dedupe(videoIDs)
	if len(ids) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if len(ids) > s.cfg.BatchCap {
		return nil, fmt.Errorf("%w: %d videos, cap is %d", domain.ErrBatchTooLarge, len(ids), s.cfg.BatchCap)
	}

	acquired, busy := s.tracker.Acquire(ids)

	session := &domain.AnalysisSession{
		SessionID: uuid.New().String(),
		VideoIDs:  domain.StringList(ids),
		Phase:     domain.PhaseCollecting,
		Results:   domain.VideoResultList{},
		StartedAt: time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, id := range busy {
		session.Results = append(session.Results, domain.VideoResult{
			VideoID:   id,
			ErrorKind: domain.ErrorKind(domain.ErrVideoInFlight),
			Error:     domain.ErrVideoInFlight.Error(),
		})
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.tracker.Release(acquired)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	runCtx = logger.SetSessionID(runCtx, session.SessionID)

	s.mu.Lock()
	s.cancels[session.SessionID] = cancel
	s.mu.Unlock()

	go s.run(runCtx, session.SessionID, acquired, nicheBaseline)

	return session, nil
}

// GetSession returns the current persisted state of a session.
func (s *AnalysisService) GetSession(ctx context.Context, sessionID string) (*domain.AnalysisSession, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// Cancel cooperatively stops a running session. Cancelling an
// already-terminal session is an invalid-input error.
func (s *AnalysisService) Cancel(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Phase.Terminal() {
		return fmt.Errorf("session %s already %s: %w", sessionID, session.Phase, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	cancel, ok := s.cancels[sessionID]
	s.mu.Unlock()
	if !ok {
		// Session row exists but no runner in this process (e.g. restart).
		return s.failSession(ctx, session, domain.ErrCancelled)
	}
	cancel()
	return nil
}

// run drives one session through its phases. It owns the in-flight
// reservations for acquired and releases them on every exit path.
func (s *AnalysisService) run(ctx context.Context, sessionID string, acquired []string, nicheBaseline float64) {
	defer func() {
		s.tracker.Release(acquired)
		s.mu.Lock()
		if cancel, ok := s.cancels[sessionID]; ok {
			cancel()
			delete(s.cancels, sessionID)
		}
		s.mu.Unlock()
	}()

	// Persistence runs on a detached context so terminal states are still
	// written after the session deadline fires.
	persistCtx := logger.SetSessionID(context.Background(), sessionID)

	session, err := s.sessions.GetByID(persistCtx, sessionID)
	if err != nil {
		s.log(persistCtx).WithError(err).Error("Session runner could not load its session")
		return
	}

	if len(acquired) == 0 {
		// Every requested video was busy; nothing to do.
		s.finishSession(persistCtx, session)
		return
	}

	s.log(ctx).WithField(logger.FieldCount, len(acquired)).Info("Session started")

	// Phase: collecting.
	scorable, err := s.collect(ctx, session, acquired)
	if err != nil {
		s.failSessionCtx(persistCtx, ctx, session, err)
		return
	}

	// Phase: scoring.
	if err := s.advance(persistCtx, session, domain.PhaseScoring); err != nil {
		return
	}
	scored, err := s.scoreBatch(ctx, session, scorable, nicheBaseline)
	if err != nil {
		s.failSessionCtx(persistCtx, ctx, session, err)
		return
	}
	if err := s.sessions.Update(persistCtx, session); err != nil {
		s.log(persistCtx).WithError(err).Error("Failed to persist scoring results")
	}

	// Phase: clustering.
	if err := s.advance(persistCtx, session, domain.PhaseClustering); err != nil {
		return
	}
	if err := s.clusterBatch(ctx, session, scored); err != nil {
		// Scoring results stay on the session even when clustering fails.
		s.failSessionCtx(persistCtx, ctx, session, err)
		return
	}

	// Phase: finalizing.
	if err := s.advance(persistCtx, session, domain.PhaseFinalizing); err != nil {
		return
	}
	rankResults(session)
	s.summarize(session)

	s.finishSession(persistCtx, session)
	s.log(persistCtx).WithField(logger.FieldCount, len(session.Results)).Info("Session done")
}

// advance persists a monotonic phase transition. A false transition means
// the session went terminal concurrently; the runner stops quietly.
func (s *AnalysisService) advance(ctx context.Context, session *domain.AnalysisSession, next domain.SessionPhase) error {
	if !session.Phase.CanTransition(next) {
		return fmt.Errorf("cannot transition %s -> %s", session.Phase, next)
	}
	session.Phase = next
	if err := s.sessions.Update(ctx, session); err != nil {
		s.log(ctx).WithError(err).Error("Failed to persist phase transition")
	}
	s.log(ctx).WithField(logger.FieldPhase, string(next)).Info("Session phase advanced")
	return nil
}

// failSessionCtx records a session failure, translating a fired run
// context into the timeout/cancelled taxonomy.
func (s *AnalysisService) failSessionCtx(persistCtx, runCtx context.Context, session *domain.AnalysisSession, err error) {
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = domain.ErrTimeout
	case errors.Is(runCtx.Err(), context.Canceled):
		err = domain.ErrCancelled
	}
	if failErr := s.failSession(persistCtx, session, err); failErr != nil {
		s.log(persistCtx).WithError(failErr).Error("Failed to persist session failure")
	}
}

func (s *AnalysisService) failSession(ctx context.Context, session *domain.AnalysisSession, cause error) error {
	if session.Phase.Terminal() {
		return nil
	}
	now := time.Now()
	session.Phase = domain.PhaseFailed
	session.ErrorKind = domain.ErrorKind(cause)
	session.Error = cause.Error()
	session.CompletedAt = &now
	s.log(ctx).WithError(cause).Warn("Session failed")
	return s.sessions.Update(ctx, session)
}

func (s *AnalysisService) finishSession(ctx context.Context, session *domain.AnalysisSession) {
	if session.Phase.Terminal() {
		return
	}
	now := time.Now()
	session.Phase = domain.PhaseDone
	session.CompletedAt = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		s.log(ctx).WithError(err).Error("Failed to persist session completion")
	}
}

// recordFailure appends a per-video failure to the session results.
func recordFailure(session *domain.AnalysisSession, videoID string, err error) {
	session.Results = append(session.Results, domain.VideoResult{
		VideoID:   videoID,
		ErrorKind: domain.ErrorKind(err),
		Error:     err.Error(),
	})
}

// collect fetches fresh metrics for the acquired videos, persists records
// and snapshots, and returns the videos eligible for scoring. Per-video
// collection failures are recorded on the session, not returned.
func (s *AnalysisService) collect(ctx context.Context, session *domain.AnalysisSession, acquired []string) ([]domain.VideoRecord, error) {
	collected, failures, err := s.coll.CollectBatch(ctx, acquired)
	if err != nil {
		return nil, fmt.Errorf("collection failed: %w", err)
	}

	for _, id := range acquired {
		if perVideo, ok := failures[id]; ok {
			recordFailure(session, id, perVideo)
		}
	}

	scorable := make([]domain.VideoRecord, 0, len(collected))
	for i := range collected {
		item := &collected[i]
		if err := s.videos.Upsert(ctx, &item.Video); err != nil {
			recordFailure(session, item.Video.VideoID, fmt.Errorf("failed to persist video: %w", err))
			continue
		}
		if err := s.videos.AppendSnapshot(ctx, &item.Snapshot); err != nil {
			recordFailure(session, item.Video.VideoID, err)
			continue
		}
		if collector.BelowMinViews(item.Snapshot, s.cfg.MinViews) {
			recordFailure(session, item.Video.VideoID,
				fmt.Errorf("%w: %d plays is below the %d minimum", domain.ErrInvalidInput, item.Snapshot.PlayCount, s.cfg.MinViews))
			continue
		}
		s.archiveCover(ctx, item)
		scorable = append(scorable, item.Video)
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		s.log(ctx).WithError(err).Error("Failed to persist collection results")
	}

	return scorable, nil
}

// archiveCover downloads and stores a video's cover image. Best effort.
func (s *AnalysisService) archiveCover(ctx context.Context, item *collector.Collected) {
	if s.thumbnails == nil || item.Video.CoverURL == "" {
		return
	}
	data, contentType, err := s.coll.FetchThumbnail(ctx, item.Video.CoverURL)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Cover download failed")
		return
	}
	if _, err := s.thumbnails.Save(ctx, item.Video.VideoID, data, contentType); err != nil {
		s.log(ctx).WithError(err).Warn("Cover archival failed")
	}
}

// soundContext is the per-sound corpus view shared by all videos using the
// same sound in a batch.
type soundContext struct {
	cascadeCount int
	trendAgeDays float64
}

// soundContexts queries the cascade count and trend age once per unique
// sound in the batch.
func (s *AnalysisService) soundContexts(ctx context.Context, videos []domain.VideoRecord) map[string]soundContext {
	now := time.Now()
	since := now.Add(-cascadeWindow)
	out := make(map[string]soundContext)
	for i := range videos {
		soundID := videos[i].SoundID
		if soundID == "" {
			continue
		}
		if _, ok := out[soundID]; ok {
			continue
		}
		sctx := soundContext{}
		if count, err := s.videos.CountBySound(ctx, soundID, since); err == nil {
			sctx.cascadeCount = int(count)
		} else {
			s.log(ctx).WithError(err).Warn("Cascade count query failed")
		}
		if earliest, err := s.videos.EarliestBySound(ctx, soundID); err == nil && !earliest.IsZero() {
			sctx.trendAgeDays = now.Sub(earliest).Hours() / 24
		}
		out[soundID] = sctx
	}
	return out
}

// scoreBatch runs the layer pipeline over the batch with a worker pool.
// One video's failure is recorded and never aborts its siblings. Results
// are appended in the batch's input order regardless of worker timing.
func (s *AnalysisService) scoreBatch(ctx context.Context, session *domain.AnalysisSession, videos []domain.VideoRecord, nicheBaseline float64) ([]domain.VideoRecord, error) {
	if len(videos) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sounds := s.soundContexts(ctx, videos)

	outcomes := make([]scoreOutcome, len(videos))

	jobs := make(chan int, len(videos))
	var wg sync.WaitGroup
	workers := s.cfg.Workers
	if workers > len(videos) {
		workers = len(videos)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Cooperative cancel: stop dequeuing once the run context dies.
				if ctx.Err() != nil {
					return
				}
				outcomes[i] = s.scoreOne(ctx, &videos[i], sounds, nicheBaseline)
			}
		}()
	}
	for i := range videos {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]domain.VideoRecord, 0, len(videos))
	for i := range outcomes {
		session.Results = append(session.Results, outcomes[i].result)
		if outcomes[i].video != nil {
			scored = append(scored, *outcomes[i].video)
		}
	}
	return scored, nil
}

// scoreOutcome pairs a per-video result with the updated record when
// scoring succeeded.
type scoreOutcome struct {
	result domain.VideoResult
	video  *domain.VideoRecord
}

// scoreOne scores a single video end to end: history, layers, aggregate,
// persist, rescan bookkeeping.
func (s *AnalysisService) scoreOne(ctx context.Context, video *domain.VideoRecord, sounds map[string]soundContext, nicheBaseline float64) scoreOutcome {
	ctx = logger.SetVideoID(ctx, video.VideoID)

	history, err := s.videos.Snapshots(ctx, video.VideoID)
	if err != nil {
		err = fmt.Errorf("%w: snapshot history: %v", domain.ErrScoringFailed, err)
		return scoreOutcome{result: failureResult(video.VideoID, err)}
	}

	stats, err := scoring.Normalize(video.PostedAt, history)
	if err != nil {
		return scoreOutcome{result: failureResult(video.VideoID, err)}
	}

	sctx := scoring.Context{
		NicheBaseline:   nicheBaseline,
		AuthorFollowers: video.AuthorFollowers,
		DurationSec:     video.DurationSec,
	}
	if sound, ok := sounds[video.SoundID]; ok {
		sctx.CascadeCount = sound.cascadeCount
		sctx.TrendAgeDays = sound.trendAgeDays
	}

	layers, breakdown, err := s.scorer.ScoreAll(stats, history, sctx)
	if err != nil {
		return scoreOutcome{result: failureResult(video.VideoID, err)}
	}
	score, err := scoring.Aggregate(layers)
	if err != nil {
		return scoreOutcome{result: failureResult(video.VideoID, err)}
	}

	now := time.Now()
	video.CascadeCount = sctx.CascadeCount
	video.MarkScored(score, breakdown, now, s.tracker.Window())
	if err := s.videos.Update(ctx, video); err != nil {
		err = fmt.Errorf("%w: persist score: %v", domain.ErrScoringFailed, err)
		return scoreOutcome{result: failureResult(video.VideoID, err)}
	}
	if err := s.tracker.MarkScored(ctx, video.VideoID, now); err != nil {
		s.log(ctx).WithError(err).Warn("Failed to advance rescan deadline")
	}

	b := breakdown
	return scoreOutcome{
		result: domain.VideoResult{
			VideoID:         video.VideoID,
			UTSScore:        score,
			Breakdown:       &b,
			SaturationScore: breakdown.Saturation / 100,
			CascadeCount:    sctx.CascadeCount,
		},
		video: video,
	}
}

func failureResult(videoID string, err error) domain.VideoResult {
	return domain.VideoResult{
		VideoID:   videoID,
		ErrorKind: domain.ErrorKind(err),
		Error:     err.Error(),
	}
}

// clusterBatch embeds the scored videos' covers and runs density
// clustering over them. A whole-stage failure is returned and fails the
// session; scoring results persist either way.
func (s *AnalysisService) clusterBatch(ctx context.Context, session *domain.AnalysisSession, scored []domain.VideoRecord) error {
	candidates := make([]domain.VideoRecord, 0, len(scored))
	for i := range scored {
		if scored[i].CoverURL != "" {
			candidates = append(candidates, scored[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	points, err := s.embedCovers(ctx, candidates)
	if err != nil {
		return fmt.Errorf("clustering failed: %w", err)
	}

	labels, err := cluster.Run(points, s.cfg.Eps, s.cfg.MinPoints)
	if err != nil {
		return fmt.Errorf("clustering failed: %w", err)
	}

	for i := range candidates {
		video := &candidates[i]
		label, ok := labels[video.VideoID]
		if !ok {
			continue
		}
		labelCopy := label
		video.ClusterID = &labelCopy
		video.Clustered = true
		if err := s.videos.Update(ctx, video); err != nil {
			s.log(ctx).WithError(err).Warn("Failed to persist cluster label")
		}
		for j := range session.Results {
			if session.Results[j].VideoID == video.VideoID && !session.Results[j].Failed() {
				session.Results[j].ClusterID = &labelCopy
			}
		}
	}
	return nil
}

// embedCovers resolves one embedding per candidate, consulting the vector
// cache first and embedding only the misses. Points come back in candidate
// order so clustering stays deterministic.
func (s *AnalysisService) embedCovers(ctx context.Context, candidates []domain.VideoRecord) ([]cluster.Point, error) {
	cached := make(map[string][]float32, len(candidates))
	if s.vectors != nil {
		ids := make([]string, len(candidates))
		for i := range candidates {
			ids[i] = candidates[i].VideoID
		}
		vectors, err := s.vectors.GetEmbeddings(ctx, ids)
		if err != nil {
			s.log(ctx).WithError(err).Warn("Embedding cache lookup failed")
		} else {
			for _, v := range vectors {
				cached[v.VideoID] = v.Vector
			}
		}
	}

	var missing []int
	for i := range candidates {
		if _, ok := cached[candidates[i].VideoID]; !ok {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		urls := make([]string, len(missing))
		for j, i := range missing {
			urls[j] = candidates[i].CoverURL
		}
		embeddings, err := s.embedder.EmbedImages(ctx, urls)
		if err != nil {
			return nil, err
		}
		for j, i := range missing {
			videoID := candidates[i].VideoID
			cached[videoID] = embeddings[j]
			if s.vectors != nil {
				if err := s.vectors.UpsertEmbedding(ctx, videoID, embeddings[j]); err != nil {
					s.log(ctx).WithError(err).Warn("Embedding cache upsert failed")
				}
			}
		}
	}

	points := make([]cluster.Point, 0, len(candidates))
	for i := range candidates {
		vector, ok := cached[candidates[i].VideoID]
		if !ok || len(vector) == 0 {
			continue
		}
		points = append(points, cluster.Point{
			VideoID: candidates[i].VideoID,
			Vector:  vector,
		})
	}
	return points, nil
}

// rankResults orders the session results by UTS score descending. Ties keep
// their batch insertion order (the underlying sort is stable), and failed
// videos sink to the end in the order their failures were recorded.
func rankResults(session *domain.AnalysisSession) {
	entries := make([]scoring.Ranked, 0, len(session.Results))
	byID := make(map[string]domain.VideoResult, len(session.Results))
	var failures []domain.VideoResult
	for _, r := range session.Results {
		if r.Failed() {
			failures = append(failures, r)
			continue
		}
		entries = append(entries, scoring.Ranked{VideoID: r.VideoID, Score: r.UTSScore})
		byID[r.VideoID] = r
	}

	ranked := scoring.Rank(entries)
	out := make(domain.VideoResultList, 0, len(session.Results))
	for _, e := range ranked {
		out = append(out, byID[e.VideoID])
	}
	session.Results = append(out, failures...)
}

// summarize aggregates per-cluster stats from the session results. Noise
// videos are excluded; clusters come out ordered by ID.
func (s *AnalysisService) summarize(session *domain.AnalysisSession) {
	type agg struct {
		count int
		sum   float64
		ids   []string
	}
	byCluster := make(map[int]*agg)
	for i := range session.Results {
		r := &session.Results[i]
		if r.Failed() || r.ClusterID == nil || *r.ClusterID == domain.NoiseClusterID {
			continue
		}
		a, ok := byCluster[*r.ClusterID]
		if !ok {
			a = &agg{}
			byCluster[*r.ClusterID] = a
		}
		a.count++
		a.sum += r.UTSScore
		a.ids = append(a.ids, r.VideoID)
	}

	clusterIDs := make([]int, 0, len(byCluster))
	for id := range byCluster {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	session.Clusters = make(domain.ClusterSummaryList, 0, len(clusterIDs))
	for _, id := range clusterIDs {
		a := byCluster[id]
		session.Clusters = append(session.Clusters, domain.ClusterSummary{
			ClusterID:  id,
			VideoCount: a.count,
			AvgUTS:     a.sum / float64(a.count),
			VideoIDs:   a.ids,
		})
	}
}
