package rescan

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trendscout/uts-engine/internal/logger"
)

// StartBatchFunc launches a re-scoring session over a due batch. Wired to
// the analysis service's Start in main.
type StartBatchFunc func(ctx context.Context, videoIDs []string) (string, error)

// Sweeper periodically queries the tracker for due videos and feeds them
// back into the analysis pipeline in bounded batches.
type Sweeper struct {
	tracker   *Tracker
	start     StartBatchFunc
	batchSize int
	cron      *cron.Cron
	logger    *logger.Logger
}

// NewSweeper creates a Sweeper. batchSize bounds how many due videos one
// sweep hands to a single session.
func NewSweeper(tracker *Tracker, start StartBatchFunc, batchSize int, log *logger.Logger) *Sweeper {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Sweeper{
		tracker:   tracker,
		start:     start,
		batchSize: batchSize,
		cron:      cron.New(),
		logger:    log,
	}
}

// Run starts the cron loop with the given schedule spec (e.g. "@every 5m")
// and blocks until it is registered. Stop() shuts it down.
func (s *Sweeper) Run(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass: query due videos, slice into batches, start a
// session per batch. Failures are logged and retried naturally on the next
// tick since failed videos stay due.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.tracker.Due(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("Rescan sweep: due query failed")
		return
	}
	if len(due) == 0 {
		return
	}

	s.logger.WithField("due", len(due)).Info("Rescan sweep: starting re-scoring sessions")

	for start := 0; start < len(due); start += s.batchSize {
		end := start + s.batchSize
		if end > len(due) {
			end = len(due)
		}
		batch := due[start:end]

		sessionID, err := s.start(ctx, batch)
		if err != nil {
			s.logger.WithFields(logger.Fields{
				"batch_size": len(batch),
			}).WithError(err).Error("Rescan sweep: failed to start session")
			continue
		}

		s.logger.WithFields(logger.Fields{
			logger.FieldSessionID: sessionID,
			"batch_size":          len(batch),
		}).Info("Rescan sweep: session started")
	}
}
