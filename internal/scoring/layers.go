package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

// LayerResult is one layer's score plus an optional diagnostic note
// surfaced in the breakdown (e.g. "insufficient data").
type LayerResult struct {
	Score float64
	Note  string
}

// NoteInsufficientData flags layers that fell back to the neutral score
// because the snapshot history was too short.
const NoteInsufficientData = "insufficient data"

// Scorer computes all six layer scores for a single video. Scorers are
// pure and independent per video, so callers may fan them out across a
// worker pool without coordination.
type Scorer struct {
	params Params
}

// NewScorer creates a Scorer with the given tunables.
func NewScorer(params Params) *Scorer {
	return &Scorer{params: params}
}

// clamp bounds a score to the [0, 100] layer scale.
func clamp(score float64) float64 {
	return math.Max(0, math.Min(score, 100))
}

// ViralLift compares the engagement rate against the niche baseline from
// the context. The score rises super-linearly above the baseline and caps
// at 100; a missing baseline yields the neutral 50.
//
// When no explicit niche baseline is given, the default baseline is scaled
// by the author's audience size: small accounts routinely post higher
// engagement rates than large ones, so the same rate means less lift for a
// small account and more for an established one. An explicit baseline is
// authoritative and skips the adjustment.
func (s *Scorer) ViralLift(stats NormalizedStats, sctx Context) LayerResult {
	baseline := sctx.NicheBaseline
	if baseline <= 0 {
		baseline = s.params.DefaultBaseline * audienceFactor(sctx.AuthorFollowers, s.params.FollowerBaselineRef)
	}
	if baseline <= 0 {
		return LayerResult{Score: NeutralScore, Note: "missing baseline"}
	}

	ratio := stats.EngagementRate / baseline
	return LayerResult{Score: clamp(NeutralScore * math.Pow(ratio, 1.5))}
}

// audienceFactor scales the default engagement baseline by audience size
// relative to the reference follower count. The quarter-power keeps the
// adjustment gentle and the factor is clamped to [0.5, 2]; unknown
// followers or an unset reference leave the baseline unchanged.
func audienceFactor(followers int64, ref float64) float64 {
	if followers <= 0 || ref <= 0 {
		return 1
	}
	factor := math.Pow(ref/float64(followers), 0.25)
	return math.Max(0.5, math.Min(factor, 2))
}

// velocityWindow bounds how far apart the two snapshots feeding the
// Velocity slope may be. A measurement older than this says nothing about
// the current growth, so it is treated as absent rather than stretched
// into a misleading average.
const velocityWindow = 24 * time.Hour

// Velocity scores the play-count growth slope across the last two
// snapshots captured within velocityWindow of each other, through a
// logistic curve so very large absolute growth saturates instead of
// dominating. Fewer than two recent snapshots yields the neutral 50 with
// an insufficient-data note.
func (s *Scorer) Velocity(history []domain.VideoMetricSnapshot) LayerResult {
	recent := recentWindow(history, velocityWindow)
	if len(recent) < 2 {
		return LayerResult{Score: NeutralScore, Note: NoteInsufficientData}
	}

	prev := recent[len(recent)-2]
	last := recent[len(recent)-1]
	growth := viewsPerHour(prev, last)
	if growth <= 0 {
		return LayerResult{Score: 0}
	}

	// Logistic in log10 space centered on the midpoint: midpoint growth
	// maps to 50, a 10x midpoint to ~85, a 100x midpoint to ~97.
	x := math.Log10(growth) - math.Log10(s.params.VelocityMidpoint)
	return LayerResult{Score: clamp(100 / (1 + math.Exp(-1.7*x)))}
}

// recentWindow returns the suffix of history captured within window of the
// latest snapshot. History is already ordered by capture time.
func recentWindow(history []domain.VideoMetricSnapshot, window time.Duration) []domain.VideoMetricSnapshot {
	if len(history) == 0 {
		return history
	}
	cutoff := history[len(history)-1].CapturedAt.Add(-window)
	start := len(history) - 1
	for start > 0 && !history[start-1].CapturedAt.Before(cutoff) {
		start--
	}
	return history[start:]
}

// viewsPerHour returns the play-count slope between two snapshots.
// Intervals under a minute are floored to avoid huge slopes from
// back-to-back measurements.
func viewsPerHour(prev, last domain.VideoMetricSnapshot) float64 {
	hours := last.CapturedAt.Sub(prev.CapturedAt).Hours()
	if hours < 1.0/60 {
		hours = 1.0 / 60
	}
	return float64(last.PlayCount-prev.PlayCount) / hours
}

// Retention proxies completion via the deep-engagement rate
// (comments+shares over plays), since direct watch-time is unavailable.
// Long-form clips get a configurable bonus because a comment on a
// three-minute video implies more retained attention than one on a
// seven-second loop.
func (s *Scorer) Retention(stats NormalizedStats, sctx Context) LayerResult {
	deepRate := float64(stats.CommentCount+stats.ShareCount) / math.Max(float64(stats.PlayCount), 1)
	score := deepRate * s.params.RetentionScale
	if sctx.DurationSec >= s.params.LongFormSec && s.params.LongFormSec > 0 {
		score *= s.params.LongFormBonus
	}
	return LayerResult{Score: clamp(score)}
}

// Cascade scores how widely the video's sound has spread through the
// recent corpus, scaled logarithmically so extremely popular sounds see
// diminishing returns.
func (s *Scorer) Cascade(sctx Context) LayerResult {
	count := sctx.CascadeCount
	if count < 1 {
		count = 1
	}
	return LayerResult{Score: clamp(s.params.CascadeLogScale * math.Log2(float64(1+count)))}
}

// Saturation is the inverse of cascade spread times trend age: the more
// videos ride a sound and the older the trend, the more saturated it is.
// The sub-score lives on a 0-1 scale (exposed to consumers as
// saturation_score, where <= 0.7 reads "getting saturated"); the layer
// score is the sub-score times 100.
func (s *Scorer) Saturation(sctx Context) LayerResult {
	count := float64(sctx.CascadeCount)
	if count < 1 {
		count = 1
	}
	age := math.Max(sctx.TrendAgeDays, 0)
	sub := math.Exp(-(count / s.params.SaturationCascadeRef) * (age / s.params.SaturationAgeRefDays))
	return LayerResult{Score: clamp(sub * 100)}
}

// Stability rewards consistent growth over spike-then-drop volatility: it
// is the inverse coefficient of variation of the per-interval velocity
// across the last three or more snapshots. Shorter histories yield the
// neutral 50 with an insufficient-data note.
func (s *Scorer) Stability(history []domain.VideoMetricSnapshot) LayerResult {
	if len(history) < 3 {
		return LayerResult{Score: NeutralScore, Note: NoteInsufficientData}
	}

	velocities := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		velocities = append(velocities, viewsPerHour(history[i-1], history[i]))
	}

	mean := 0.0
	for _, v := range velocities {
		mean += v
	}
	mean /= float64(len(velocities))
	if mean <= 0 {
		// Flat or shrinking deltas: nothing stable to reward.
		return LayerResult{Score: 0}
	}

	variance := 0.0
	for _, v := range velocities {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(velocities))

	cv := math.Sqrt(variance) / mean
	return LayerResult{Score: clamp(100 / (1 + cv))}
}

// ScoreAll runs all six layers for a video and returns the per-layer map
// used by Aggregate plus the assembled breakdown. Malformed input fails
// fast; well-formed input never panics.
func (s *Scorer) ScoreAll(stats NormalizedStats, history []domain.VideoMetricSnapshot, sctx Context) (map[string]float64, domain.UTSBreakdown, error) {
	for i := range history {
		if err := history[i].Validate(); err != nil {
			return nil, domain.UTSBreakdown{}, fmt.Errorf("history snapshot %d: %w", i, err)
		}
	}
	if math.IsNaN(stats.EngagementRate) || math.IsNaN(stats.HoursSincePost) {
		return nil, domain.UTSBreakdown{}, fmt.Errorf("normalized stats: %w", domain.ErrInvalidMetric)
	}

	viralLift := s.ViralLift(stats, sctx)
	velocity := s.Velocity(history)
	retention := s.Retention(stats, sctx)
	cascade := s.Cascade(sctx)
	saturation := s.Saturation(sctx)
	stability := s.Stability(history)

	layers := map[string]float64{
		LayerViralLift:  viralLift.Score,
		LayerVelocity:   velocity.Score,
		LayerRetention:  retention.Score,
		LayerCascade:    cascade.Score,
		LayerSaturation: saturation.Score,
		LayerStability:  stability.Score,
	}

	breakdown := domain.UTSBreakdown{
		ViralLift:  round1(viralLift.Score),
		Velocity:   round1(velocity.Score),
		Retention:  round1(retention.Score),
		Cascade:    round1(cascade.Score),
		Saturation: round1(saturation.Score),
		Stability:  round1(stability.Score),
	}
	// Notes are collected in fixed layer order to keep output deterministic.
	for _, noted := range []struct {
		layer  string
		result LayerResult
	}{
		{LayerViralLift, viralLift},
		{LayerVelocity, velocity},
		{LayerStability, stability},
	} {
		if noted.result.Note != "" {
			breakdown.Notes = append(breakdown.Notes, noted.layer+": "+noted.result.Note)
		}
	}

	return layers, breakdown, nil
}
