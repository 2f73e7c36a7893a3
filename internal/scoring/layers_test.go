package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/trendscout/uts-engine/internal/domain"
)

var testPosted = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// growthHistory builds a snapshot sequence with the given cumulative play
// counts, one hour apart.
func growthHistory(plays ...int64) []domain.VideoMetricSnapshot {
	history := make([]domain.VideoMetricSnapshot, len(plays))
	for i, p := range plays {
		history[i] = snap(testPosted.Add(time.Duration(i+1)*time.Hour), p, 0, 0, 0, 0)
	}
	return history
}

func TestViralLift(t *testing.T) {
	s := NewScorer(DefaultParams())

	tests := []struct {
		name     string
		rate     float64
		baseline float64
		want     float64
	}{
		{name: "at baseline", rate: 0.05, baseline: 0.05, want: 50},
		{name: "double baseline caps past 100", rate: 0.10, baseline: 0.05, want: 100},
		{name: "half baseline", rate: 0.025, baseline: 0.05, want: 50 * math.Pow(0.5, 1.5)},
		{name: "falls back to default baseline", rate: 0.05, baseline: 0, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ViralLift(NormalizedStats{EngagementRate: tt.rate}, Context{NicheBaseline: tt.baseline})
			if math.Abs(got.Score-tt.want) > 1e-6 {
				t.Errorf("ViralLift = %f, want %f", got.Score, tt.want)
			}
		})
	}
}

func TestViralLiftMissingBaseline(t *testing.T) {
	s := NewScorer(Params{}) // no default baseline configured

	got := s.ViralLift(NormalizedStats{EngagementRate: 0.2}, Context{})
	if got.Score != NeutralScore {
		t.Errorf("score = %f, want neutral %f", got.Score, NeutralScore)
	}
	if got.Note == "" {
		t.Error("expected a diagnostic note for the missing baseline")
	}
}

func TestVelocityInsufficientHistory(t *testing.T) {
	s := NewScorer(DefaultParams())

	got := s.Velocity(growthHistory(1000))
	if got.Score != NeutralScore {
		t.Errorf("score = %f, want neutral %f", got.Score, NeutralScore)
	}
	if got.Note != NoteInsufficientData {
		t.Errorf("note = %q, want %q", got.Note, NoteInsufficientData)
	}
}

func TestVelocity(t *testing.T) {
	s := NewScorer(DefaultParams())

	t.Run("midpoint growth scores 50", func(t *testing.T) {
		// 1000 plays gained over exactly one hour.
		got := s.Velocity(growthHistory(5000, 6000))
		if math.Abs(got.Score-50) > 1e-6 {
			t.Errorf("score = %f, want 50", got.Score)
		}
	})

	t.Run("10x midpoint saturates high", func(t *testing.T) {
		got := s.Velocity(growthHistory(5000, 15000))
		if got.Score <= 80 || got.Score >= 90 {
			t.Errorf("score = %f, want in (80, 90)", got.Score)
		}
	})

	t.Run("shrinking plays score 0", func(t *testing.T) {
		got := s.Velocity(growthHistory(6000, 5000))
		if got.Score != 0 {
			t.Errorf("score = %f, want 0", got.Score)
		}
	})
}

func TestVelocityIgnoresStaleSnapshots(t *testing.T) {
	s := NewScorer(DefaultParams())

	t.Run("stale pair falls back to neutral", func(t *testing.T) {
		// The penultimate snapshot is 48h old: the pair says nothing about
		// current growth.
		history := []domain.VideoMetricSnapshot{
			snap(testPosted, 5000, 0, 0, 0, 0),
			snap(testPosted.Add(48*time.Hour), 6000, 0, 0, 0, 0),
		}
		got := s.Velocity(history)
		if got.Score != NeutralScore {
			t.Errorf("score = %f, want neutral %f", got.Score, NeutralScore)
		}
		if got.Note != NoteInsufficientData {
			t.Errorf("note = %q, want %q", got.Note, NoteInsufficientData)
		}
	})

	t.Run("recent pair keeps its slope past a stale leader", func(t *testing.T) {
		history := []domain.VideoMetricSnapshot{
			snap(testPosted, 100, 0, 0, 0, 0),
			snap(testPosted.Add(71*time.Hour), 5000, 0, 0, 0, 0),
			snap(testPosted.Add(72*time.Hour), 6000, 0, 0, 0, 0),
		}
		got := s.Velocity(history)
		if math.Abs(got.Score-50) > 1e-6 {
			t.Errorf("score = %f, want 50 from the recent pair", got.Score)
		}
	})

	t.Run("snapshot exactly a day apart still counts", func(t *testing.T) {
		history := []domain.VideoMetricSnapshot{
			snap(testPosted, 5000, 0, 0, 0, 0),
			snap(testPosted.Add(24*time.Hour), 6000, 0, 0, 0, 0),
		}
		got := s.Velocity(history)
		if got.Note != "" {
			t.Errorf("note = %q, want none at the window boundary", got.Note)
		}
		if got.Score <= 0 {
			t.Errorf("score = %f, want a positive slope score", got.Score)
		}
	})
}

func TestViralLiftAudienceAdjusted(t *testing.T) {
	s := NewScorer(DefaultParams())
	stats := NormalizedStats{EngagementRate: 0.05}

	reference := s.ViralLift(stats, Context{AuthorFollowers: 10000})
	if math.Abs(reference.Score-50) > 1e-6 {
		t.Fatalf("reference-audience score = %f, want 50", reference.Score)
	}

	// A tiny account is expected to post higher engagement rates, so the
	// same rate earns less lift.
	small := s.ViralLift(stats, Context{AuthorFollowers: 100})
	if small.Score >= reference.Score {
		t.Errorf("small-account score = %f, want below %f", small.Score, reference.Score)
	}

	// A huge account beating the small-account average is genuinely viral.
	big := s.ViralLift(stats, Context{AuthorFollowers: 10_000_000})
	if big.Score <= reference.Score {
		t.Errorf("big-account score = %f, want above %f", big.Score, reference.Score)
	}

	// An explicit niche baseline is authoritative: followers do not move it.
	explicit := s.ViralLift(stats, Context{NicheBaseline: 0.05, AuthorFollowers: 100})
	if math.Abs(explicit.Score-50) > 1e-6 {
		t.Errorf("explicit-baseline score = %f, want 50", explicit.Score)
	}
}

func TestAudienceFactor(t *testing.T) {
	tests := []struct {
		name      string
		followers int64
		ref       float64
		want      float64
	}{
		{name: "unknown followers", followers: 0, ref: 10000, want: 1},
		{name: "disabled reference", followers: 500, ref: 0, want: 1},
		{name: "at reference", followers: 10000, ref: 10000, want: 1},
		{name: "tiny account clamps high", followers: 100, ref: 10000, want: 2},
		{name: "huge account clamps low", followers: 10_000_000, ref: 10000, want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audienceFactor(tt.followers, tt.ref); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("audienceFactor(%d, %f) = %f, want %f", tt.followers, tt.ref, got, tt.want)
			}
		})
	}
}

func TestRetention(t *testing.T) {
	s := NewScorer(DefaultParams())

	stats := NormalizedStats{PlayCount: 10000, CommentCount: 10, ShareCount: 10}

	short := s.Retention(stats, Context{DurationSec: 15})
	if math.Abs(short.Score-10) > 1e-6 {
		t.Errorf("short-form score = %f, want 10", short.Score)
	}

	long := s.Retention(stats, Context{DurationSec: 90})
	if math.Abs(long.Score-12) > 1e-6 {
		t.Errorf("long-form score = %f, want 12", long.Score)
	}
}

func TestCascade(t *testing.T) {
	s := NewScorer(DefaultParams())

	tests := []struct {
		name  string
		count int
		want  float64
	}{
		{name: "single video", count: 1, want: 15},
		{name: "zero treated as one", count: 0, want: 15},
		{name: "seven videos", count: 7, want: 45},
		{name: "huge cascade clamps", count: 100000, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Cascade(Context{CascadeCount: tt.count})
			if math.Abs(got.Score-tt.want) > 1e-6 {
				t.Errorf("Cascade = %f, want %f", got.Score, tt.want)
			}
		})
	}
}

func TestSaturation(t *testing.T) {
	s := NewScorer(DefaultParams())

	t.Run("fresh trend", func(t *testing.T) {
		got := s.Saturation(Context{CascadeCount: 1, TrendAgeDays: 0})
		if math.Abs(got.Score-100) > 1e-6 {
			t.Errorf("score = %f, want 100", got.Score)
		}
	})

	t.Run("old crowded trend reads saturated", func(t *testing.T) {
		got := s.Saturation(Context{CascadeCount: 200, TrendAgeDays: 10})
		sub := got.Score / 100
		if sub > SaturationFreshThreshold {
			t.Errorf("sub-score = %f, want <= %f", sub, SaturationFreshThreshold)
		}
		want := math.Exp(-(200.0/150)*(10.0/7)) * 100
		if math.Abs(got.Score-want) > 1e-6 {
			t.Errorf("score = %f, want %f", got.Score, want)
		}
	})
}

func TestStability(t *testing.T) {
	s := NewScorer(DefaultParams())

	t.Run("insufficient history", func(t *testing.T) {
		got := s.Stability(growthHistory(1000, 2000))
		if got.Score != NeutralScore || got.Note != NoteInsufficientData {
			t.Errorf("got (%f, %q), want (%f, %q)", got.Score, got.Note, NeutralScore, NoteInsufficientData)
		}
	})

	t.Run("steady growth scores 100", func(t *testing.T) {
		got := s.Stability(growthHistory(1000, 2000, 3000, 4000))
		if math.Abs(got.Score-100) > 1e-6 {
			t.Errorf("score = %f, want 100", got.Score)
		}
	})

	t.Run("volatile growth scores lower", func(t *testing.T) {
		steady := s.Stability(growthHistory(1000, 2000, 3000, 4000))
		spiky := s.Stability(growthHistory(1000, 10000, 10100, 10200))
		if spiky.Score >= steady.Score {
			t.Errorf("spiky %f should score below steady %f", spiky.Score, steady.Score)
		}
	})

	t.Run("shrinking plays score 0", func(t *testing.T) {
		got := s.Stability(growthHistory(5000, 4000, 3000))
		if got.Score != 0 {
			t.Errorf("score = %f, want 0", got.Score)
		}
	})
}

func TestScoreAllBounded(t *testing.T) {
	s := NewScorer(DefaultParams())

	// Extreme inputs must still land every layer in [0, 100].
	history := growthHistory(1, 100000000, 200000000)
	stats := NormalizedStats{
		PlayCount:      200000000,
		CommentCount:   50000000,
		ShareCount:     50000000,
		EngagementRate: 0.9,
		HoursSincePost: 2,
	}
	sctx := Context{NicheBaseline: 0.0001, CascadeCount: 1000000, TrendAgeDays: 10000}

	layers, breakdown, err := s.ScoreAll(stats, history, sctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for name, score := range layers {
		if score < 0 || score > 100 {
			t.Errorf("layer %s = %f, out of [0, 100]", name, score)
		}
	}
	for _, score := range []float64{
		breakdown.ViralLift, breakdown.Velocity, breakdown.Retention,
		breakdown.Cascade, breakdown.Saturation, breakdown.Stability,
	} {
		if score < 0 || score > 100 {
			t.Errorf("breakdown score %f out of [0, 100]", score)
		}
	}
}

func TestScoreAllDeterministicNotes(t *testing.T) {
	s := NewScorer(DefaultParams())
	history := growthHistory(5000) // one snapshot: velocity and stability fall back
	stats := NormalizedStats{PlayCount: 5000, EngagementRate: 0.05}

	_, first, err := s.ScoreAll(stats, history, Context{NicheBaseline: 0.05})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		_, again, err := s.ScoreAll(stats, history, Context{NicheBaseline: 0.05})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(again.Notes) != len(first.Notes) {
			t.Fatalf("note count changed: %v vs %v", again.Notes, first.Notes)
		}
		for j := range first.Notes {
			if again.Notes[j] != first.Notes[j] {
				t.Errorf("note order changed: %v vs %v", again.Notes, first.Notes)
			}
		}
	}

	if len(first.Notes) != 2 {
		t.Fatalf("notes = %v, want velocity and stability fallbacks", first.Notes)
	}
	if first.Notes[0] != LayerVelocity+": "+NoteInsufficientData {
		t.Errorf("first note = %q", first.Notes[0])
	}
	if first.Notes[1] != LayerStability+": "+NoteInsufficientData {
		t.Errorf("second note = %q", first.Notes[1])
	}
}

func TestScoreAllRejectsNaN(t *testing.T) {
	s := NewScorer(DefaultParams())

	_, _, err := s.ScoreAll(NormalizedStats{EngagementRate: math.NaN()}, nil, Context{})
	if !errors.Is(err, domain.ErrInvalidMetric) {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}
}

func TestScoreAllRejectsBadHistory(t *testing.T) {
	s := NewScorer(DefaultParams())

	bad := []domain.VideoMetricSnapshot{snap(testPosted, -1, 0, 0, 0, 0)}
	_, _, err := s.ScoreAll(NormalizedStats{}, bad, Context{})
	if !errors.Is(err, domain.ErrInvalidMetric) {
		t.Errorf("expected ErrInvalidMetric, got %v", err)
	}
}
