package scoring

// Params holds the tunable constants behind the six layer scorers and the
// aggregator. The weighting formula and the baselines are design
// parameters, not derived at runtime; the defaults below are starting
// points meant to be tuned per niche, not fixed truths.
type Params struct {
	// DefaultBaseline is the fallback niche engagement-rate baseline
	// (fraction of plays) when the caller supplies none. Zero disables the
	// fallback and makes Viral Lift return its neutral score.
	DefaultBaseline float64 `mapstructure:"default_baseline"`

	// VelocityMidpoint is the views-per-hour growth at which the Velocity
	// layer crosses 50. The logistic curve saturates above it so a single
	// monster spike cannot dominate the composite.
	VelocityMidpoint float64 `mapstructure:"velocity_midpoint"`

	// RetentionScale converts the deep-engagement rate (comments+shares
	// over plays) to the 0-100 layer scale.
	RetentionScale float64 `mapstructure:"retention_scale"`

	// LongFormSec is the duration from which the Retention layer applies
	// its long-form bonus.
	LongFormSec int `mapstructure:"long_form_sec"`

	// LongFormBonus multiplies the Retention score for long-form clips.
	LongFormBonus float64 `mapstructure:"long_form_bonus"`

	// FollowerBaselineRef is the audience size at which DefaultBaseline
	// applies as-is. Smaller accounts get a proportionally higher expected
	// engagement rate, larger ones a lower one; see Scorer.ViralLift.
	FollowerBaselineRef float64 `mapstructure:"follower_baseline_ref"`

	// CascadeLogScale multiplies log2(1+count) in the Cascade layer.
	CascadeLogScale float64 `mapstructure:"cascade_log_scale"`

	// SaturationCascadeRef and SaturationAgeRefDays set the decay scales of
	// the saturation sub-score: exp(-(count/cascadeRef)*(ageDays/ageRef)).
	SaturationCascadeRef float64 `mapstructure:"saturation_cascade_ref"`
	SaturationAgeRefDays float64 `mapstructure:"saturation_age_ref_days"`
}

// DefaultParams returns the documented default tunables.
func DefaultParams() Params {
	return Params{
		DefaultBaseline:      0.05,
		VelocityMidpoint:     1000,
		RetentionScale:       5000,
		LongFormSec:          60,
		LongFormBonus:        1.2,
		FollowerBaselineRef:  10000,
		CascadeLogScale:      15,
		SaturationCascadeRef: 150,
		SaturationAgeRefDays: 7,
	}
}

// NeutralScore is returned by layers that cannot discriminate on the given
// input (missing baseline, too few snapshots).
const NeutralScore = 50.0

// SaturationFreshThreshold is the 0-1 sub-scale value below which a trend
// is labeled "getting saturated" by consumers.
const SaturationFreshThreshold = 0.7

// Layer names used as aggregation keys and breakdown fields.
const (
	LayerViralLift  = "viral_lift"
	LayerVelocity   = "velocity"
	LayerRetention  = "retention"
	LayerCascade    = "cascade"
	LayerSaturation = "saturation"
	LayerStability  = "stability"
)

// Weights maps layer names to their fixed aggregation weights. The values
// sum to 1.0; changing them is a redeploy, never a runtime decision.
var Weights = map[string]float64{
	LayerViralLift:  0.25,
	LayerVelocity:   0.20,
	LayerRetention:  0.15,
	LayerCascade:    0.15,
	LayerSaturation: 0.15,
	LayerStability:  0.10,
}

// Context carries the per-video scoring inputs that do not come from the
// snapshot history itself: the niche baseline, the corpus-level sound
// cascade view, and author metadata. It is passed explicitly into every
// scoring call; there is no ambient configuration.
type Context struct {
	// NicheBaseline is the category engagement-rate baseline (fraction of
	// plays). Zero or negative means unknown.
	NicheBaseline float64

	// CascadeCount is the number of videos sharing this video's sound
	// within the recent corpus window, including this one.
	CascadeCount int

	// TrendAgeDays is the age of the sound trend, measured from the
	// earliest known video using the sound.
	TrendAgeDays float64

	// AuthorFollowers scales expectations for small accounts; 0 is unknown.
	AuthorFollowers int64

	// DurationSec is the clip duration when known, 0 otherwise.
	DurationSec int
}
