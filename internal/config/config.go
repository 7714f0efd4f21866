// Package config provides YAML-based configuration loading for the tacmap
// analyzer: decomposition tuning, evaluator weights, and threat labels.
package config

// Config is the root configuration for an analysis run.
type Config struct {
	Decompose DecomposeConfig `yaml:"decompose"`
	Eval      EvalConfig      `yaml:"eval"`
}

// DecomposeConfig tunes the terrain decomposition pass.
type DecomposeConfig struct {
	// MinRegionSize is the smallest connected component kept as a region;
	// anything smaller is retained as noise.
	MinRegionSize int `yaml:"min_region_size"`

	// MinRampSize is the smallest ramp cluster kept as a ramp.
	MinRampSize int `yaml:"min_ramp_size"`

	// RampMaxStep is the largest height difference between adjacent cells
	// that still reads as a traversable slope rather than a cliff.
	RampMaxStep float64 `yaml:"ramp_max_step"`

	// ChokeMaxWidth is the widest passage still treated as a choke point.
	ChokeMaxWidth int `yaml:"choke_max_width"`
}

// EvalConfig tunes the per-region force/value/threat evaluators.
type EvalConfig struct {
	// ClassWeights scales a unit's effective combat power by its class.
	// Classes absent from the map use weight 1.0.
	ClassWeights map[string]float64 `yaml:"class_weights"`

	// ResourceWeight converts remaining expand resources into economic value
	// for the side holding a base in that region.
	ResourceWeight float64 `yaml:"resource_weight"`

	// ThreatFalloff controls how quickly enemy force in distant regions stops
	// contributing to local threat. Larger values shorten the reach.
	ThreatFalloff float64 `yaml:"threat_falloff"`

	Labels LabelConfig `yaml:"labels"`
}

// LabelConfig holds the raw-force breakpoints for presentation labels.
// Scores at or above Lethal read "Lethal", at or above Strong read "Strong",
// at or above Weak read "Neutral", and everything else reads "Weak".
type LabelConfig struct {
	Lethal float64 `yaml:"lethal"`
	Strong float64 `yaml:"strong"`
	Weak   float64 `yaml:"weak"`
}

// ClassWeight returns the combat weight for a unit class, defaulting to 1.0.
func (e EvalConfig) ClassWeight(class string) float64 {
	if w, ok := e.ClassWeights[class]; ok {
		return w
	}
	return 1.0
}
