package config

import (
	_ "embed"
)

//go:embed defaults/tacmap.yaml
var defaultTacmapYAML []byte

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		Decompose: DecomposeConfig{
			MinRegionSize: 3,
			MinRampSize:   2,
			RampMaxStep:   1.0,
			ChokeMaxWidth: 2,
		},
		Eval: EvalConfig{
			ClassWeights: map[string]float64{
				"worker":  0.25,
				"fighter": 1.0,
				"siege":   1.6,
				"caster":  1.2,
			},
			ResourceWeight: 0.001,
			ThreatFalloff:  1.0,
			Labels: LabelConfig{
				Lethal: 24.0,
				Strong: 10.0,
				Weak:   2.0,
			},
		},
	}
}
