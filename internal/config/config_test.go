package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultsMatchEmbeddedYAML(t *testing.T) {
	var embedded Config
	if err := yaml.Unmarshal(defaultTacmapYAML, &embedded); err != nil {
		t.Fatalf("embedded defaults do not parse: %v", err)
	}

	hardcoded := DefaultConfig()
	if embedded.Decompose != hardcoded.Decompose {
		t.Errorf("decompose defaults diverge: yaml %+v, code %+v", embedded.Decompose, hardcoded.Decompose)
	}
	if embedded.Eval.ResourceWeight != hardcoded.Eval.ResourceWeight ||
		embedded.Eval.ThreatFalloff != hardcoded.Eval.ThreatFalloff ||
		embedded.Eval.Labels != hardcoded.Eval.Labels {
		t.Errorf("eval defaults diverge: yaml %+v, code %+v", embedded.Eval, hardcoded.Eval)
	}
	for class, w := range hardcoded.Eval.ClassWeights {
		if embedded.Eval.ClassWeights[class] != w {
			t.Errorf("class %q weight: yaml %v, code %v", class, embedded.Eval.ClassWeights[class], w)
		}
	}
}

func TestClassWeightDefault(t *testing.T) {
	cfg := DefaultConfig().Eval
	if got := cfg.ClassWeight("worker"); got != 0.25 {
		t.Errorf("ClassWeight(worker) = %v, want 0.25", got)
	}
	if got := cfg.ClassWeight("dragon"); got != 1.0 {
		t.Errorf("ClassWeight(dragon) = %v, want 1.0 default", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	custom := `
decompose:
  min_region_size: 7
  min_ramp_size: 4
  ramp_max_step: 0.5
  choke_max_width: 1
eval:
  resource_weight: 0.01
`
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Decompose.MinRegionSize != 7 || cfg.Decompose.ChokeMaxWidth != 1 {
		t.Errorf("custom decompose values not applied: %+v", cfg.Decompose)
	}
	if cfg.Eval.ResourceWeight != 0.01 {
		t.Errorf("custom eval values not applied: %+v", cfg.Eval)
	}
}

func TestLoadMissingCustomPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of a missing explicit path should fail, not fall back")
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	// No custom path and no config files in the working directory: the
	// embedded defaults must come back.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Decompose.MinRegionSize == 0 {
		t.Error("fallback config is empty")
	}
}
