package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/jpolanco/cardwise/internal/engine"
)

// policyFile is the on-disk TOML shape of a scoring policy override.
type policyFile struct {
	Weights struct {
		Timing        float64 `toml:"timing"`
		Liquidity     float64 `toml:"liquidity"`
		SavingsImpact float64 `toml:"savings_impact"`
		Utilization   float64 `toml:"utilization"`
		Distribution  float64 `toml:"distribution"`
	} `toml:"weights"`
	Thresholds struct {
		TimingSaturationDays int `toml:"timing_saturation_days"`
		FullIncomeCycles     int `toml:"full_income_cycles"`
	} `toml:"thresholds"`
	Affordability struct {
		BufferRequired    float64 `toml:"buffer_required"`
		ComfortableBuffer float64 `toml:"comfortable_buffer"`
		CriticalThreshold float64 `toml:"critical_threshold"`
	} `toml:"affordability"`
}

// LoadPolicy returns the scoring policy: the stock defaults when path is
// empty, otherwise the TOML file at path. Weights must sum to 100.
func LoadPolicy(path string) (engine.Policy, error) {
	p := engine.DefaultPolicy()
	if path == "" {
		return p, nil
	}

	var f policyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return p, fmt.Errorf("loading policy %s: %w", path, err)
	}

	p.Weights = engine.Weights{
		Timing:        f.Weights.Timing,
		Liquidity:     f.Weights.Liquidity,
		SavingsImpact: f.Weights.SavingsImpact,
		Utilization:   f.Weights.Utilization,
		Distribution:  f.Weights.Distribution,
	}
	if f.Thresholds.TimingSaturationDays > 0 {
		p.TimingSaturationDays = f.Thresholds.TimingSaturationDays
	}
	if f.Thresholds.FullIncomeCycles > 0 {
		p.FullIncomeCycles = f.Thresholds.FullIncomeCycles
	}
	if f.Affordability.BufferRequired > 0 {
		p.BufferRequired = f.Affordability.BufferRequired
	}
	if f.Affordability.ComfortableBuffer > 0 {
		p.ComfortableBuffer = f.Affordability.ComfortableBuffer
	}
	if f.Affordability.CriticalThreshold > 0 {
		p.CriticalThreshold = f.Affordability.CriticalThreshold
	}

	if err := validatePolicy(p); err != nil {
		return p, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return p, nil
}

func validatePolicy(p engine.Policy) error {
	w := p.Weights
	for name, v := range map[string]float64{
		"timing":         w.Timing,
		"liquidity":      w.Liquidity,
		"savings_impact": w.SavingsImpact,
		"utilization":    w.Utilization,
		"distribution":   w.Distribution,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative", name)
		}
	}
	if sum := w.Sum(); sum < 99.999 || sum > 100.001 {
		return fmt.Errorf("weights must sum to 100, got %.2f", sum)
	}
	return nil
}
