package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpolanco/cardwise/internal/config"
)

func TestLoadPolicy_Defaults(t *testing.T) {
	p, err := config.LoadPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Weights.Timing != 35 || p.Weights.Liquidity != 25 {
		t.Errorf("unexpected default weights: %+v", p.Weights)
	}
	if p.TimingSaturationDays != 45 || p.FullIncomeCycles != 2 {
		t.Errorf("unexpected default thresholds: %+v", p)
	}
}

func TestLoadPolicy_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := `
[weights]
timing = 40
liquidity = 30
savings_impact = 10
utilization = 10
distribution = 10

[thresholds]
timing_saturation_days = 60
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	p, err := config.LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Weights.Timing != 40 {
		t.Errorf("expected timing weight 40, got %.0f", p.Weights.Timing)
	}
	if p.TimingSaturationDays != 60 {
		t.Errorf("expected saturation 60, got %d", p.TimingSaturationDays)
	}
	if p.FullIncomeCycles != 2 {
		t.Errorf("expected default full_income_cycles 2, got %d", p.FullIncomeCycles)
	}
}

func TestLoadPolicy_RejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := `
[weights]
timing = 90
liquidity = 30
savings_impact = 10
utilization = 10
distribution = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	if _, err := config.LoadPolicy(path); err == nil {
		t.Fatal("expected error for weights not summing to 100")
	}
}
