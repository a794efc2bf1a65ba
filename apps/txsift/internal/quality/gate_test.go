package quality

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"txsift/apps/txsift/internal/model"
)

func TestGateEvaluate(t *testing.T) {
	gate := NewGate(zap.NewNop())

	tests := []struct {
		name      string
		rate      float64
		threshold float64
		want      Verdict
	}{
		{"below threshold rejects", 0.97, 0.98, Reject},
		{"above threshold passes", 0.99, 0.98, Pass},
		{"exactly at threshold passes", 0.98, 0.98, Pass},
		{"perfect rate passes", 1.0, 0.995, Pass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Profile{Phase: model.PhasePreClean, ConformityRate: tt.rate}
			decision := gate.Evaluate(p, tt.threshold)
			if decision.Verdict != tt.want {
				t.Errorf("Expected verdict %v, got %v", tt.want, decision.Verdict)
			}
			if decision.Phase != model.PhasePreClean {
				t.Errorf("Expected phase pre_clean, got %s", decision.Phase)
			}
			if decision.Observed != tt.rate {
				t.Errorf("Expected observed rate %v, got %v", tt.rate, decision.Observed)
			}
			if decision.Threshold != tt.threshold {
				t.Errorf("Expected threshold %v, got %v", tt.threshold, decision.Threshold)
			}
		})
	}
}

func TestGateErrorUnwrapsThroughWrapping(t *testing.T) {
	gateErr := &GateError{Phase: model.PhasePostClean, Observed: 0.9, Threshold: 0.995}
	wrapped := fmt.Errorf("pipeline run failed: %w", gateErr)

	var target *GateError
	if !errors.As(wrapped, &target) {
		t.Fatal("Expected errors.As to find GateError through wrapping")
	}
	if target.Phase != model.PhasePostClean {
		t.Errorf("Expected phase post_clean, got %s", target.Phase)
	}
	if !strings.Contains(gateErr.Error(), "post_clean") {
		t.Errorf("Expected error message to name the phase, got '%s'", gateErr.Error())
	}
}
