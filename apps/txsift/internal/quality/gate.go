package quality

import (
	"fmt"

	"go.uber.org/zap"
	"txsift/apps/txsift/internal/model"
)

// Verdict is the outcome of a quality gate evaluation.
type Verdict int

const (
	Pass Verdict = iota
	Reject
)

// Decision carries the verdict together with what was measured against what.
// The gate never terminates the run itself; the controller turns a Reject
// into a pipeline failure after running the phase-specific side effect.
type Decision struct {
	Verdict   Verdict
	Phase     string
	Observed  float64
	Threshold float64
}

type Gate struct {
	logger *zap.Logger
}

func NewGate(logger *zap.Logger) *Gate {
	return &Gate{logger: logger}
}

// Evaluate rejects iff the profile's conformity rate is below the threshold.
func (g *Gate) Evaluate(p *model.Profile, threshold float64) Decision {
	decision := Decision{
		Verdict:   Pass,
		Phase:     p.Phase,
		Observed:  p.ConformityRate,
		Threshold: threshold,
	}
	if p.ConformityRate < threshold {
		decision.Verdict = Reject
	}

	g.logger.Info("Evaluated quality gate",
		zap.String("phase", p.Phase),
		zap.Float64("conformity_rate", p.ConformityRate),
		zap.Float64("threshold", threshold),
		zap.Bool("passed", decision.Verdict == Pass))

	return decision
}

// GateError is the terminal failure produced from a Reject decision.
type GateError struct {
	Phase     string
	Observed  float64
	Threshold float64
}

func (e *GateError) Error() string {
	return fmt.Sprintf("quality gate rejected %s data: conformity rate %.6f below threshold %.6f",
		e.Phase, e.Observed, e.Threshold)
}
