package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"txsift/apps/txsift/internal/config"
	"txsift/apps/txsift/internal/ingest"
	"txsift/apps/txsift/internal/model"
	"txsift/apps/txsift/internal/publish"
	"txsift/apps/txsift/internal/quality"
	"txsift/apps/txsift/internal/standardize"
)

// State of the pipeline run. Transitions are strictly sequential; the two
// gates are the only branch points.
type State string

const (
	StateIngesting     State = "ingesting"
	StateProfilingPre  State = "profiling_pre"
	StateGatingPre     State = "gating_pre"
	StateStandardizing State = "standardizing"
	StateProfilingPost State = "profiling_post"
	StateGatingPost    State = "gating_post"
	StatePublishing    State = "publishing"
	StateDone          State = "done"

	StateFailedMissingInput State = "failed_missing_input"
	StateFailedQualityGate  State = "failed_quality_gate"
)

// Controller sequences one pipeline run: ingest, profile, gate, standardize,
// profile, gate, publish. Every stage completes, including its persisted side
// effects, before the next starts. A terminal failure unwinds as an error;
// there is no retry.
type Controller struct {
	cfg          *config.Config
	ingester     *ingest.Ingester
	standardizer *standardize.Standardizer
	profiler     *quality.Profiler
	gate         *quality.Gate
	publisher    *publish.Publisher
	logger       *zap.Logger
	state        State
}

func NewController(
	cfg *config.Config,
	ingester *ingest.Ingester,
	standardizer *standardize.Standardizer,
	profiler *quality.Profiler,
	gate *quality.Gate,
	publisher *publish.Publisher,
	logger *zap.Logger) *Controller {
	return &Controller{
		cfg:          cfg,
		ingester:     ingester,
		standardizer: standardizer,
		profiler:     profiler,
		gate:         gate,
		publisher:    publisher,
		logger:       logger,
		state:        StateIngesting,
	}
}

// State returns the state the last Run finished in.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Run(ctx context.Context) error {
	c.transition(StateIngesting)
	raw, err := c.ingester.ReadCSV(c.cfg.InputCSV)
	if err != nil {
		if errors.Is(err, ingest.ErrInputNotFound) {
			c.state = StateFailedMissingInput
			c.logger.Error("Input file is missing, aborting before any output",
				zap.String("path", c.cfg.InputCSV))
		}
		return err
	}

	c.transition(StateProfilingPre)
	pre, err := c.profiler.ProfileRaw(raw, model.PhasePreClean)
	if err != nil {
		return err
	}

	c.transition(StateGatingPre)
	if decision := c.gate.Evaluate(pre, c.cfg.PreCleanThreshold); decision.Verdict == quality.Reject {
		if err := c.publisher.SnapshotRaw(ctx, raw); err != nil {
			return fmt.Errorf("failed to snapshot raw dataset after gate rejection: %w", err)
		}
		return c.failGate(decision)
	}

	c.transition(StateStandardizing)
	clean := c.standardizer.Apply(raw)

	c.transition(StateProfilingPost)
	post, err := c.profiler.ProfileClean(clean, model.PhasePostClean)
	if err != nil {
		return err
	}

	c.transition(StateGatingPost)
	if decision := c.gate.Evaluate(post, c.cfg.PostCleanThreshold); decision.Verdict == quality.Reject {
		// Publish anyway so the rejected batch can be inspected downstream.
		if err := c.publisher.Publish(ctx, clean); err != nil {
			return fmt.Errorf("failed to publish rejected dataset: %w", err)
		}
		return c.failGate(decision)
	}

	c.transition(StatePublishing)
	if err := c.publisher.Publish(ctx, clean); err != nil {
		return err
	}

	c.transition(StateDone)
	c.logger.Info("Pipeline run complete",
		zap.Int("rows_published", len(clean.Rows)),
		zap.Float64("conformity_rate", post.ConformityRate))

	return nil
}

func (c *Controller) transition(next State) {
	c.state = next
	c.logger.Info("Pipeline stage started", zap.String("state", string(next)))
}

func (c *Controller) failGate(decision quality.Decision) error {
	c.state = StateFailedQualityGate
	c.logger.Error("Quality gate rejected the dataset",
		zap.String("phase", decision.Phase),
		zap.Float64("conformity_rate", decision.Observed),
		zap.Float64("threshold", decision.Threshold))
	return &quality.GateError{
		Phase:     decision.Phase,
		Observed:  decision.Observed,
		Threshold: decision.Threshold,
	}
}
