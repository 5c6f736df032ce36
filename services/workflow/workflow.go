package workflow

import (
	"context"
	"fmt"
	"time"

	"mangaworker/logger"
)

// State is the lifecycle of one workflow step.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Step is one gated unit of the run. Steps execute strictly in order; a
// failed step fails the whole workflow and every later step stays pending.
type Step struct {
	Name string
	Run  func(ctx context.Context) error

	State    State
	Err      error
	Duration time.Duration
}

// Workflow executes steps sequentially with fail-fast gating.
type Workflow struct {
	steps []*Step
	log   *logger.Logger
}

// New creates a workflow over the given steps.
func New(steps ...*Step) *Workflow {
	for _, step := range steps {
		step.State = StatePending
	}
	return &Workflow{
		steps: steps,
		log:   logger.ForWorkflow(),
	}
}

// Steps exposes the step list with their final states.
func (w *Workflow) Steps() []*Step {
	return w.steps
}

// Execute runs all steps in order. The first failure is returned and all
// remaining steps are left pending.
func (w *Workflow) Execute(ctx context.Context) error {
	for i, step := range w.steps {
		if err := ctx.Err(); err != nil {
			step.State = StateFailed
			step.Err = err
			return fmt.Errorf("workflow cancelled before step %s: %w", step.Name, err)
		}

		w.log.Info().
			Str("step", step.Name).
			Int("position", i+1).
			Int("of", len(w.steps)).
			Msg("Step started")

		step.State = StateRunning
		start := time.Now()
		err := step.Run(ctx)
		step.Duration = time.Since(start)

		if err != nil {
			step.State = StateFailed
			step.Err = err
			w.log.Error().
				Str("step", step.Name).
				Dur("took", step.Duration).
				Err(err).
				Msg("Step failed, halting downstream steps")
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		step.State = StateSucceeded
		w.log.Info().
			Str("step", step.Name).
			Dur("took", step.Duration).
			Msg("Step succeeded")
	}

	return nil
}
