// Package experiment defines static tasks for evolving networks and the run
// loop that drives a population against them.
package experiment

import (
	"fmt"
	"math"

	"github.com/baldhumanity/accneat-go/neat"
	"github.com/baldhumanity/accneat-go/neat/nn"
)

// Step is one input presentation. Steps with zero weight only drive the
// network and do not contribute to the error.
type Step struct {
	Sensors  []float64
	Expected []float64
	Weight   float64
}

// Trial is a sequence of steps. Network state is cleared before each trial.
type Trial struct {
	Steps []Step
}

// StaticConfig is a task made of fixed trials, scored by weighted squared error:
// Error = Σ weight·(expected - output)², Fitness = 1 - Error/MaxError.
type StaticConfig struct {
	NumSensors int // excludes bias
	NumOutputs int
	Trials     []Trial
}

var _ nn.EvaluatorConfig = (*StaticConfig)(nil)

// Validate checks that every step matches the task shape.
func (c *StaticConfig) Validate() error {
	if len(c.Trials) == 0 {
		return fmt.Errorf("static config has no trials")
	}
	for ti, t := range c.Trials {
		if len(t.Steps) == 0 {
			return fmt.Errorf("trial %d has no steps", ti)
		}
		for si, s := range t.Steps {
			if len(s.Sensors) != c.NumSensors {
				return fmt.Errorf("trial %d step %d: %d sensor values, want %d", ti, si, len(s.Sensors), c.NumSensors)
			}
			if s.Weight < 0 {
				return fmt.Errorf("trial %d step %d: negative weight", ti, si)
			}
			if s.Weight > 0 && len(s.Expected) != c.NumOutputs {
				return fmt.Errorf("trial %d step %d: %d expected values, want %d", ti, si, len(s.Expected), c.NumOutputs)
			}
		}
	}
	return nil
}

// MaxError is the error of the worst possible output in [0, 1] for every scored step.
func (c *StaticConfig) MaxError() float64 {
	total := 0.0
	for _, t := range c.Trials {
		for _, s := range t.Steps {
			for _, e := range s.Expected {
				worst := math.Max(e, 1-e)
				total += s.Weight * worst * worst
			}
		}
	}
	return total
}

// NewEvaluator returns a fresh evaluator positioned before the first step.
func (c *StaticConfig) NewEvaluator() nn.Evaluator {
	return &staticEvaluator{cfg: c, step: -1, maxErr: c.MaxError()}
}

type staticEvaluator struct {
	cfg    *StaticConfig
	trial  int
	step   int
	err    float64
	maxErr float64
}

func (e *staticEvaluator) NextStep() bool {
	e.step++
	for e.trial < len(e.cfg.Trials) && e.step >= len(e.cfg.Trials[e.trial].Steps) {
		e.trial++
		e.step = 0
	}
	return e.trial < len(e.cfg.Trials)
}

func (e *staticEvaluator) ClearNonInput() bool {
	return e.step == 0
}

func (e *staticEvaluator) current() *Step {
	return &e.cfg.Trials[e.trial].Steps[e.step]
}

func (e *staticEvaluator) Sensors() []float64 {
	return e.current().Sensors
}

func (e *staticEvaluator) Evaluate(outputs []float64) {
	s := e.current()
	if s.Weight == 0 {
		return
	}
	for i, want := range s.Expected {
		got := 0.0
		if i < len(outputs) {
			got = outputs[i]
		}
		d := want - got
		e.err += s.Weight * d * d
	}
}

func (e *staticEvaluator) Result() neat.OrganismEvaluation {
	fitness := 1.0
	if e.maxErr > 0 {
		fitness = 1.0 - e.err/e.maxErr
	}
	return neat.OrganismEvaluation{Fitness: fitness, Error: e.err}
}
