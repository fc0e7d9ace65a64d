package nn

import "github.com/baldhumanity/accneat-go/neat"

// Evaluator scores one network over a task. Executors drive it step by step:
//
//	for ev.NextStep() {
//		if ev.ClearNonInput() { reset network state }
//		load ev.Sensors(), activate, ev.Evaluate(outputs)
//	}
//	result := ev.Result()
type Evaluator interface {
	// NextStep advances to the next input presentation and reports whether there is one.
	NextStep() bool
	// ClearNonInput reports whether hidden and output state must be reset before this step.
	ClearNonInput() bool
	// Sensors returns the sensor values of the current step.
	Sensors() []float64
	// Evaluate scores the network outputs of the current step.
	Evaluate(outputs []float64)
	Result() neat.OrganismEvaluation
}

// EvaluatorConfig is the task description pushed to an executor by Configure.
// NewEvaluator must be safe to call from several goroutines.
type EvaluatorConfig interface {
	NewEvaluator() Evaluator
	Validate() error
}

// runEvaluator evaluates net with a fresh evaluator, running activations
// synchronous passes per input presentation.
func runEvaluator(net *Network, cfg EvaluatorConfig, activations int) neat.OrganismEvaluation {
	ev := cfg.NewEvaluator()
	net.ClearNonInput()
	for ev.NextStep() {
		if ev.ClearNonInput() {
			net.ClearNonInput()
		}
		net.LoadSensors(ev.Sensors())
		for k := 0; k < activations; k++ {
			net.Activate()
		}
		ev.Evaluate(net.Outputs())
	}
	return sanitize(ev.Result())
}
