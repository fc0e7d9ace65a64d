package experiment

import (
	"fmt"
	"sort"
)

// Experiment describes a task: the network shape it needs and its trials.
type Experiment struct {
	Name       string
	NumInputs  int // includes bias
	NumOutputs int
	Task       *StaticConfig
}

type factory func() *Experiment

var registry = map[string]factory{
	"xor":          XOR,
	"seq-1bit-2el": func() *Experiment { return Sequence1Bit(2) },
	"seq-1bit-3el": func() *Experiment { return Sequence1Bit(3) },
	"seq-1bit-4el": func() *Experiment { return Sequence1Bit(4) },
	"seq-1bit-5el": func() *Experiment { return Sequence1Bit(5) },
}

// Lookup returns the named experiment.
func Lookup(name string) (*Experiment, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownExperiment, name, Names())
	}
	return f(), nil
}

// Names lists the registered experiments in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// XOR is the two-input exclusive-or task, one trial per truth table row.
func XOR() *Experiment {
	task := &StaticConfig{NumSensors: 2, NumOutputs: 1}
	for _, row := range [][3]float64{{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0}} {
		task.Trials = append(task.Trials, Trial{Steps: []Step{{
			Sensors:  []float64{row[0], row[1]},
			Expected: []float64{row[2]},
			Weight:   1.0,
		}}})
	}
	return &Experiment{Name: "xor", NumInputs: 3, NumOutputs: 1, Task: task}
}

// Sequence1Bit is a recall task over sequences of n one-bit elements. Each
// element is shown on the data sensor with the store flag raised; the
// network is then queried n times and must reproduce the sequence in order.
// Sensors are store, query and data.
func Sequence1Bit(n int) *Experiment {
	task := &StaticConfig{NumSensors: 3, NumOutputs: 1}
	for bits := 0; bits < 1<<n; bits++ {
		var trial Trial
		for i := 0; i < n; i++ {
			bit := float64((bits >> (n - 1 - i)) & 1)
			trial.Steps = append(trial.Steps, Step{Sensors: []float64{1, 0, bit}})
		}
		for i := 0; i < n; i++ {
			bit := float64((bits >> (n - 1 - i)) & 1)
			trial.Steps = append(trial.Steps, Step{
				Sensors:  []float64{0, 1, 0},
				Expected: []float64{bit},
				Weight:   1.0,
			})
		}
		task.Trials = append(task.Trials, trial)
	}
	return &Experiment{Name: fmt.Sprintf("seq-1bit-%del", n), NumInputs: 4, NumOutputs: 1, Task: task}
}
