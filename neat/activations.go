package neat

import (
	"fmt"
	"math"
)

// ActivationFunc maps a node's aggregated input to its output.
type ActivationFunc func(x float64) float64

// sigmoidSlope steepens the logistic curve so that most of the transition
// happens in [-1, 1].
const sigmoidSlope = 4.924273

// ActivationFunctions maps names usable in the [Genome] activation key to functions.
var ActivationFunctions = map[string]ActivationFunc{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"gaussian": Gaussian,
	"sine":     Sine,
	"abs":      Absolute,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the steepened logistic function 1 / (1 + e^(-4.924273x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-sigmoidSlope*x))
}

func Tanh(x float64) float64 {
	return math.Tanh(x)
}

func ReLU(x float64) float64 {
	return math.Max(0, x)
}

func Identity(x float64) float64 {
	return x
}

// Clamped limits the output to [-1, 1].
func Clamped(x float64) float64 {
	return clamp(x, -1.0, 1.0)
}

func Gaussian(x float64) float64 {
	return math.Exp(-x * x / 2.0)
}

func Sine(x float64) float64 {
	return math.Sin(x)
}

func Absolute(x float64) float64 {
	return math.Abs(x)
}
