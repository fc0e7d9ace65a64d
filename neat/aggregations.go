package neat

import "fmt"

// AggregationFunc combines the weighted inputs of a node into one value.
// Every implementation returns 0 for an empty input set.
type AggregationFunc func(inputs []float64) float64

// AggregationFunctions maps names usable in the [Genome] aggregation key to functions.
var AggregationFunctions = map[string]AggregationFunc{
	"sum":     AggregateSum,
	"product": AggregateProduct,
	"min":     AggregateMin,
	"max":     AggregateMax,
	"mean":    Mean,
	"median":  AggregateMedian,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationFunc, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

func AggregateSum(inputs []float64) float64 {
	sum := 0.0
	for _, v := range inputs {
		sum += v
	}
	return sum
}

func AggregateProduct(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MinFloat(inputs)
}

func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return MaxFloat(inputs)
}

func AggregateMedian(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0.0
	}
	return Median(inputs)
}
