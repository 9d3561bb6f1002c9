package neuralnet

import "gonum.org/v1/gonum/floats"

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the loss of output against target.
	Compute(output []float64, target []float64) float64
	// Gradient returns ∂L/∂output for each output neuron.
	Gradient(output []float64, target []float64) []float64
}

// SquaredError is Σ (target - output)². Train uses it for its stopping metric.
type SquaredError struct{}

func (se SquaredError) Compute(output []float64, target []float64) float64 {
	var loss float64
	for i := range output {
		d := target[i] - output[i]
		loss += d * d
	}
	return loss
}

// Gradient returns the derivative of ½ Σ (target - output)², i.e. output - target.
func (se SquaredError) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	for i := range output {
		grad[i] = output[i] - target[i]
	}
	return grad
}

// AbsoluteError is Σ |target - output|. Test reports its mean.
type AbsoluteError struct{}

func (ae AbsoluteError) Compute(output []float64, target []float64) float64 {
	return floats.Distance(output, target, 1)
}

func (ae AbsoluteError) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	for i := range output {
		switch {
		case output[i] > target[i]:
			grad[i] = 1
		case output[i] < target[i]:
			grad[i] = -1
		}
	}
	return grad
}
