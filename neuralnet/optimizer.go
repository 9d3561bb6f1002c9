package neuralnet

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Optimizer applies one layer's error signals to its parameters.
type Optimizer interface {
	Init(weights []*mat.Dense)
	Apply(layer int, weights *mat.Dense, biases *mat.VecDense, signals, inputs mat.Vector) error
	Reset()
}

// SGD is gradient descent with a constant learning rate and classical momentum.
//
//	delta = lr * signal * input + momentum * previousDelta
//	weight += delta
//	bias += lr * signal
//
// Biases get no momentum term.
type SGD struct {
	LearningRate float64
	Momentum     float64

	// previous weight deltas, indexed like the network layers
	velocities []*mat.Dense
}

// NewSGD creates an SGD optimizer with empty momentum state.
func NewSGD(learningRate, momentum float64) *SGD {
	return &SGD{LearningRate: learningRate, Momentum: momentum}
}

// Apply updates weights and biases of layer in place.
func (o *SGD) Apply(layer int, weights *mat.Dense, biases *mat.VecDense, signals, inputs mat.Vector) error {
	rows, cols := weights.Dims()
	if signals.Len() != rows || biases.Len() != rows || inputs.Len() != cols {
		return fmt.Errorf("%w: layer %d is %dx%d, got %d signals, %d biases and %d inputs",
			ErrShapeMismatch, layer, rows, cols, signals.Len(), biases.Len(), inputs.Len())
	}
	velocity := o.velocity(layer, rows, cols)

	var delta mat.Dense
	delta.Outer(o.LearningRate, signals, inputs)
	velocity.Scale(o.Momentum, velocity)
	velocity.Add(velocity, &delta)

	weights.Add(weights, velocity)
	biases.AddScaledVec(biases, o.LearningRate, signals)
	return nil
}

// Reset drops the momentum state; the next Apply starts from zero deltas.
func (o *SGD) Reset() {
	o.velocities = nil
}

func (o *SGD) velocity(layer, rows, cols int) *mat.Dense {
	for len(o.velocities) <= layer {
		o.velocities = append(o.velocities, nil)
	}
	v := o.velocities[layer]
	if v == nil {
		v = mat.NewDense(rows, cols, nil)
		o.velocities[layer] = v
	}
	return v
}

// Init allocates zeroed momentum state shaped like weights, unless it exists.
// Nil entries (layer 0) stay nil.
func (o *SGD) Init(weights []*mat.Dense) {
	if o.velocities != nil {
		return
	}
	o.velocities = make([]*mat.Dense, len(weights))
	for l, w := range weights {
		if w == nil {
			continue
		}
		rows, cols := w.Dims()
		o.velocities[l] = mat.NewDense(rows, cols, nil)
	}
}
