// Package neuralnet implements a feedforward network trained by
// backpropagation with momentum.
//
// Input and output widths are not configured: the first call to Train fixes
// them from the first example, and they never change afterwards. A
// NeuralNetwork is not safe for concurrent use.
package neuralnet

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Example is one training or evaluation pair.
type Example struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// TrainResult summarizes a Train call.
type TrainResult struct {
	Epochs int
	MSE    float64
}

// Result is the evaluation of a single example.
type Result struct {
	Output        []float64 `json:"output"`
	DesiredOutput []float64 `json:"desiredOutput"`
	LMS           float64   `json:"lms"`
}

// TestResult is returned by Test. MSE is the mean absolute error over every
// output unit of every example, unlike the squared metric Train stops on.
type TestResult struct {
	MSE     float64  `json:"mse"`
	Results []Result `json:"results"`
}

// NeuralNetwork is an input layer, Config.HiddenLayers hidden layers and an
// output layer. Layer 0 has no parameters.
type NeuralNetwork struct {
	config     Config
	activation ActivationFunction
	loss       LossFunction
	optimizer  Optimizer
	rng        *rand.Rand

	state     topology
	inputSize int
	weights   []*mat.Dense    // [layer] neuron x incoming
	biases    []*mat.VecDense // [layer] neuron

	// overwritten by every forward pass
	outputs   []*mat.VecDense
	netInputs []*mat.VecDense
}

// NewNeuralNetwork validates cfg and allocates the hidden layers.
func NewNeuralNetwork(cfg Config) (*NeuralNetwork, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	activation, err := LookupActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// input + hidden + output
	layers := len(cfg.HiddenLayers) + 2
	nn := &NeuralNetwork{
		config:     cfg,
		activation: activation,
		loss:       SquaredError{},
		optimizer:  NewSGD(cfg.LearningRate, cfg.Momentum),
		rng:        rng,
		weights:    make([]*mat.Dense, layers),
		biases:     make([]*mat.VecDense, layers),
		outputs:    make([]*mat.VecDense, layers),
		netInputs:  make([]*mat.VecDense, layers),
	}
	nn.initHiddenLayers()
	return nn, nil
}

// Config returns the configuration the network was built with.
func (nn *NeuralNetwork) Config() Config {
	c := nn.config
	c.HiddenLayers = append([]int{}, c.HiddenLayers...)
	return c
}

// OnProgress replaces the training observer.
func (nn *NeuralNetwork) OnProgress(fn ProgressFunc) {
	nn.config.Progress = fn
}

// Bound reports whether input and output widths are known.
func (nn *NeuralNetwork) Bound() bool {
	return nn.state == fullyBound
}

// Layers returns the neuron count of every layer, input first.
// Layers not sized yet report 0.
func (nn *NeuralNetwork) Layers() []int {
	sizes := make([]int, len(nn.weights))
	for l := range sizes {
		sizes[l] = nn.layerSize(l)
	}
	return sizes
}

// FeedForward runs input through the network and returns the output layer.
func (nn *NeuralNetwork) FeedForward(input []float64) ([]float64, error) {
	if nn.state != fullyBound {
		return nil, fmt.Errorf("%w: network is %s, train it first", ErrTopologyNotEstablished, nn.state)
	}
	if len(input) != nn.inputSize {
		return nil, &ShapeError{What: "input", Example: -1, Got: len(input), Want: nn.inputSize}
	}
	nn.forward(input)
	return nn.Output(), nil
}

// Output returns a copy of the output layer of the last forward pass.
func (nn *NeuralNetwork) Output() []float64 {
	out := nn.outputs[nn.outputLayer()]
	if out == nil {
		return nil
	}
	return mat.Col(nil, 0, out)
}

func (nn *NeuralNetwork) forward(input []float64) {
	nn.outputs[0] = mat.NewVecDense(len(input), append([]float64(nil), input...))
	for l := 1; l < len(nn.weights); l++ {
		rows, _ := nn.weights[l].Dims()
		sum := mat.NewVecDense(rows, nil)
		sum.MulVec(nn.weights[l], nn.outputs[l-1])
		sum.AddVec(sum, nn.biases[l])

		out := mat.NewVecDense(rows, nil)
		for n := 0; n < rows; n++ {
			out.SetVec(n, nn.activation.Activate(sum.AtVec(n)))
		}
		nn.netInputs[l] = sum
		nn.outputs[l] = out
	}
}

// backpropagate consumes the caches of the preceding forward pass. Layers are
// updated from the output backwards; a hidden layer's error is carried by the
// already updated weights of the layer above it.
func (nn *NeuralNetwork) backpropagate(desired []float64) error {
	nn.optimizer.Init(nn.weights)

	last := nn.outputLayer()
	actual := mat.Col(nil, 0, nn.outputs[last])
	grad := nn.loss.Gradient(actual, desired)
	signals := mat.NewVecDense(len(actual), nil)
	for n, g := range grad {
		// -g is desired - actual
		signals.SetVec(n, -g*nn.activation.Derivative(actual[n]))
	}

	for l := last; l >= 1; l-- {
		if err := nn.optimizer.Apply(l, nn.weights[l], nn.biases[l], signals, nn.outputs[l-1]); err != nil {
			return err
		}
		if l == 1 {
			break
		}
		prev := nn.outputs[l-1]
		propagated := mat.NewVecDense(prev.Len(), nil)
		propagated.MulVec(nn.weights[l].T(), signals)

		next := mat.NewVecDense(prev.Len(), nil)
		for n := 0; n < prev.Len(); n++ {
			next.SetVec(n, propagated.AtVec(n)*nn.activation.Derivative(prev.AtVec(n)))
		}
		signals = next
	}
	return nil
}

// Train runs epochs over examples until the mean squared error reaches
// Config.ErrorThreshold or Config.MaxIterations epochs have run. The first
// call sizes the input and output layers from examples[0]. Every example is
// checked before any parameter changes.
func (nn *NeuralNetwork) Train(examples ...Example) (TrainResult, error) {
	if err := nn.checkExamples(examples); err != nil {
		return TrainResult{}, err
	}
	if nn.state == constructed {
		nn.bindInput(len(examples[0].Input))
	}
	if nn.state == inputBound {
		nn.bindOutput(len(examples[0].Output))
	}

	epoch, mse := 0, math.Inf(1)
	for epoch < nn.config.MaxIterations && mse > nn.config.ErrorThreshold {
		for _, ex := range examples {
			nn.forward(ex.Input)
			if err := nn.backpropagate(ex.Output); err != nil {
				return TrainResult{Epochs: epoch, MSE: mse}, err
			}
		}
		epoch++
		mse = nn.meanSquaredError(examples)

		if nn.config.LogInterval > 0 && nn.config.Progress != nil && epoch%nn.config.LogInterval == 0 {
			nn.config.Progress(Status{Epoch: epoch, MSE: mse})
		}
	}
	return TrainResult{Epochs: epoch, MSE: mse}, nil
}

func (nn *NeuralNetwork) meanSquaredError(examples []Example) float64 {
	var sum float64
	for _, ex := range examples {
		nn.forward(ex.Input)
		sum += nn.loss.Compute(nn.Output(), ex.Output)
	}
	return sum / float64(len(examples))
}

// Test evaluates examples without changing any parameter.
func (nn *NeuralNetwork) Test(examples ...Example) (TestResult, error) {
	if nn.state != fullyBound {
		return TestResult{}, fmt.Errorf("%w: network is %s, train it first", ErrTopologyNotEstablished, nn.state)
	}
	if err := nn.checkExamples(examples); err != nil {
		return TestResult{}, err
	}

	var (
		squared  SquaredError
		absolute AbsoluteError
		sum      float64
		units    int
	)
	results := make([]Result, len(examples))
	for i, ex := range examples {
		nn.forward(ex.Input)
		out := nn.Output()
		results[i] = Result{
			Output:        out,
			DesiredOutput: append([]float64(nil), ex.Output...),
			LMS:           0.5 * squared.Compute(out, ex.Output),
		}
		sum += absolute.Compute(out, ex.Output)
		units += len(out)
	}
	return TestResult{MSE: sum / float64(units), Results: results}, nil
}

// checkExamples validates widths against the bound topology, or against the
// first example for the layers that are not bound yet.
func (nn *NeuralNetwork) checkExamples(examples []Example) error {
	if len(examples) == 0 {
		return ErrNoExamples
	}
	inputs := nn.inputSize
	if nn.state == constructed {
		inputs = len(examples[0].Input)
	}
	outputs := nn.layerSize(nn.outputLayer())
	if nn.state != fullyBound {
		outputs = len(examples[0].Output)
	}
	if inputs == 0 || outputs == 0 {
		return fmt.Errorf("%w: example 0 has an empty input or output", ErrShapeMismatch)
	}
	for i, ex := range examples {
		if len(ex.Input) != inputs {
			return &ShapeError{What: "input", Example: i, Got: len(ex.Input), Want: inputs}
		}
		if len(ex.Output) != outputs {
			return &ShapeError{What: "output", Example: i, Got: len(ex.Output), Want: outputs}
		}
	}
	return nil
}

// Debug
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("NeuralNetwork %v %s (%s)\n", nn.Layers(), nn.activation, nn.state))
	for l := 1; l < len(nn.weights); l++ {
		sb.WriteString(fmt.Sprintf("Layer %d:\n", l))
		if nn.biases[l] == nil {
			sb.WriteString("  unbound\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  biases=%v\n", mat.Formatted(nn.biases[l].T(), mat.Squeeze())))
		if nn.weights[l] == nil {
			sb.WriteString("  weights unbound\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  weights=%v\n", mat.Formatted(nn.weights[l], mat.Prefix("          "), mat.Squeeze())))
	}

	return sb.String()
}
