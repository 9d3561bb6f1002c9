package neuralnet

import "gonum.org/v1/gonum/mat"

// topology tracks how much of the network has been sized from data.
type topology int

const (
	// hidden biases, and weights of hidden layers after the first
	constructed topology = iota
	// input width known, first hidden layer weights allocated
	inputBound
	// output layer allocated, the network can run
	fullyBound
)

func (t topology) String() string {
	switch t {
	case constructed:
		return "constructed"
	case inputBound:
		return "input bound"
	case fullyBound:
		return "fully bound"
	}
	return "unknown"
}

// initHiddenLayers allocates every hidden bias, and the weights of each
// hidden layer whose incoming width is already known from the configuration.
func (nn *NeuralNetwork) initHiddenLayers() {
	hidden := nn.config.HiddenLayers
	for i, size := range hidden {
		l := i + 1
		nn.biases[l] = nn.randomVec(size)
		if l > 1 {
			nn.weights[l] = nn.randomDense(size, hidden[i-1])
		}
	}
	nn.state = constructed
}

// bindInput fixes the input width. Runs once, on the first training input.
func (nn *NeuralNetwork) bindInput(width int) {
	nn.inputSize = width
	if len(nn.config.HiddenLayers) > 0 {
		nn.weights[1] = nn.randomDense(nn.config.HiddenLayers[0], width)
	}
	nn.state = inputBound
}

// bindOutput allocates the output layer. Runs once, on the first training output.
func (nn *NeuralNetwork) bindOutput(width int) {
	last := nn.outputLayer()
	nn.biases[last] = nn.randomVec(width)
	nn.weights[last] = nn.randomDense(width, nn.layerSize(last-1))
	nn.state = fullyBound
}

func (nn *NeuralNetwork) outputLayer() int {
	return len(nn.weights) - 1
}

// layerSize is the neuron count of layer l, 0 while it is not sized yet.
func (nn *NeuralNetwork) layerSize(l int) int {
	if l == 0 {
		return nn.inputSize
	}
	if nn.biases[l] == nil {
		return 0
	}
	return nn.biases[l].Len()
}

// initValue draws from [-0.3, -0.1). Distinct small values break the symmetry
// between neurons of the same layer.
func (nn *NeuralNetwork) initValue() float64 {
	return nn.rng.Float64()*0.2 - 0.3
}

func (nn *NeuralNetwork) randomVec(n int) *mat.VecDense {
	data := make([]float64, n)
	for i := range data {
		data[i] = nn.initValue()
	}
	return mat.NewVecDense(n, data)
}

func (nn *NeuralNetwork) randomDense(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = nn.initValue()
	}
	return mat.NewDense(rows, cols, data)
}
