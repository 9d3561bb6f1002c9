package neuralnet

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// State is the serializable snapshot of a network: options, weights and
// biases, indexed by layer with layer 0 empty. Momentum is not part of it, so
// a restored network resumes training with zeroed momentum.
type State struct {
	Options Config        `json:"options"`
	Weights [][][]float64 `json:"weights"`
	Biases  [][]float64   `json:"biases"`
}

// Export copies the learned parameters out of the network.
func (nn *NeuralNetwork) Export() State {
	s := State{
		Options: nn.Config(),
		Weights: make([][][]float64, len(nn.weights)),
		Biases:  make([][]float64, len(nn.biases)),
	}
	s.Options.Progress = nil
	s.Options.Rand = nil
	for l := 1; l < len(nn.weights); l++ {
		if b := nn.biases[l]; b != nil {
			s.Biases[l] = mat.Col(nil, 0, b)
		}
		if w := nn.weights[l]; w != nil {
			rows, _ := w.Dims()
			s.Weights[l] = make([][]float64, rows)
			for r := range s.Weights[l] {
				s.Weights[l][r] = mat.Row(nil, r, w)
			}
		}
	}
	return s
}

// Import builds a network from s. The record must describe a network at one
// of its lifecycle stages: every hidden bias present, hidden weights present
// past the first hidden layer, and the first hidden and output layers either
// both absent or sized consistently.
func Import(s State) (*NeuralNetwork, error) {
	nn, err := NewNeuralNetwork(s.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: options: %w", ErrInvalidState, err)
	}
	layers := len(nn.weights)
	if len(s.Weights) != layers || len(s.Biases) != layers {
		return nil, fmt.Errorf("%w: expected %d layers, got %d weight and %d bias layers",
			ErrInvalidState, layers, len(s.Weights), len(s.Biases))
	}
	if len(s.Weights[0]) != 0 || len(s.Biases[0]) != 0 {
		return nil, fmt.Errorf("%w: input layer has parameters", ErrInvalidState)
	}

	hidden := nn.config.HiddenLayers
	last := layers - 1
	weights := make([]*mat.Dense, layers)
	biases := make([]*mat.VecDense, layers)
	inputSize := 0
	for l := 1; l < layers; l++ {
		b, w := s.Biases[l], s.Weights[l]
		if l == last && len(b) == 0 && len(w) == 0 {
			break
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: layer %d has no biases", ErrInvalidState, l)
		}
		if l < last && len(b) != hidden[l-1] {
			return nil, fmt.Errorf("%w: layer %d has %d biases, configured for %d",
				ErrInvalidState, l, len(b), hidden[l-1])
		}
		biases[l] = mat.NewVecDense(len(b), append([]float64(nil), b...))

		if len(w) == 0 {
			if l == 1 && l < last {
				continue
			}
			return nil, fmt.Errorf("%w: layer %d has no weights", ErrInvalidState, l)
		}
		dense, err := denseFromRows(w, len(b))
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %v", ErrInvalidState, l, err)
		}
		if _, cols := dense.Dims(); l > 1 && cols != len(s.Biases[l-1]) {
			return nil, fmt.Errorf("%w: layer %d has %d incoming weights, layer %d has %d neurons",
				ErrInvalidState, l, cols, l-1, len(s.Biases[l-1]))
		} else if l == 1 {
			inputSize = cols
		}
		weights[l] = dense
	}

	state := constructed
	switch {
	case biases[last] != nil && inputSize == 0:
		return nil, fmt.Errorf("%w: output layer present but input layer unbound", ErrInvalidState)
	case biases[last] != nil:
		state = fullyBound
	case inputSize > 0:
		state = inputBound
	}

	nn.weights = weights
	nn.biases = biases
	nn.inputSize = inputSize
	nn.state = state
	return nn, nil
}

func denseFromRows(rows [][]float64, want int) (*mat.Dense, error) {
	if len(rows) != want {
		return nil, fmt.Errorf("%d weight rows for %d neurons", len(rows), want)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("empty weight row")
	}
	data := make([]float64, 0, len(rows)*cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("weight row %d has %d values, expected %d", r, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// MarshalJSON encodes the network as its State.
func (nn *NeuralNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(nn.Export())
}

// UnmarshalJSON replaces the network with the encoded State. On error the
// network is left as it was. The progress observer and random source survive.
func (nn *NeuralNetwork) UnmarshalJSON(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	s.Options.Progress = nn.config.Progress
	s.Options.Rand = nn.config.Rand
	imported, err := Import(s)
	if err != nil {
		return err
	}
	*nn = *imported
	return nil
}

// Save writes the network state as JSON.
func Save(w io.Writer, nn *NeuralNetwork) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nn.Export()); err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	return nil
}

// Load reads a network state written by Save.
func Load(r io.Reader) (*NeuralNetwork, error) {
	var s State
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return Import(s)
}

// SaveFile saves the network state to a JSON file.
func SaveFile(path string, nn *NeuralNetwork) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	if err := Save(f, nn); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile loads a network state from a JSON file.
func LoadFile(path string) (*NeuralNetwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
