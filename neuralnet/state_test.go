package neuralnet

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedNetwork(t *testing.T, hidden []int) *NeuralNetwork {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HiddenLayers = hidden
	cfg.MaxIterations = 200
	cfg.Activation = "hyperbolic"
	nn, err := NewNeuralNetwork(cfg)
	require.NoError(t, err)
	_, err = nn.Train(orData...)
	require.NoError(t, err)
	return nn
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, hidden := range [][]int{{}, {3}, {4, 2}} {
		original := trainedNetwork(t, hidden)

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var restored NeuralNetwork
		require.NoError(t, json.Unmarshal(data, &restored))
		assert.Equal(t, original.Layers(), restored.Layers())
		assert.Equal(t, "hyperbolic", restored.Config().Activation)

		for _, in := range [][]float64{{0, 0}, {0.25, 0.75}, {1, 1}, {-3, 8}} {
			want, err := original.FeedForward(in)
			require.NoError(t, err)
			got, err := restored.FeedForward(in)
			require.NoError(t, err)
			assert.Equal(t, want, got, "hidden %v input %v", hidden, in)
		}
	}
}

func TestExportShape(t *testing.T) {
	nn := trainedNetwork(t, []int{3})
	s := nn.Export()

	require.Len(t, s.Weights, 3)
	require.Len(t, s.Biases, 3)
	assert.Empty(t, s.Weights[0])
	assert.Empty(t, s.Biases[0])
	assert.Len(t, s.Weights[1], 3)
	assert.Len(t, s.Weights[1][0], 2)
	assert.Len(t, s.Weights[2], 1)
	assert.Len(t, s.Weights[2][0], 3)
	assert.Equal(t, []int{3}, s.Options.HiddenLayers)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "options")
	assert.Contains(t, raw, "weights")
	assert.Contains(t, raw, "biases")
	assert.Contains(t, string(raw["options"]), `"learningRate":0.4`)
}

func TestImportResumesWithZeroMomentum(t *testing.T) {
	nn := trainedNetwork(t, []int{3})
	restored, err := Import(nn.Export())
	require.NoError(t, err)
	assert.Nil(t, restored.optimizer.(*SGD).velocities)
	assert.NotNil(t, nn.optimizer.(*SGD).velocities)

	res, err := restored.Train(orData...)
	require.NoError(t, err)
	assert.Positive(t, res.Epochs)
}

func TestImportUnboundNetwork(t *testing.T) {
	nn, err := NewNeuralNetwork(Config{HiddenLayers: []int{5, 4}})
	require.NoError(t, err)

	restored, err := Import(nn.Export())
	require.NoError(t, err)
	assert.False(t, restored.Bound())
	assert.Equal(t, []int{0, 5, 4, 0}, restored.Layers())
	assert.Equal(t, nn.Export(), restored.Export())

	_, err = restored.Train(andData...)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 4, 1}, restored.Layers())
}

func TestImportRejectsMalformedState(t *testing.T) {
	good := trainedNetwork(t, []int{3}).Export()

	clone := func() State {
		var s State
		data, err := json.Marshal(good)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &s))
		return s
	}

	tests := []struct {
		description string
		mutate      func(s *State)
	}{
		{"unknown activation", func(s *State) { s.Options.Activation = "relu6" }},
		{"missing layer", func(s *State) { s.Weights = s.Weights[:2] }},
		{"input layer with weights", func(s *State) { s.Weights[0] = [][]float64{{1}} }},
		{"hidden biases disagree with options", func(s *State) { s.Biases[1] = s.Biases[1][:2] }},
		{"ragged weight rows", func(s *State) { s.Weights[1][1] = s.Weights[1][1][:1] }},
		{"output width mismatch", func(s *State) { s.Weights[2][0] = append(s.Weights[2][0], 0.1) }},
		{"output without first layer", func(s *State) { s.Weights[1] = nil }},
		{"output weights missing", func(s *State) { s.Weights[2] = nil }},
		{"weight rows disagree with biases", func(s *State) { s.Biases[2] = append(s.Biases[2], 0.1) }},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			s := clone()
			tt.mutate(&s)
			nn, err := Import(s)
			assert.Nil(t, nn)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestUnmarshalLeavesNetworkOnError(t *testing.T) {
	nn := trainedNetwork(t, []int{3})
	before := nn.Export()

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"options": [1, 2]}`), nn), ErrInvalidState)
	assert.ErrorIs(t, nn.UnmarshalJSON([]byte(`not json`)), ErrInvalidState)
	assert.ErrorIs(t, nn.UnmarshalJSON([]byte(`{"options":{},"weights":[],"biases":[]}`)), ErrInvalidState)
	assert.Equal(t, before, nn.Export())
}

func TestSaveLoad(t *testing.T) {
	nn := trainedNetwork(t, []int{2, 2})

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, nn))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, nn.Export(), loaded.Export())

	_, err = Load(bytes.NewBufferString("{"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSaveLoadFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "state_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	nn := trainedNetwork(t, []int{3})
	path := filepath.Join(tmpDir, "net.json")
	require.NoError(t, SaveFile(path, nn))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	want, err := nn.FeedForward([]float64{1, 0})
	require.NoError(t, err)
	got, err := loaded.FeedForward([]float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadFile(filepath.Join(tmpDir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(tmpDir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not valid json"), 0644))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, ErrInvalidState)
}
