package neuralnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{3}, cfg.HiddenLayers)
	assert.Equal(t, 20000, cfg.MaxIterations)
	assert.Equal(t, 0.0005, cfg.ErrorThreshold)
	assert.Equal(t, "logistic", cfg.Activation)
	assert.Equal(t, 0.4, cfg.LearningRate)
	assert.Equal(t, 0.5, cfg.Momentum)
	assert.Equal(t, 0, cfg.LogInterval)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, []int{3}, cfg.HiddenLayers)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, DefaultActivation, cfg.Activation)
	assert.Equal(t, DefaultLearningRate, cfg.LearningRate)
	assert.Zero(t, cfg.Momentum, "zero momentum is a valid setting")
	assert.Zero(t, cfg.ErrorThreshold, "zero threshold is a valid setting")

	hidden := []int{}
	cfg = Config{HiddenLayers: hidden}.withDefaults()
	assert.NotNil(t, cfg.HiddenLayers)
	assert.Empty(t, cfg.HiddenLayers)

	hidden = []int{4, 2}
	nn, err := NewNeuralNetwork(Config{HiddenLayers: hidden})
	require.NoError(t, err)
	hidden[0] = 99
	assert.Equal(t, []int{4, 2}, nn.Config().HiddenLayers, "network kept a reference to the caller's slice")
}

func TestParseHiddenLayers(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"3", []int{3}},
		{"5 4", []int{5, 4}},
		{"5,4, 2", []int{5, 4, 2}},
		{"", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHiddenLayers(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseHiddenLayers("3 x")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
