package neuralnet

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

const (
	DefaultMaxIterations  = 20000
	DefaultErrorThreshold = 0.0005
	DefaultActivation     = "logistic"
	DefaultLearningRate   = 0.4
	DefaultMomentum       = 0.5
)

// Config holds network hyperparameters. It is fixed once the network is built.
type Config struct {
	HiddenLayers   []int   `json:"hiddenLayers"`
	MaxIterations  int     `json:"maxIterations"`
	ErrorThreshold float64 `json:"errorThreshold"`
	Activation     string  `json:"activation"`
	LearningRate   float64 `json:"learningRate"`
	Momentum       float64 `json:"momentum"`
	LogInterval    int     `json:"logInterval"`

	// Progress is called every LogInterval epochs during Train.
	Progress ProgressFunc `json:"-"`
	// Rand drives the parameter initializer. Nil uses a time seeded source.
	Rand *rand.Rand `json:"-"`
}

// Status is reported to a ProgressFunc at epoch boundaries.
type Status struct {
	Epoch int
	MSE   float64
}

// ProgressFunc observes training. It must not touch the network.
type ProgressFunc func(Status)

// LogProgress returns a ProgressFunc writing one line per report to w.
func LogProgress(w io.Writer) ProgressFunc {
	return func(s Status) {
		fmt.Fprintf(w, "epoch %d: mse=%.6f\n", s.Epoch, s.MSE)
	}
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		HiddenLayers:   []int{3},
		MaxIterations:  DefaultMaxIterations,
		ErrorThreshold: DefaultErrorThreshold,
		Activation:     DefaultActivation,
		LearningRate:   DefaultLearningRate,
		Momentum:       DefaultMomentum,
	}
}

// withDefaults fills fields whose zero value is not a legal setting.
// Momentum, ErrorThreshold and LogInterval are meaningful at zero and stay as given.
// A non-nil empty HiddenLayers means no hidden layers.
func (c Config) withDefaults() Config {
	if c.HiddenLayers == nil {
		c.HiddenLayers = []int{3}
	} else {
		c.HiddenLayers = append([]int{}, c.HiddenLayers...)
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Activation == "" {
		c.Activation = DefaultActivation
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for i, size := range c.HiddenLayers {
		if size <= 0 {
			return fmt.Errorf("%w: hidden layer %d has %d neurons, must be positive", ErrInvalidConfig, i, size)
		}
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.ErrorThreshold < 0 || math.IsNaN(c.ErrorThreshold) {
		return fmt.Errorf("%w: error threshold must be non-negative, got %v", ErrInvalidConfig, c.ErrorThreshold)
	}
	if !(c.LearningRate > 0) || math.IsInf(c.LearningRate, 0) {
		return fmt.Errorf("%w: learning rate must be positive, got %v", ErrInvalidConfig, c.LearningRate)
	}
	if !(c.Momentum >= 0 && c.Momentum < 1) {
		return fmt.Errorf("%w: momentum must be in [0, 1), got %v", ErrInvalidConfig, c.Momentum)
	}
	if c.LogInterval < 0 {
		return fmt.Errorf("%w: log interval must be non-negative, got %d", ErrInvalidConfig, c.LogInterval)
	}
	if _, err := LookupActivation(c.Activation); err != nil {
		return err
	}
	return nil
}

// ParseHiddenLayers parses a list of layer sizes such as "5 4" or "5,4".
// An empty string yields no hidden layers.
func ParseHiddenLayers(s string) ([]int, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	sizes := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: hidden layer %q: %v", ErrInvalidConfig, p, err)
		}
		sizes[i] = n
	}
	return sizes, nil
}
