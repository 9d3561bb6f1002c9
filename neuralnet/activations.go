package neuralnet

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// ActivationFunction is a neuron nonlinearity. Derivative receives the
// already activated value, not the net input.
type ActivationFunction interface {
	Activate(x float64) float64
	Derivative(a float64) float64
	fmt.Stringer
}

var (
	activationsMu sync.RWMutex
	activations   = map[string]ActivationFunction{
		"hyperbolic": Hyperbolic{},
		"logistic":   Logistic{},
	}
)

// RegisterActivation makes fn available to Config.Activation under name.
// Registering an existing name replaces it.
func RegisterActivation(name string, fn ActivationFunction) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: activation needs a name and a function", ErrInvalidConfig)
	}
	activationsMu.Lock()
	defer activationsMu.Unlock()
	activations[name] = fn
	return nil
}

// LookupActivation returns the activation registered under name.
func LookupActivation(name string) (ActivationFunction, error) {
	activationsMu.RLock()
	fn, ok := activations[name]
	activationsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownActivation, name, ActivationNames())
	}
	return fn, nil
}

// ActivationNames lists the registered activation names in sorted order.
func ActivationNames() []string {
	activationsMu.RLock()
	defer activationsMu.RUnlock()
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hyperbolic is tanh. Output range (-1, 1).
type Hyperbolic struct{}

func (h Hyperbolic) Activate(x float64) float64 {
	return math.Tanh(x)
}

func (h Hyperbolic) Derivative(a float64) float64 {
	return 1 - a*a
}

func (h Hyperbolic) String() string {
	return "hyperbolic"
}

// Logistic is 1 / (1 + e^-x). Output range (0, 1).
type Logistic struct{}

func (l Logistic) Activate(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (l Logistic) Derivative(a float64) float64 {
	return a * (1 - a)
}

func (l Logistic) String() string {
	return "logistic"
}
