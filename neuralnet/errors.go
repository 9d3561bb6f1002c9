package neuralnet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig          = errors.New("invalid network configuration")
	ErrUnknownActivation      = errors.New("unknown activation")
	ErrTopologyNotEstablished = errors.New("network topology not yet established")
	ErrShapeMismatch          = errors.New("shape mismatch")
	ErrNoExamples             = errors.New("no examples")
	ErrInvalidState           = errors.New("invalid network state")
)

// ShapeError reports a vector whose length disagrees with the bound topology.
type ShapeError struct {
	What    string // "input" or "output"
	Example int    // index of the offending example, -1 for a single vector
	Got     int
	Want    int
}

func (e *ShapeError) Error() string {
	if e.Example < 0 {
		return fmt.Sprintf("%s has %d values, expected %d", e.What, e.Got, e.Want)
	}
	return fmt.Sprintf("example %d: %s has %d values, expected %d", e.Example, e.What, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
