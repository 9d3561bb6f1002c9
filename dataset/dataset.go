// Package dataset converts training data between CSV, gorgonia tensors and
// neuralnet examples.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorgonia.org/tensor"

	"gonet/neuralnet"
)

// ReadCSV reads one example per row: inputWidth input columns followed by at
// least one output column. Every row must have the width of the first.
func ReadCSV(r io.Reader, inputWidth int) ([]neuralnet.Example, error) {
	if inputWidth <= 0 {
		return nil, fmt.Errorf("input width must be positive, got %d", inputWidth)
	}
	var examples []neuralnet.Example
	err := readRows(r, inputWidth+1, func(values []float64) error {
		examples = append(examples, neuralnet.Example{
			Input:  values[:inputWidth:inputWidth],
			Output: values[inputWidth:],
		})
		return nil
	})
	return examples, err
}

// ReadLabeledCSV reads rows of input columns followed by an integer class
// label in [0, classes), and one-hot encodes the labels.
func ReadLabeledCSV(r io.Reader, classes int) ([]neuralnet.Example, error) {
	var (
		inputs []float64
		labels []int
		width  int
	)
	err := readRows(r, 2, func(values []float64) error {
		width = len(values) - 1
		label := values[width]
		if label != float64(int(label)) {
			return fmt.Errorf("label %v is not a class index", label)
		}
		inputs = append(inputs, values[:width]...)
		labels = append(labels, int(label))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}
	targets, err := OneHot(labels, classes)
	if err != nil {
		return nil, err
	}
	in := tensor.New(tensor.WithShape(len(labels), width), tensor.WithBacking(inputs))
	return FromTensors(in, targets)
}

// readRows parses every CSV record as floats and hands it to fn.
func readRows(r io.Reader, minWidth int, fn func([]float64) error) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) < minWidth {
			return errInvalidLine{lineNum: line, splits: len(record), expected: minWidth}
		}
		values := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return fmt.Errorf("at line %d, column %d: %w", line, i+1, err)
			}
			values[i] = v
		}
		if err := fn(values); err != nil {
			return fmt.Errorf("at line %d: %w", line, err)
		}
	}
}

type errInvalidLine struct {
	lineNum  int
	splits   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected at least %d values, got %d",
		e.lineNum, e.expected, e.splits)
}

// OneHot returns a len(labels) x classes matrix with a single 1 per row.
func OneHot(labels []int, classes int) (*tensor.Dense, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", classes)
	}
	numLabels := len(labels)
	norm := make([]float64, numLabels*classes)

	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("label %d at row %d outside [0, %d)", label, i, classes)
		}
		norm[i*classes+label] = 1.0
	}

	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(numLabels, classes), tensor.WithBacking(norm)), nil
}

// FromTensors pairs the rows of two float64 matrices into examples.
func FromTensors(inputs, outputs tensor.Tensor) ([]neuralnet.Example, error) {
	in, err := rows(inputs)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	out, err := rows(outputs)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	if len(in) != len(out) {
		return nil, fmt.Errorf("%d input rows, %d output rows", len(in), len(out))
	}
	examples := make([]neuralnet.Example, len(in))
	for i := range in {
		examples[i] = neuralnet.Example{Input: in[i], Output: out[i]}
	}
	return examples, nil
}

// ToTensors stacks examples into an inputs matrix and an outputs matrix.
func ToTensors(examples []neuralnet.Example) (inputs, outputs *tensor.Dense, err error) {
	if len(examples) == 0 {
		return nil, nil, neuralnet.ErrNoExamples
	}
	inWidth, outWidth := len(examples[0].Input), len(examples[0].Output)
	in := make([]float64, 0, len(examples)*inWidth)
	out := make([]float64, 0, len(examples)*outWidth)
	for i, ex := range examples {
		if len(ex.Input) != inWidth {
			return nil, nil, &neuralnet.ShapeError{What: "input", Example: i, Got: len(ex.Input), Want: inWidth}
		}
		if len(ex.Output) != outWidth {
			return nil, nil, &neuralnet.ShapeError{What: "output", Example: i, Got: len(ex.Output), Want: outWidth}
		}
		in = append(in, ex.Input...)
		out = append(out, ex.Output...)
	}
	inputs = tensor.New(tensor.WithShape(len(examples), inWidth), tensor.WithBacking(in))
	outputs = tensor.New(tensor.WithShape(len(examples), outWidth), tensor.WithBacking(out))
	return inputs, outputs, nil
}

func rows(t tensor.Tensor) ([][]float64, error) {
	if t.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("expected float64 tensor, got %v", t.Dtype())
	}
	shape := t.Shape()
	if shape.Dims() != 2 {
		return nil, fmt.Errorf("expected a matrix, got shape %v", shape)
	}
	out := make([][]float64, shape[0])
	for i := range out {
		out[i] = make([]float64, shape[1])
		for j := range out[i] {
			v, err := t.At(i, j)
			if err != nil {
				return nil, err
			}
			out[i][j] = v.(float64)
		}
	}
	return out, nil
}
