package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LeakySlope scales non-positive pre-activations. The trained weights depend
// on this exact value.
const LeakySlope = 0.01

func LeakyReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return LeakySlope * x
}

// Forward runs one full pass of d over input and returns the post-activation
// scores of the output layer. Activation is applied on every non-input layer,
// the output layer included.
func Forward(input []float64, d *Descriptor) ([]float64, error) {
	if len(input) != d.InputWidth() {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInputShape, d.InputWidth(), len(input))
	}

	prev := mat.NewVecDense(len(input), append([]float64(nil), input...))
	for _, l := range d.layers {
		out := mat.NewVecDense(l.out, nil)
		out.MulVec(l.w, prev)
		out.AddVec(l.b, out)

		raw := out.RawVector().Data
		for j := range raw {
			raw[j] = LeakyReLU(raw[j])
		}
		prev = out
	}
	return prev.RawVector().Data, nil
}

// Forward is shorthand for Forward(input, d).
func (d *Descriptor) Forward(input []float64) ([]float64, error) {
	return Forward(input, d)
}

// Argmax returns the index of the largest score, the lowest index on ties,
// or -1 for an empty slice.
func Argmax(output []float64) int {
	if len(output) == 0 {
		return -1
	}
	return floats.MaxIdx(output)
}
