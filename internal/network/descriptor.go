package network

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrMalformedDescriptor = errors.New("malformed network descriptor")
	ErrInputShape          = errors.New("input shape mismatch")
)

// Descriptor is an immutable dense feed-forward network: layer sizes plus
// flattened row-major weights and biases.
type Descriptor struct {
	structure []int
	weights   []float64
	biases    []float64
	layers    []layer
}

// layer is a view over one block of the flat weight and bias slices.
type layer struct {
	out int
	w   *mat.Dense
	b   *mat.VecDense
}

// New validates the sizes implied by structure against weights and biases and
// returns a descriptor holding private copies of all three.
func New(structure []int, weights, biases []float64) (*Descriptor, error) {
	if len(structure) < 2 {
		return nil, fmt.Errorf("%w: structure needs at least 2 layers, got %d", ErrMalformedDescriptor, len(structure))
	}
	for i, n := range structure {
		if n <= 0 {
			return nil, fmt.Errorf("%w: layer %d has non-positive size %d", ErrMalformedDescriptor, i, n)
		}
	}

	wantWeights, wantBiases, ok := sizes(structure)
	if !ok {
		return nil, fmt.Errorf("%w: structure %v is too large", ErrMalformedDescriptor, structure)
	}
	if len(weights) != wantWeights {
		return nil, fmt.Errorf("%w: expected %d weights, got %d", ErrMalformedDescriptor, wantWeights, len(weights))
	}
	if len(biases) != wantBiases {
		return nil, fmt.Errorf("%w: expected %d biases, got %d", ErrMalformedDescriptor, wantBiases, len(biases))
	}

	d := &Descriptor{
		structure: append([]int(nil), structure...),
		weights:   append([]float64(nil), weights...),
		biases:    append([]float64(nil), biases...),
		layers:    make([]layer, 0, len(structure)-1),
	}

	wOff, bOff := 0, 0
	for l := 1; l < len(structure); l++ {
		in, out := structure[l-1], structure[l]
		d.layers = append(d.layers, layer{
			out: out,
			w:   mat.NewDense(out, in, d.weights[wOff:wOff+in*out]),
			b:   mat.NewVecDense(out, d.biases[bOff:bOff+out]),
		})
		wOff += in * out
		bOff += out
	}
	return d, nil
}

// sizes returns the weight and bias counts implied by structure, or false
// when either count does not fit in an int. Sizes must be positive.
func sizes(structure []int) (weights, biases int, ok bool) {
	for l := 1; l < len(structure); l++ {
		in, out := structure[l-1], structure[l]
		if out > math.MaxInt/in {
			return 0, 0, false
		}
		block := out * in
		if weights > math.MaxInt-block || biases > math.MaxInt-out {
			return 0, 0, false
		}
		weights += block
		biases += out
	}
	return weights, biases, true
}

// Structure returns a copy of the layer sizes.
func (d *Descriptor) Structure() []int {
	return append([]int(nil), d.structure...)
}

func (d *Descriptor) InputWidth() int {
	return d.structure[0]
}

func (d *Descriptor) OutputWidth() int {
	return d.structure[len(d.structure)-1]
}

// Layers is the number of layers including the input layer.
func (d *Descriptor) Layers() int {
	return len(d.structure)
}

// WeightCount and BiasCount report the flattened sequence lengths.
func (d *Descriptor) WeightCount() int { return len(d.weights) }
func (d *Descriptor) BiasCount() int   { return len(d.biases) }
