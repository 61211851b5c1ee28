package network

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForward_PositiveBranch(t *testing.T) {
	d, err := New([]int{2, 1}, []float64{1, 1}, []float64{0})
	require.NoError(t, err)

	out, err := Forward([]float64{3, -1}, d)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 2.0, out[0], 1e-12)
	assert.Equal(t, 0, Argmax(out))
}

func TestForward_NegativeBranch(t *testing.T) {
	d, err := New([]int{2, 1}, []float64{1, 1}, []float64{0})
	require.NoError(t, err)

	out, err := d.Forward([]float64{-3, -1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, -0.04, out[0], 1e-12)
}

func TestForward_ZeroWeightsYieldActivatedBias(t *testing.T) {
	structure := []int{4, 3, 5}
	biases := []float64{0.3, -2, 0, 1.5, -0.5, 7, 0, -10}
	d, err := New(structure, make([]float64, 4*3+3*5), biases)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 5; trial++ {
		input := make([]float64, 4)
		for i := range input {
			input[i] = rng.Float64()*2 - 1
		}
		out, err := Forward(input, d)
		require.NoError(t, err)
		require.Len(t, out, 5)
		for j, v := range out {
			assert.Equal(t, LeakyReLU(biases[3+j]), v, "neuron %d", j)
		}
	}
}

func TestForward_HiddenLayerOrdering(t *testing.T) {
	// layer 1: two neurons over three inputs, layer 2: one neuron over two.
	weights := []float64{
		1, 0, 0, // h0 = x0
		0, 0, -1, // h1 = -x2
		2, 3, // o = 2*h0 + 3*h1
	}
	biases := []float64{0.5, 0, -1}
	d, err := New([]int{3, 2, 1}, weights, biases)
	require.NoError(t, err)

	out, err := Forward([]float64{1, 100, 2}, d)
	require.NoError(t, err)

	h0 := LeakyReLU(1 + 0.5)
	h1 := LeakyReLU(-2)
	want := LeakyReLU(-1 + 2*h0 + 3*h1)
	assert.InDelta(t, want, out[0], 1e-12)
}

func TestForward_OutputLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, structure := range [][]int{{1, 1}, {784, 16, 16, 10}, {5, 9, 2}, {3, 3, 3, 3, 3}} {
		nw, nb, ok := sizes(structure)
		require.True(t, ok)
		weights := make([]float64, nw)
		biases := make([]float64, nb)
		for i := range weights {
			weights[i] = rng.NormFloat64()
		}
		for i := range biases {
			biases[i] = rng.NormFloat64()
		}
		d, err := New(structure, weights, biases)
		require.NoError(t, err)

		out, err := Forward(make([]float64, structure[0]), d)
		require.NoError(t, err)
		assert.Len(t, out, structure[len(structure)-1])
	}
}

func TestForward_DoesNotMutateInput(t *testing.T) {
	d, err := New([]int{2, 2}, []float64{1, 2, 3, 4}, []float64{0, 0})
	require.NoError(t, err)

	input := []float64{-1, 0.5}
	_, err = Forward(input, d)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0.5}, input)

	first, err := Forward(input, d)
	require.NoError(t, err)
	second, err := Forward(input, d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForward_InputShapeMismatch(t *testing.T) {
	d, err := New([]int{2, 1}, []float64{1, 1}, []float64{0})
	require.NoError(t, err)

	_, err = Forward([]float64{1, 2, 3}, d)
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = Forward([]float64{1}, d)
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestLeakyReLU(t *testing.T) {
	assert.Equal(t, 0.0, LeakyReLU(0))
	assert.Equal(t, 2.5, LeakyReLU(2.5))
	assert.InDelta(t, -0.04, LeakyReLU(-4), 1e-15)
	assert.InDelta(t, -1e-5, LeakyReLU(-1e-3), 1e-18)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 1, Argmax([]float64{0.5, 0.9, 0.9, 0.1}))
	assert.Equal(t, 0, Argmax([]float64{3, 3, 3}))
	assert.Equal(t, 2, Argmax([]float64{-0.04, -0.02, -0.01}))
	assert.Equal(t, 0, Argmax([]float64{42}))
	assert.Equal(t, -1, Argmax(nil))
}
