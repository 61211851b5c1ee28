package model

import (
	"math"
	"strconv"

	"github.com/Brownie44l1/digit-api/internal/network"
)

// DenseBackend evaluates a network descriptor in-process. It holds no
// mutable state and is safe for concurrent use.
type DenseBackend struct {
	net *network.Descriptor
}

func NewDenseBackend(net *network.Descriptor) *DenseBackend {
	return &DenseBackend{net: net}
}

func (b *DenseBackend) Forward(input []float64) ([]float64, error) {
	return network.Forward(input, b.net)
}

func (b *DenseBackend) Close() {}

// DenseMetadata describes net the way an exported model's metadata would.
// Classes default to the output indices.
func DenseMetadata(net *network.Descriptor, classes []string) Metadata {
	in, out := net.InputWidth(), net.OutputWidth()
	if len(classes) == 0 {
		classes = make([]string, out)
		for i := range classes {
			classes[i] = strconv.Itoa(i)
		}
	}

	side := int(math.Sqrt(float64(in)))
	if side*side != in {
		side = 0
	}
	return Metadata{
		InputShape:  []int64{int64(in)},
		OutputShape: []int64{int64(out)},
		Classes:     classes,
		ImageSize:   side,
	}
}
