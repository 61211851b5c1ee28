// Package dataset holds a stack of labelled fixed-size images and the
// wrap-around navigation over them.
package dataset

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/digit-api/internal/input"
)

var (
	ErrEmpty      = errors.New("dataset is empty")
	ErrAllCorrect = errors.New("no misclassified sample")
)

type Dataset struct {
	images []byte
	labels []uint8
	width  int
}

// Sample is one normalized image with its label.
type Sample struct {
	Index int       `json:"index"`
	Label int       `json:"label"`
	Input []float64 `json:"image"`
}

// New wraps images (len(labels) stacked images of width bytes each). The
// slices are used as-is and must not be modified afterwards.
func New(images []byte, labels []uint8, width int) (*Dataset, error) {
	if width <= 0 {
		return nil, fmt.Errorf("image width must be positive, got %d", width)
	}
	if len(images) != len(labels)*width {
		return nil, fmt.Errorf("%d image bytes do not hold %d images of %d bytes", len(images), len(labels), width)
	}
	return &Dataset{images: images, labels: labels, width: width}, nil
}

func (d *Dataset) Len() int {
	return len(d.labels)
}

// Width is the number of pixels per image.
func (d *Dataset) Width() int {
	return d.width
}

// Wrap maps any index onto [0, Len()). An empty dataset wraps to 0.
func (d *Dataset) Wrap(i int) int {
	n := d.Len()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

func (d *Dataset) Next(i int) int { return d.Wrap(i + 1) }
func (d *Dataset) Prev(i int) int { return d.Wrap(i - 1) }

// Sample returns the image at the wrapped index i.
func (d *Dataset) Sample(i int) (Sample, error) {
	if d.Len() == 0 {
		return Sample{}, ErrEmpty
	}
	i = d.Wrap(i)
	vec, err := input.FromDataset(d.images, i, d.width)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Index: i, Label: int(d.labels[i]), Input: vec}, nil
}

// NextMisclassified walks forward from the sample after from until predict
// disagrees with the label. It gives up with ErrAllCorrect after one full
// cycle.
func (d *Dataset) NextMisclassified(from int, predict func([]float64) (int, error)) (Sample, error) {
	if d.Len() == 0 {
		return Sample{}, ErrEmpty
	}
	i := from
	for step := 0; step < d.Len(); step++ {
		i = d.Next(i)
		s, err := d.Sample(i)
		if err != nil {
			return Sample{}, err
		}
		got, err := predict(s.Input)
		if err != nil {
			return Sample{}, err
		}
		if got != s.Label {
			return s, nil
		}
	}
	return Sample{}, ErrAllCorrect
}
