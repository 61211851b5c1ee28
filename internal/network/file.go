package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// File is the on-disk JSON form of a trained network. Classes is optional.
type File struct {
	Structure []int     `json:"structure"`
	Weights   []float64 `json:"weights"`
	Biases    []float64 `json:"biases"`
	Classes   []string  `json:"classes,omitempty"`
}

// Decode reads a network file and validates it into a Descriptor.
func Decode(r io.Reader) (*Descriptor, *File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse network: %w", err)
	}
	d, err := New(f.Structure, f.Weights, f.Biases)
	if err != nil {
		return nil, nil, err
	}
	if len(f.Classes) != 0 && len(f.Classes) != d.OutputWidth() {
		return nil, nil, fmt.Errorf("%w: %d class labels for %d outputs", ErrMalformedDescriptor, len(f.Classes), d.OutputWidth())
	}
	return d, &f, nil
}

// LoadFile opens path and decodes it with Decode.
func LoadFile(path string) (*Descriptor, *File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read network: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
