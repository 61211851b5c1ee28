package model

type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// InputSize is the flattened input length.
func (m Metadata) InputSize() int {
	return product(m.InputShape)
}

func (m Metadata) OutputSize() int {
	return product(m.OutputShape)
}

func product(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, dim := range shape {
		n *= int(dim)
	}
	return n
}

type PredictionRequest struct {
	Image []float64 `json:"image"`
}

type PredictionResponse struct {
	Index       int                `json:"index"`
	Class       string             `json:"class"`
	Confidence  float64            `json:"confidence"`
	Scores      []float64          `json:"scores"`
	Predictions map[string]float64 `json:"predictions"`
}

// SampleResponse is a dataset sample together with its prediction.
type SampleResponse struct {
	Index      int                 `json:"index"`
	Label      int                 `json:"label"`
	Correct    bool                `json:"correct"`
	Image      []float64           `json:"image"`
	Prediction *PredictionResponse `json:"prediction"`
}
