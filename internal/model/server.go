package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Brownie44l1/digit-api/internal/network"
)

// Backend maps one input vector to one vector of class scores.
type Backend interface {
	Forward(input []float64) ([]float64, error)
	Close()
}

type Server struct {
	backend  Backend
	Metadata Metadata
	logger   *zap.SugaredLogger
}

func NewServer(backend Backend, metadata Metadata, logger *zap.SugaredLogger) *Server {
	return &Server{
		backend:  backend,
		Metadata: metadata,
		logger:   logger,
	}
}

// NewDenseServer loads a network JSON file and serves it in-process.
func NewDenseServer(networkPath string, logger *zap.SugaredLogger) (*Server, error) {
	net, file, err := network.LoadFile(networkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}
	logger.Infof("Network structure: %v (%d weights, %d biases)", net.Structure(), net.WeightCount(), net.BiasCount())
	return NewServer(NewDenseBackend(net), DenseMetadata(net, file.Classes), logger), nil
}

// NewONNXServer serves an exported ONNX model described by metadataPath.
func NewONNXServer(modelPath, metadataPath, libPath string, logger *zap.SugaredLogger) (*Server, error) {
	metadata, err := ReadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	backend, err := NewONNXBackend(modelPath, libPath, metadata)
	if err != nil {
		return nil, err
	}
	return NewServer(backend, metadata, logger), nil
}

// Predict runs the backend and picks the top class. Confidence is the raw
// winning score; no softmax is applied.
func (s *Server) Predict(inputData []float64) (*PredictionResponse, error) {
	if want := s.Metadata.InputSize(); len(inputData) != want {
		return nil, fmt.Errorf("%w: expected %d values, got %d", network.ErrInputShape, want, len(inputData))
	}

	outputData, err := s.backend.Forward(inputData)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	maxIdx := network.Argmax(outputData)
	if maxIdx < 0 {
		return nil, fmt.Errorf("inference failed: empty output")
	}

	predictions := make(map[string]float64, len(outputData))
	for i, val := range outputData {
		predictions[s.className(i)] = val
	}
	s.logger.Debugf("Predicted %s with score %f", s.className(maxIdx), outputData[maxIdx])

	return &PredictionResponse{
		Index:       maxIdx,
		Class:       s.className(maxIdx),
		Confidence:  outputData[maxIdx],
		Scores:      outputData,
		Predictions: predictions,
	}, nil
}

// PredictIndex is Predict reduced to the class index.
func (s *Server) PredictIndex(inputData []float64) (int, error) {
	result, err := s.Predict(inputData)
	if err != nil {
		return 0, err
	}
	return result.Index, nil
}

func (s *Server) className(i int) string {
	if i < len(s.Metadata.Classes) {
		return s.Metadata.Classes[i]
	}
	return fmt.Sprintf("%d", i)
}

func (s *Server) Close() {
	if s.backend != nil {
		s.backend.Close()
	}
}
