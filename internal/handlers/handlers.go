package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Brownie44l1/digit-api/internal/dataset"
	"github.com/Brownie44l1/digit-api/internal/input"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/network"
)

type Handler struct {
	modelServer *model.Server
	samples     *dataset.Dataset
	logger      *zap.SugaredLogger
}

// NewHandler serves predictions from modelServer. samples may be nil, in
// which case the sample endpoints answer 404.
func NewHandler(modelServer *model.Server, samples *dataset.Dataset, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		modelServer: modelServer,
		samples:     samples,
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	expectedSize := h.modelServer.Metadata.InputSize()
	if len(req.Image) != expectedSize {
		http.Error(w, fmt.Sprintf("Expected %d values, got %d", expectedSize, len(req.Image)),
			http.StatusBadRequest)
		return
	}

	h.predict(w, req.Image)
}

// Clear predicts on the blank canvas.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.predict(w, input.Blank(h.modelServer.Metadata.InputSize()))
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	size := h.modelServer.Metadata.ImageSize
	if size <= 0 {
		http.Error(w, "Model input is not a square image", http.StatusNotImplemented)
		return
	}

	// Parse multipart form (10MB max)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	h.logger.Debugf("Received file: %s, size: %d bytes", header.Filename, header.Size)

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	h.logger.Debugf("Image format: %s, dimensions: %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	h.predict(w, input.FromImage(img, size, size))
}

// Sample returns the dataset sample at the wrapped index, optionally after
// one navigation step (next, prev or nextwrong).
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, ok := h.sampleIndex(w, r)
	if !ok {
		return
	}

	var (
		s   dataset.Sample
		err error
	)
	switch step := r.URL.Query().Get("step"); step {
	case "":
		s, err = h.samples.Sample(index)
	case "next":
		s, err = h.samples.Sample(h.samples.Next(index))
	case "prev":
		s, err = h.samples.Sample(h.samples.Prev(index))
	case "nextwrong":
		s, err = h.samples.NextMisclassified(index, h.modelServer.PredictIndex)
		if errors.Is(err, dataset.ErrAllCorrect) {
			http.Error(w, "Every sample is classified correctly", http.StatusNotFound)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("Unknown step %q", step), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Errorf("Sample error: %v", err)
		http.Error(w, "Failed to load sample", http.StatusInternalServerError)
		return
	}

	result, err := h.modelServer.Predict(s.Input)
	if err != nil {
		h.logger.Errorf("Prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, model.SampleResponse{
		Index:      s.Index,
		Label:      s.Label,
		Correct:    result.Index == s.Label,
		Image:      s.Input,
		Prediction: result,
	})
}

// SampleImage renders the dataset sample at the wrapped index as a PNG.
func (h *Handler) SampleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, ok := h.sampleIndex(w, r)
	if !ok {
		return
	}

	size := h.modelServer.Metadata.ImageSize
	if size <= 0 || size*size != h.samples.Width() {
		http.Error(w, "Samples are not square images", http.StatusNotImplemented)
		return
	}

	s, err := h.samples.Sample(index)
	if err != nil {
		h.logger.Errorf("Sample error: %v", err)
		http.Error(w, "Failed to load sample", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, input.ToRGBA(s.Input, size, size)); err != nil {
		h.logger.Errorf("PNG encode error: %v", err)
	}
}

func (h *Handler) sampleIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	if h.samples == nil || h.samples.Len() == 0 {
		http.Error(w, "No dataset loaded", http.StatusNotFound)
		return 0, false
	}
	raw := r.URL.Query().Get("index")
	if raw == "" {
		return 0, true
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (h *Handler) predict(w http.ResponseWriter, inputData []float64) {
	result, err := h.modelServer.Predict(inputData)
	if errors.Is(err, network.ErrInputShape) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Errorf("Prediction error: %v", err)
		http.Error(w, "Prediction failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
