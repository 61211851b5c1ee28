package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Brownie44l1/digit-api/internal/dataset"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/network"
)

// brightnessNet has a 2x2 input and two classes: class 1 scores the sum of
// the pixels, class 0 scores a constant 1.
func brightnessNet(t *testing.T) *model.Server {
	t.Helper()
	net, err := network.New([]int{4, 2}, []float64{0, 0, 0, 0, 1, 1, 1, 1}, []float64{1, 0})
	require.NoError(t, err)
	return model.NewServer(model.NewDenseBackend(net), model.DenseMetadata(net, []string{"dark", "bright"}), zap.NewNop().Sugar())
}

// three samples: dark (label 0), bright (label 1), bright but labelled 0.
func samples(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New([]byte{
		0, 0, 0, 0,
		255, 255, 255, 255,
		255, 255, 0, 0,
	}, []uint8{0, 1, 0}, 4)
	require.NoError(t, err)
	return d
}

func newHandler(t *testing.T, withSamples bool) *Handler {
	var d *dataset.Dataset
	if withSamples {
		d = samples(t)
	}
	return NewHandler(brightnessNet(t), d, zap.NewNop().Sugar())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t, false).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestPredict(t *testing.T) {
	h := newHandler(t, false)

	rec := httptest.NewRecorder()
	h.Predict(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"image":[1,1,0.5,0]}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[model.PredictionResponse](t, rec)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, "bright", res.Class)
	assert.InDelta(t, 2.5, res.Confidence, 1e-12)
	assert.InDelta(t, 1.0, res.Predictions["dark"], 1e-12)
}

func TestPredict_BadRequests(t *testing.T) {
	h := newHandler(t, false)

	rec := httptest.NewRecorder()
	h.Predict(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"image":[1,1]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Predict(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Predict(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t, false).Clear(rec, httptest.NewRequest(http.MethodPost, "/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[model.PredictionResponse](t, rec)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, []float64{1, 0}, res.Scores)
}

func TestPredictFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "digit.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(t, false).PredictFromImage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[model.PredictionResponse](t, rec)
	assert.Equal(t, "bright", res.Class)
	assert.InDelta(t, 4.0, res.Confidence, 1e-12)
}

func TestPredictFromImage_MissingFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(t, false).PredictFromImage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSample_Navigation(t *testing.T) {
	h := newHandler(t, true)

	cases := []struct {
		query string
		index int
	}{
		{"", 0},
		{"?index=1", 1},
		{"?index=0&step=prev", 2},
		{"?index=2&step=next", 0},
		{"?index=-1", 2},
		{"?index=0&step=nextwrong", 2},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples"+c.query, nil))
		require.Equal(t, http.StatusOK, rec.Code, c.query)

		res := decode[model.SampleResponse](t, rec)
		assert.Equal(t, c.index, res.Index, c.query)
		assert.Len(t, res.Image, 4)
	}
}

func TestSample_Correctness(t *testing.T) {
	h := newHandler(t, true)

	rec := httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples?index=1", nil))
	res := decode[model.SampleResponse](t, rec)
	assert.True(t, res.Correct)
	assert.Equal(t, 1, res.Label)

	rec = httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples?index=2", nil))
	res = decode[model.SampleResponse](t, rec)
	assert.False(t, res.Correct)
	assert.Equal(t, "bright", res.Prediction.Class)
}

func TestSample_Errors(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t, false).Sample(rec, httptest.NewRequest(http.MethodGet, "/samples", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h := newHandler(t, true)
	rec = httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples?index=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples?step=sideways", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSample_AllCorrect(t *testing.T) {
	d, err := dataset.New([]byte{0, 0, 0, 0}, []uint8{0}, 4)
	require.NoError(t, err)
	h := NewHandler(brightnessNet(t), d, zap.NewNop().Sugar())

	rec := httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/samples?step=nextwrong", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSampleImage(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t, true).SampleImage(rec, httptest.NewRequest(http.MethodGet, "/samples/image?index=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())

	r, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
	r, _, _, _ = img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0), r)
}
