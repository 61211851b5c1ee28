// Package input turns dataset bytes and drawn bitmaps into the normalized
// vectors the network consumes.
package input

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"
)

var ErrOutOfRange = errors.New("sample out of range")

// Channel selects one 8-bit component of an RGBA pixel.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Intensity maps an 8-bit pixel value onto [0,1]. Every input path goes
// through it so dataset and drawn pixels normalize identically.
func Intensity(b uint8) float64 {
	return float64(b) / 255
}

// Blank is the all-zero input used after a reset.
func Blank(n int) []float64 {
	return make([]float64, n)
}

// FromDataset extracts image index from a buffer of stacked width-byte
// images.
func FromDataset(buf []byte, index, width int) ([]float64, error) {
	if width <= 0 || index < 0 {
		return nil, fmt.Errorf("%w: index %d, width %d", ErrOutOfRange, index, width)
	}
	start, end := index*width, (index+1)*width
	if end > len(buf) {
		return nil, fmt.Errorf("%w: bytes [%d,%d) of %d", ErrOutOfRange, start, end, len(buf))
	}

	vec := make([]float64, width)
	for i, b := range buf[start:end] {
		vec[i] = Intensity(b)
	}
	return vec, nil
}

// FromRGBA reads channel ch of every pixel in row-major order. RGBA pixels
// are alpha-premultiplied, so this is the raw value only for opaque images.
func FromRGBA(img *image.RGBA, ch Channel) []float64 {
	return readChannel(img.Pix, img.Stride, img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y), img.Rect, ch)
}

// FromNRGBA reads channel ch of every pixel in row-major order, ignoring
// alpha.
func FromNRGBA(img *image.NRGBA, ch Channel) []float64 {
	return readChannel(img.Pix, img.Stride, img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y), img.Rect, ch)
}

func readChannel(pix []uint8, stride, start int, r image.Rectangle, ch Channel) []float64 {
	vec := make([]float64, 0, r.Dx()*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		row := pix[start+y*stride:]
		for x := 0; x < r.Dx(); x++ {
			vec = append(vec, Intensity(row[x*4+int(ch)]))
		}
	}
	return vec
}

// FromImage converts a decoded drawing into a width×height input, resizing
// only when the bounds differ. Strokes are expected in grey, so the red
// channel is representative. Channel values are read unpremultiplied, the
// way a canvas reports them.
func FromImage(img image.Image, width, height int) []float64 {
	return FromNRGBA(toNRGBA(img, width, height), Red)
}

func toNRGBA(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
		b = img.Bounds()
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	// Set converts through color.NRGBAModel, undoing premultiplication.
	nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			nrgba.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return nrgba
}

// ToRGBA renders an input vector as an opaque grey width×height bitmap.
// FromRGBA on the result gives back vec when vec came from 8-bit data.
func ToRGBA(vec []float64, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(vec) && i < width*height; i++ {
		v := uint8(math.Round(math.Max(0, math.Min(1, vec[i])) * 255))
		img.Pix[i*4] = v
		img.Pix[i*4+1] = v
		img.Pix[i*4+2] = v
		img.Pix[i*4+3] = 255
	}
	return img
}
