package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	imagesMagic = 0x00000803
	labelsMagic = 0x00000801
)

var ErrBadHeader = errors.New("bad idx header")

// LoadIDX reads an MNIST style image/label file pair. Either file may be
// gzip-compressed.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, rows, cols, err := readImages(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := readLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	// readImages guarantees len(images) is a multiple of rows*cols
	if n := len(images) / (rows * cols); n != len(labels) {
		return nil, fmt.Errorf("%w: %d images but %d labels", ErrBadHeader, n, len(labels))
	}
	return New(images, labels, rows*cols)
}

func readImages(path string) (data []byte, rows, cols int, err error) {
	raw, err := readMaybeGzip(path)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(raw) < 16 || binary.BigEndian.Uint32(raw) != imagesMagic {
		return nil, 0, 0, fmt.Errorf("%w: %s is not an idx image file", ErrBadHeader, path)
	}
	count := uint64(binary.BigEndian.Uint32(raw[4:]))
	r := uint64(binary.BigEndian.Uint32(raw[8:]))
	c := uint64(binary.BigEndian.Uint32(raw[12:]))
	data = raw[16:]

	// count*rows*cols can overflow, so compare by division
	size := uint64(len(data))
	pixels := r * c
	if pixels == 0 || pixels > size || size%pixels != 0 || size/pixels != count {
		return nil, 0, 0, fmt.Errorf("%w: %s declares %d images of %dx%d, found %d bytes", ErrBadHeader, path, count, r, c, len(data))
	}
	return data, int(r), int(c), nil
}

func readLabels(path string) ([]byte, error) {
	raw, err := readMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 8 || binary.BigEndian.Uint32(raw) != labelsMagic {
		return nil, fmt.Errorf("%w: %s is not an idx label file", ErrBadHeader, path)
	}
	count := uint64(binary.BigEndian.Uint32(raw[4:]))
	if uint64(len(raw)-8) != count {
		return nil, fmt.Errorf("%w: %s declares %d labels, found %d", ErrBadHeader, path, count, len(raw)-8)
	}
	return raw[8:], nil
}

func readMaybeGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to ungzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
