// Package volio reads and writes raw 3D volumes of 32-bit floats, the
// layout used by common seismic processing tools: n1 samples vary fastest,
// n3 slowest, with no header.
package volio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"seismicsmooth/internal/models"
)

// ParseByteOrder converts "big" or "little" to a binary.ByteOrder. An empty
// string selects big-endian.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch s {
	case "", "big", "big-endian":
		return binary.BigEndian, nil
	case "little", "little-endian":
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", s)
}

// Read decodes an n1 x n2 x n3 volume from r.
func Read(r io.Reader, n1, n2, n3 int, order binary.ByteOrder) (*models.Field, error) {
	f := models.NewField(n1, n2, n3)
	buf := make([]float32, f.Len())
	if err := binary.Read(bufio.NewReader(r), order, buf); err != nil {
		return nil, fmt.Errorf("failed to read %dx%dx%d volume: %w", n1, n2, n3, err)
	}
	for i, v := range buf {
		f.Data[i] = float64(v)
	}
	return f, nil
}

// Write encodes f to w as 32-bit floats.
func Write(w io.Writer, f *models.Field, order binary.ByteOrder) error {
	buf := make([]float32, f.Len())
	for i, v := range f.Data {
		buf[i] = float32(v)
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, order, buf); err != nil {
		return fmt.Errorf("failed to write volume: %w", err)
	}
	return bw.Flush()
}

// ReadFile reads a volume file and checks that its size matches the
// requested dimensions.
func ReadFile(path string, n1, n2, n3 int, order binary.ByteOrder) (*models.Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open volume: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat volume: %w", err)
	}
	if want := int64(n1*n2*n3) * 4; info.Size() != want {
		return nil, fmt.Errorf("%w: %s has %d bytes, expected %d for %dx%dx%d",
			models.ErrShape, path, info.Size(), want, n1, n2, n3)
	}
	return Read(file, n1, n2, n3, order)
}

// WriteFile writes f to path, creating the parent directory.
func WriteFile(path string, f *models.Field, order binary.ByteOrder) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create volume file: %w", err)
	}
	if err := Write(file, f, order); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
