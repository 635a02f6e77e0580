package volio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"seismicsmooth/internal/models"
)

func TestBigEndianLayout(t *testing.T) {
	f := models.NewField(2, 1, 1)
	f.Data[0] = 1
	f.Data[1] = -2

	var buf bytes.Buffer
	if err := Write(&buf, f, binary.BigEndian); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []byte{0x3f, 0x80, 0x00, 0x00, 0xc0, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Expected bytes % x, got % x", want, buf.Bytes())
	}

	g, err := Read(bytes.NewReader(want), 2, 1, 1, binary.BigEndian)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if g.Data[0] != 1 || g.Data[1] != -2 {
		t.Errorf("Expected [1 -2], got %v", g.Data)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "x.dat")
	f := models.NewField(3, 2, 2)
	for i := range f.Data {
		f.Data[i] = float64(i) * 0.5
	}
	if err := WriteFile(path, f, binary.LittleEndian); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	g, err := ReadFile(path, 3, 2, 2, binary.LittleEndian)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for i := range f.Data {
		if g.Data[i] != f.Data[i] {
			t.Fatalf("index %d: got %v, want %v", i, g.Data[i], f.Data[i])
		}
	}
}

func TestReadFileSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.dat")
	if err := os.WriteFile(path, make([]byte, 12), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadFile(path, 2, 2, 1, binary.BigEndian); !errors.Is(err, models.ErrShape) {
		t.Errorf("Expected ErrShape, got %v", err)
	}
}

func TestParseByteOrder(t *testing.T) {
	if o, err := ParseByteOrder(""); err != nil || o != binary.BigEndian {
		t.Errorf("Expected big-endian default, got %v, %v", o, err)
	}
	if o, err := ParseByteOrder("little"); err != nil || o != binary.LittleEndian {
		t.Errorf("Expected little-endian, got %v, %v", o, err)
	}
	if _, err := ParseByteOrder("middle"); err == nil {
		t.Errorf("Expected error for unknown byte order")
	}
}
