package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"seismicsmooth/internal/models"
)

// createTestField fills a field with a ramp along the first axis
func createTestField(n1, n2, n3 int) *models.Field {
	f := models.NewField(n1, n2, n3)
	for i3 := 0; i3 < n3; i3++ {
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				f.Set(i1, i2, i3, float64(i1))
			}
		}
	}
	return f
}

// TestExtractSliceDimensions verifies image sizes for each axis
func TestExtractSliceDimensions(t *testing.T) {
	viewer := NewViewer(createTestField(6, 4, 3))

	tests := []struct {
		axis         int
		wantW, wantH int
	}{
		{1, 4, 3},
		{2, 3, 6},
		{3, 4, 6},
	}
	for _, tt := range tests {
		img, err := viewer.ExtractSlice(tt.axis, 0)
		if err != nil {
			t.Fatalf("Failed to extract slice along axis %d: %v", tt.axis, err)
		}
		b := img.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("Axis %d: expected %dx%d image, got %dx%d", tt.axis, tt.wantW, tt.wantH, b.Dx(), b.Dy())
		}
	}
}

// TestExtractSliceGrayLevels verifies that values map linearly to gray
func TestExtractSliceGrayLevels(t *testing.T) {
	viewer := NewViewer(createTestField(6, 4, 3))

	img, err := viewer.ExtractSlice(3, 1)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	gray := img.(*image.Gray16)

	if got := gray.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected black at minimum, got %d", got)
	}
	if got := gray.Gray16At(0, 5).Y; got != 65535 {
		t.Errorf("Expected white at maximum, got %d", got)
	}

	viewer.SetClip(0, 2.5)
	img, _ = viewer.ExtractSlice(3, 1)
	if got := img.(*image.Gray16).Gray16At(0, 4).Y; got != 65535 {
		t.Errorf("Expected clipped white, got %d", got)
	}
}

// TestExtractSliceErrors verifies invalid arguments are rejected
func TestExtractSliceErrors(t *testing.T) {
	viewer := NewViewer(createTestField(3, 3, 3))

	if _, err := viewer.ExtractSlice(4, 0); err == nil {
		t.Errorf("Expected error for invalid axis")
	}
	if _, err := viewer.ExtractSlice(1, -1); err == nil {
		t.Errorf("Expected error for negative position")
	}
	if _, err := viewer.ExtractSlice(2, 3); err == nil {
		t.Errorf("Expected error for position beyond n2")
	}
}

// TestConstantFieldIsMidGray verifies a flat field does not divide by zero
func TestConstantFieldIsMidGray(t *testing.T) {
	f := models.NewField(2, 2, 2)
	f.Fill(5)
	img, err := NewViewer(f).ExtractSlice(1, 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	if got := img.(*image.Gray16).Gray16At(0, 0).Y; got != 32768 {
		t.Errorf("Expected mid gray, got %d", got)
	}
}

// TestSaveSliceSequence verifies one JPEG per position is written
func TestSaveSliceSequence(t *testing.T) {
	viewer := NewViewer(createTestField(5, 4, 3))
	outputDir := filepath.Join(t.TempDir(), "slices")

	if err := viewer.SaveSliceSequence(3, outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	for pos := 0; pos < 3; pos++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_3_%03d.jpg", pos))
		if _, err := os.Stat(filename); err != nil {
			t.Errorf("Expected slice file %s: %v", filename, err)
		}
	}

	if err := viewer.SaveSliceSequence(0, outputDir); err == nil {
		t.Errorf("Expected error for invalid axis")
	}
}
