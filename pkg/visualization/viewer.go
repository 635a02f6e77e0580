package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"seismicsmooth/internal/models"
)

// Viewer renders 2D sections of a 3D field as grayscale images. Axis 1 is
// drawn vertically, as seismic sections are.
type Viewer struct {
	field *models.Field

	// lo and hi map to black and white
	lo, hi float64
}

// NewViewer creates a viewer that clips at the field's minimum and maximum.
func NewViewer(f *models.Field) *Viewer {
	lo, hi := f.MinMax()
	return &Viewer{field: f, lo: lo, hi: hi}
}

// SetClip sets the values mapped to black and white.
func (v *Viewer) SetClip(lo, hi float64) {
	v.lo, v.hi = lo, hi
}

// gray maps a sample value to a 16-bit gray level.
func (v *Viewer) gray(x float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{Y: 32768}
	}
	t := (x - v.lo) / (v.hi - v.lo)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return color.Gray16{Y: uint16(t*65535 + 0.5)}
}

// ExtractSlice extracts the section at a fixed index along axis (1, 2 or 3).
//
//	axis 1: time slice, x = i2, y = i3
//	axis 2: x = i3, y = i1
//	axis 3: x = i2, y = i1
func (v *Viewer) ExtractSlice(axis, position int) (image.Image, error) {
	f := v.field
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16
	switch axis {
	case 1:
		if position >= f.N1 {
			return nil, fmt.Errorf("position %d exceeds n1 %d", position, f.N1)
		}
		img = image.NewGray16(image.Rect(0, 0, f.N2, f.N3))
		for i3 := 0; i3 < f.N3; i3++ {
			for i2 := 0; i2 < f.N2; i2++ {
				img.SetGray16(i2, i3, v.gray(f.At(position, i2, i3)))
			}
		}

	case 2:
		if position >= f.N2 {
			return nil, fmt.Errorf("position %d exceeds n2 %d", position, f.N2)
		}
		img = image.NewGray16(image.Rect(0, 0, f.N3, f.N1))
		for i3 := 0; i3 < f.N3; i3++ {
			for i1 := 0; i1 < f.N1; i1++ {
				img.SetGray16(i3, i1, v.gray(f.At(i1, position, i3)))
			}
		}

	case 3:
		if position >= f.N3 {
			return nil, fmt.Errorf("position %d exceeds n3 %d", position, f.N3)
		}
		img = image.NewGray16(image.Rect(0, 0, f.N2, f.N1))
		for i2 := 0; i2 < f.N2; i2++ {
			for i1 := 0; i1 < f.N1; i1++ {
				img.SetGray16(i2, i1, v.gray(f.At(i1, i2, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %d (must be 1, 2, or 3)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case 1:
		maxPos = v.field.N1
	case 2:
		maxPos = v.field.N2
	case 3:
		maxPos = v.field.N3
	default:
		return fmt.Errorf("invalid axis: %d (must be 1, 2, or 3)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%d_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
