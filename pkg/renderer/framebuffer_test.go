package renderer

import (
	"image"
	"image/color"
	"testing"
)

func TestFrameBuffer_ImplementsImage(t *testing.T) {
	var _ image.Image = (*FrameBuffer)(nil)

	fb := NewFrameBuffer(3, 2)
	if len(fb.Pix) != 18 {
		t.Fatalf("Expected 18 bytes, got %d", len(fb.Pix))
	}

	fb.SetRGB(2, 1, 10, 20, 30)
	if r, g, b := fb.RGBAt(2, 1); r != 10 || g != 20 || b != 30 {
		t.Errorf("Expected (10,20,30), got (%d,%d,%d)", r, g, b)
	}
	// Row-major with row 0 first
	if fb.Pix[15] != 10 {
		t.Errorf("Expected pixel (2,1) at offset 15, got %v", fb.Pix)
	}

	if got := fb.At(2, 1); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("Unexpected At result %v", got)
	}
	if got := fb.At(5, 5); got != (color.RGBA{}) {
		t.Errorf("Expected transparent black outside bounds, got %v", got)
	}
	if fb.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Unexpected bounds %v", fb.Bounds())
	}
}
