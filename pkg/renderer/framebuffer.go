package renderer

import (
	"image"
	"image/color"
)

// FrameBuffer holds 8-bit RGB pixels in row-major order with row 0 at the top.
// It implements image.Image so it can be handed straight to image encoders.
type FrameBuffer struct {
	Width  int
	Height int
	Pix    []uint8 // 3 bytes per pixel
}

// NewFrameBuffer allocates a black frame buffer
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// PixOffset returns the index of the first byte of pixel (x, y)
func (fb *FrameBuffer) PixOffset(x, y int) int {
	return (y*fb.Width + x) * 3
}

// SetRGB stores one pixel
func (fb *FrameBuffer) SetRGB(x, y int, r, g, b uint8) {
	i := fb.PixOffset(x, y)
	fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2] = r, g, b
}

// RGBAt returns the channels of pixel (x, y)
func (fb *FrameBuffer) RGBAt(x, y int) (r, g, b uint8) {
	i := fb.PixOffset(x, y)
	return fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2]
}

// ColorModel implements image.Image
func (fb *FrameBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// At implements image.Image
func (fb *FrameBuffer) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(fb.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := fb.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
