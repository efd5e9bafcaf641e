// Package imageio encodes rendered images, picking the container format from
// the output file extension.
package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format identifies an output container format
type Format string

const (
	FormatPNG      Format = "png"
	FormatBMP      Format = "bmp"
	FormatTIFF     Format = "tiff"
	FormatPPM      Format = "ppm"       // Binary PPM (P6)
	FormatPlainPPM Format = "plain-ppm" // ASCII PPM (P3)
)

// Stdout is the output path that writes to standard output
const Stdout = "-"

// FormatForPath selects the format from the file extension. Standard output
// gets binary PPM, and unrecognized extensions fall back to plain PPM.
func FormatForPath(path string) Format {
	if path == Stdout {
		return FormatPPM
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG
	case ".bmp":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	case ".ppm":
		return FormatPPM
	default:
		return FormatPlainPPM
	}
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatPPM:
		return WritePPM(w, img)
	case FormatPlainPPM:
		return WritePlainPPM(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// WriteFile encodes img to path, or to standard output when path is "-"
func WriteFile(path string, img image.Image) error {
	format := FormatForPath(path)
	if path == Stdout {
		return Encode(os.Stdout, img, format)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open output file %q: %w", path, err)
	}

	if err := Encode(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return file.Close()
}

// WritePPM writes img as binary PPM (P6), rows top to bottom
func WritePPM(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(img, x, y)
			bw.Write([]byte{r, g, b})
		}
	}
	return bw.Flush()
}

// WritePlainPPM writes img as ASCII PPM (P3), one row per line
func WritePlainPPM(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := rgb8(img, x, y)
			if x > bounds.Min.X {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d %d %d", r, g, b)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// rgbImage is implemented by images that store 8-bit RGB directly
type rgbImage interface {
	RGBAt(x, y int) (r, g, b uint8)
}

func rgb8(img image.Image, x, y int) (r, g, b uint8) {
	if src, ok := img.(rgbImage); ok {
		return src.RGBAt(x, y)
	}
	r32, g32, b32, _ := img.At(x, y).RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}
