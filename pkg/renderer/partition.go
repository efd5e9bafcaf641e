package renderer

import (
	"fmt"
	"image"
	"math"
)

// PartitionStrategy selects how the image is divided between workers
type PartitionStrategy string

const (
	// PartitionRows splits the image into horizontal bands of whole rows
	PartitionRows PartitionStrategy = "rows"
	// PartitionTiles splits the image into a near-square grid of rectangles
	PartitionTiles PartitionStrategy = "tiles"
)

// ParsePartitionStrategy converts a name into a strategy. The empty string means rows.
func ParsePartitionStrategy(name string) (PartitionStrategy, error) {
	switch PartitionStrategy(name) {
	case "", PartitionRows:
		return PartitionRows, nil
	case PartitionTiles:
		return PartitionTiles, nil
	}
	return "", fmt.Errorf("unknown partition strategy %q (want %q or %q)", name, PartitionRows, PartitionTiles)
}

// Partition is a disjoint region of the image owned by one worker
type Partition struct {
	ID     int             // Stable index, also used to derive the worker seed
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1), row 0 at the top
}

// NewPartitions divides a width x height image into at most parts regions.
// Together the regions cover every pixel exactly once. Empty regions, which occur
// when parts exceeds the image size, are dropped but keep their ID slot.
func NewPartitions(width, height, parts int, strategy PartitionStrategy) []Partition {
	if width <= 0 || height <= 0 || parts <= 0 {
		return nil
	}

	var partitions []Partition
	switch strategy {
	case PartitionTiles:
		cols, rows := gridShape(width, height, parts)
		for r := 0; r < rows; r++ {
			y0, y1 := span(height, rows, r)
			for c := 0; c < cols; c++ {
				x0, x1 := span(width, cols, c)
				partitions = appendNonEmpty(partitions, r*cols+c, image.Rect(x0, y0, x1, y1))
			}
		}
	default:
		for i := 0; i < parts; i++ {
			y0, y1 := span(height, parts, i)
			partitions = appendNonEmpty(partitions, i, image.Rect(0, y0, width, y1))
		}
	}
	return partitions
}

func appendNonEmpty(partitions []Partition, id int, bounds image.Rectangle) []Partition {
	if bounds.Empty() {
		return partitions
	}
	return append(partitions, Partition{ID: id, Bounds: bounds})
}

// span returns the half-open range of slice i when n units are split into parts.
// Sizes differ by at most one.
func span(n, parts, i int) (int, int) {
	return i * n / parts, (i + 1) * n / parts
}

// gridShape factors parts into cols*rows as close to square as possible,
// giving the longer image side the larger factor
func gridShape(width, height, parts int) (cols, rows int) {
	small := 1
	for f := int(math.Sqrt(float64(parts))); f >= 1; f-- {
		if parts%f == 0 {
			small = f
			break
		}
	}
	large := parts / small
	if width >= height {
		return large, small
	}
	return small, large
}
