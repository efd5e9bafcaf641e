package renderer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration validation error
var ErrInvalidConfig = errors.New("invalid render config")

// Config contains rendering configuration
type Config struct {
	Width           int               // Image width in pixels
	Height          int               // Image height in pixels
	SamplesPerPixel int               // Number of rays per pixel
	MaxDepth        int               // Maximum ray bounce depth
	Threads         int               // Number of partitions rendered in parallel
	Seed            int64             // Base seed; partition i uses Seed+i
	Partition       PartitionStrategy // How the image is divided between workers
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:           400,
		Height:          300,
		SamplesPerPixel: 100,
		MaxDepth:        10,
		Threads:         4,
		Seed:            0,
		Partition:       PartitionRows,
	}
}

// Validate checks that every field is usable. Returned errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel must be positive, got %d", ErrInvalidConfig, c.SamplesPerPixel)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("%w: thread count must be positive, got %d", ErrInvalidConfig, c.Threads)
	}
	if _, err := ParsePartitionStrategy(string(c.Partition)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
