package integrator

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// GradientBackground blends vertically between two colors by ray direction
type GradientBackground struct {
	Top    core.Vec3 // Color straight up
	Bottom core.Vec3 // Color straight down
}

// NewGradientBackground creates a vertical gradient background
func NewGradientBackground(top, bottom core.Vec3) *GradientBackground {
	return &GradientBackground{Top: top, Bottom: bottom}
}

// NewSkyBackground creates the default white-to-blue sky
func NewSkyBackground() *GradientBackground {
	return NewGradientBackground(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))
}

// Color returns the gradient color based on ray direction
func (g *GradientBackground) Color(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	// (1-t)*bottom + t*top
	return g.Bottom.Multiply(1.0 - t).Add(g.Top.Multiply(t))
}

// SolidBackground returns the same color for every escaping ray
type SolidBackground struct {
	Value core.Vec3
}

// NewSolidBackground creates a constant background
func NewSolidBackground(color core.Vec3) *SolidBackground {
	return &SolidBackground{Value: color}
}

// Color implements core.Background
func (s *SolidBackground) Color(ray core.Ray) core.Vec3 {
	return s.Value
}
