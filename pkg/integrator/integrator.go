package integrator

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the radiance carried back along ray, following at most depth bounces
	RayColor(ray core.Ray, world core.Shape, depth int, sampler core.Sampler) core.Vec3
}
