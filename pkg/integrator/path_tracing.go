package integrator

import (
	"math"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// ShadowAcneEpsilon is the minimum hit distance, so a scattered ray cannot
// re-hit the surface it leaves because of floating point error.
const ShadowAcneEpsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing by direct recursion
type PathTracingIntegrator struct {
	background core.Background
}

// NewPathTracingIntegrator creates a new path tracing integrator.
// A nil background is treated as black.
func NewPathTracingIntegrator(background core.Background) *PathTracingIntegrator {
	if background == nil {
		background = NewSolidBackground(core.Vec3{})
	}
	return &PathTracingIntegrator{background: background}
}

// Background returns the color source used for escaping rays
func (pt *PathTracingIntegrator) Background() core.Background {
	return pt.background
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world core.Shape, depth int, sampler core.Sampler) core.Vec3 {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := world.Hit(ray, ShadowAcneEpsilon, math.Inf(1))
	if !isHit {
		return pt.background.Color(ray)
	}

	colorEmitted := pt.getEmittedLight(ray, hit)

	if hit.Material == nil {
		return colorEmitted
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		// Material absorbed the ray, only return emitted light
		return colorEmitted
	}

	incoming := pt.RayColor(scatter.Scattered, world, depth-1, sampler)
	return colorEmitted.Add(scatter.Attenuation.MultiplyVec(incoming))
}

// getEmittedLight returns the emitted light from a material if it's emissive
func (pt *PathTracingIntegrator) getEmittedLight(ray core.Ray, hit *core.HitRecord) core.Vec3 {
	if emitter, isEmissive := hit.Material.(core.Emitter); isEmissive {
		return emitter.Emit(ray, *hit)
	}
	return core.Vec3{}
}
