package scene

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// Scene contains all the elements needed for rendering.
// It is built once and only read while rendering.
type Scene struct {
	Camera       *renderer.Camera
	CameraConfig renderer.CameraConfig
	Shapes       []core.Shape    // Objects in the scene
	Background   core.Background // Color of rays that escape
	BVH          *core.BVH       // Acceleration structure for ray-object intersection
	Render       RenderHints     // Preferred render settings, zero when unset
}

// RenderHints are render settings a scene may suggest; zero fields mean no preference
type RenderHints struct {
	Width           int
	Height          int
	SamplesPerPixel int
	MaxDepth        int
}

// NewGroundQuad creates a large quad to replace infinite ground planes
// Creates a horizontal quad centered at the given point with normal pointing up (0,1,0)
func NewGroundQuad(center core.Vec3, size float64, mat core.Material) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// u × v = (0,0,size) × (size,0,0) = (0,size²,0), facing up
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v, mat)
}

// Preprocess builds the BVH over the scene shapes. It must run before rendering.
func (s *Scene) Preprocess() {
	s.BVH = core.NewBVH(s.Shapes)
}

// AddQuadLight adds a rectangular area light to the scene
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewQuad(corner, u, v, material.NewEmissive(emission)))
}

// AddSphereLight adds a spherical light to the scene
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, emission core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewSphere(center, radius, material.NewEmissive(emission)))
}

// GetWorld implements renderer.Scene. Without a BVH the shapes are tested as a plain list.
func (s *Scene) GetWorld() core.Shape {
	if s.BVH == nil {
		return geometry.NewHittableList(s.Shapes...)
	}
	return s.BVH
}

// GetCamera implements renderer.Scene
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetBackground implements renderer.Scene
func (s *Scene) GetBackground() core.Background {
	return s.Background
}

// GetPrimitiveCount returns the number of top-level shapes in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}
