package geometry

import (
	"math"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Box is an axis-aligned box built from six quads.
// Wrap it in a Transform to rotate it.
type Box struct {
	Min, Max core.Vec3
	faces    *HittableList
}

// NewBox creates a box spanning the two opposite corners a and b
func NewBox(a, b core.Vec3, material core.Material) *Box {
	lo := core.NewVec3(math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z))
	hi := core.NewVec3(math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z))

	dx := core.NewVec3(hi.X-lo.X, 0, 0)
	dy := core.NewVec3(0, hi.Y-lo.Y, 0)
	dz := core.NewVec3(0, 0, hi.Z-lo.Z)

	// Edge order keeps every face normal pointing outward
	faces := NewHittableList(
		NewQuad(core.NewVec3(lo.X, lo.Y, hi.Z), dx, dy, material),
		NewQuad(core.NewVec3(hi.X, lo.Y, hi.Z), dz.Negate(), dy, material),
		NewQuad(core.NewVec3(hi.X, lo.Y, lo.Z), dx.Negate(), dy, material),
		NewQuad(core.NewVec3(lo.X, lo.Y, lo.Z), dz, dy, material),
		NewQuad(core.NewVec3(lo.X, hi.Y, hi.Z), dx, dz.Negate(), material),
		NewQuad(core.NewVec3(lo.X, lo.Y, lo.Z), dx, dz, material),
	)

	return &Box{Min: lo, Max: hi, faces: faces}
}

// Hit tests the ray against all six faces
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	return b.faces.Hit(ray, tMin, tMax)
}

// BoundingBox returns the box itself
func (b *Box) BoundingBox() core.AABB {
	return core.NewAABB(b.Min, b.Max).Pad(1e-4)
}
