package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// ErrSingularTransform is returned when a transform matrix has no inverse
var ErrSingularTransform = errors.New("transform matrix is not invertible")

// singularThreshold is the smallest determinant accepted for a transform
const singularThreshold = 1e-12

// Transform wraps a shape with an affine transform.
// Rays are mapped into object space with the inverse matrix; hit points come
// back through the forward matrix and normals through the inverse-transpose.
type Transform struct {
	Object       core.Shape
	matrix       mgl64.Mat4
	inverse      mgl64.Mat4
	normalMatrix mgl64.Mat3
	bbox         core.AABB
}

// NewTransform wraps object with the given object-to-world matrix
func NewTransform(object core.Shape, matrix mgl64.Mat4) (*Transform, error) {
	det := matrix.Det()
	if math.Abs(det) < singularThreshold || math.IsNaN(det) {
		return nil, fmt.Errorf("%w: determinant %g", ErrSingularTransform, det)
	}
	return newTransform(object, matrix, matrix.Inv()), nil
}

// newTransform builds a transform from a matrix and its known inverse
func newTransform(object core.Shape, matrix, inverse mgl64.Mat4) *Transform {
	t := &Transform{
		Object:       object,
		matrix:       matrix,
		inverse:      inverse,
		normalMatrix: inverse.Transpose().Mat3(),
	}

	corners := object.BoundingBox().Corners()
	for i, c := range corners {
		corners[i] = t.transformPoint(c)
	}
	t.bbox = core.NewAABBFromPoints(corners[:]...)
	return t
}

// Translate moves object by offset
func Translate(object core.Shape, offset core.Vec3) *Transform {
	return newTransform(object,
		mgl64.Translate3D(offset.X, offset.Y, offset.Z),
		mgl64.Translate3D(-offset.X, -offset.Y, -offset.Z))
}

// Scale scales object about the origin. Zero factors are rejected.
func Scale(object core.Shape, factors core.Vec3) (*Transform, error) {
	if factors.X == 0 || factors.Y == 0 || factors.Z == 0 {
		return nil, fmt.Errorf("%w: zero scale factor %v", ErrSingularTransform, factors)
	}
	return newTransform(object,
		mgl64.Scale3D(factors.X, factors.Y, factors.Z),
		mgl64.Scale3D(1/factors.X, 1/factors.Y, 1/factors.Z)), nil
}

// RotateX rotates object about the X axis by degrees
func RotateX(object core.Shape, degrees float64) *Transform {
	return rotate(object, mgl64.HomogRotate3DX(mgl64.DegToRad(degrees)))
}

// RotateY rotates object about the Y axis by degrees
func RotateY(object core.Shape, degrees float64) *Transform {
	return rotate(object, mgl64.HomogRotate3DY(mgl64.DegToRad(degrees)))
}

// RotateZ rotates object about the Z axis by degrees
func RotateZ(object core.Shape, degrees float64) *Transform {
	return rotate(object, mgl64.HomogRotate3DZ(mgl64.DegToRad(degrees)))
}

// rotate uses the transpose as the exact inverse of a pure rotation
func rotate(object core.Shape, rotation mgl64.Mat4) *Transform {
	return newTransform(object, rotation, rotation.Transpose())
}

// Then returns a transform of the same object with next applied after t.
// Nesting stays flat, so a chain of Then calls costs one matrix multiply per ray.
func (t *Transform) Then(next mgl64.Mat4) (*Transform, error) {
	det := next.Det()
	if math.Abs(det) < singularThreshold || math.IsNaN(det) {
		return nil, fmt.Errorf("%w: determinant %g", ErrSingularTransform, det)
	}
	return newTransform(t.Object, next.Mul4(t.matrix), t.inverse.Mul4(next.Inv())), nil
}

// Matrix returns the object-to-world matrix
func (t *Transform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// Inverse returns the world-to-object matrix
func (t *Transform) Inverse() mgl64.Mat4 {
	return t.inverse
}

// Hit intersects the wrapped object in object space. The ray direction is
// transformed without renormalizing, so t means the same thing in both spaces.
func (t *Transform) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	local := core.NewRay(
		fromVec4(t.inverse.Mul4x1(mgl64.Vec4{ray.Origin.X, ray.Origin.Y, ray.Origin.Z, 1})),
		fromVec4(t.inverse.Mul4x1(mgl64.Vec4{ray.Direction.X, ray.Direction.Y, ray.Direction.Z, 0})),
	)

	hit, isHit := t.Object.Hit(local, tMin, tMax)
	if !isHit {
		return nil, false
	}

	// The inverse-transpose preserves the sign of normal·direction, so the
	// front-face flag from object space is still correct.
	n := t.normalMatrix.Mul3x1(mgl64.Vec3{hit.Normal.X, hit.Normal.Y, hit.Normal.Z})
	world := *hit
	world.Point = t.transformPoint(hit.Point)
	world.Normal = core.NewVec3(n[0], n[1], n[2]).Normalize()
	return &world, true
}

// BoundingBox returns the world-space bounds of the transformed object box
func (t *Transform) BoundingBox() core.AABB {
	return t.bbox
}

func (t *Transform) transformPoint(p core.Vec3) core.Vec3 {
	return fromVec4(t.matrix.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1}))
}

func fromVec4(v mgl64.Vec4) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
