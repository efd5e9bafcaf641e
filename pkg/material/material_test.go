package material

import (
	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// fixedSampler returns the same values on every call
type fixedSampler struct {
	one float64
	two core.Vec2
}

func (s fixedSampler) Get1D() float64   { return s.one }
func (s fixedSampler) Get2D() core.Vec2  { return s.two }
func (s fixedSampler) Get3D() core.Vec3 { return core.NewVec3(s.two.X, s.two.Y, s.one) }

func upHit(frontFace bool) core.HitRecord {
	return core.HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1,
		FrontFace: frontFace,
	}
}
