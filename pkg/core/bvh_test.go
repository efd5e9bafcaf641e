package core

import (
	"math"
	"testing"
)

// MockShape for testing
type MockShape struct {
	boundingBox AABB
	hitFn       func(ray Ray, tMin, tMax float64) (*HitRecord, bool)
}

func (m MockShape) Hit(ray Ray, tMin, tMax float64) (*HitRecord, bool) {
	return m.hitFn(ray, tMin, tMax)
}

func (m MockShape) BoundingBox() AABB {
	return m.boundingBox
}

func neverHit(ray Ray, tMin, tMax float64) (*HitRecord, bool) {
	return nil, false
}

// hitAt returns a hit function reporting a hit at tValue when it lies in range
func hitAt(tValue float64) func(ray Ray, tMin, tMax float64) (*HitRecord, bool) {
	return func(ray Ray, tMin, tMax float64) (*HitRecord, bool) {
		if tValue >= tMin && tValue <= tMax {
			return &HitRecord{T: tValue}, true
		}
		return nil, false
	}
}

func unitBoxAt(x float64) AABB {
	return NewAABB(NewVec3(x, 0, 0), NewVec3(x+1, 1, 1))
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	shapes := make([]Shape, leafThreshold)
	for i := range shapes {
		shapes[i] = MockShape{boundingBox: unitBoxAt(float64(i)), hitFn: neverHit}
	}

	stats := NewBVH(shapes).getStats()
	if stats.totalNodes != 1 || stats.leafNodes != 1 {
		t.Errorf("Expected a single leaf for %d shapes, got %d nodes / %d leaves",
			len(shapes), stats.totalNodes, stats.leafNodes)
	}

	shapes = append(shapes, MockShape{boundingBox: unitBoxAt(leafThreshold), hitFn: neverHit})
	stats = NewBVH(shapes).getStats()
	if stats.leafNodes < 2 {
		t.Errorf("Expected a split for %d shapes, got %d leaves", len(shapes), stats.leafNodes)
	}
	if stats.totalShapes != len(shapes) {
		t.Errorf("Expected %d shapes in leaves, got %d", len(shapes), stats.totalShapes)
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	hit, isHit := bvh.Hit(NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)), 0.001, math.Inf(1))
	if isHit || hit != nil {
		t.Error("Expected no hit for empty BVH")
	}
}

func TestBVH_ClosestHitAcrossLeaves(t *testing.T) {
	// Enough shapes to force internal nodes; the closest one sits in the right half
	shapes := make([]Shape, 20)
	for i := range shapes {
		tValue := 10.0 + float64(i)
		if i == 15 {
			tValue = 2.0
		}
		shapes[i] = MockShape{boundingBox: unitBoxAt(float64(i)), hitFn: hitAt(tValue)}
	}

	bvh := NewBVH(shapes)
	ray := NewRay(NewVec3(-1, 0.5, 0.5), NewVec3(1, 0, 0))
	hit, isHit := bvh.Hit(ray, 0.001, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit")
	}
	if math.Abs(hit.T-2.0) > 1e-9 {
		t.Errorf("Expected closest hit at t=2.0, got t=%f", hit.T)
	}
}

func TestBVH_RayHitsBoundingBoxButMissesShapes(t *testing.T) {
	shape := MockShape{boundingBox: NewAABB(NewVec3(0, 0, 0), NewVec3(2, 2, 2)), hitFn: neverHit}
	bvh := NewBVH([]Shape{shape})

	hit, isHit := bvh.Hit(NewRay(NewVec3(-1, 1, 1), NewVec3(1, 0, 0)), 0.001, 1000.0)
	if isHit || hit != nil {
		t.Error("Expected miss when ray hits bounding box but misses shape")
	}
}

func TestBVH_DoesNotReorderInput(t *testing.T) {
	shapes := make([]Shape, 12)
	for i := range shapes {
		shapes[i] = MockShape{boundingBox: unitBoxAt(float64(len(shapes) - i)), hitFn: neverHit}
	}
	first := shapes[0]

	NewBVH(shapes)
	if shapes[0].BoundingBox() != first.BoundingBox() {
		t.Error("NewBVH must not reorder the caller's slice")
	}
}

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		expected bool
	}{
		{"through center", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, -1)), true},
		{"parallel inside slab", NewRay(NewVec3(0.5, 0.5, 5), NewVec3(0, 0, -1)), true},
		{"parallel outside slab", NewRay(NewVec3(2, 0, 5), NewVec3(0, 0, -1)), false},
		{"pointing away", NewRay(NewVec3(0, 0, 5), NewVec3(0, 0, 1)), false},
		{"diagonal miss", NewRay(NewVec3(3, 0, 5), NewVec3(0, 1, -1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Hit(tt.ray, 0.001, math.Inf(1)); got != tt.expected {
				t.Errorf("Expected %t, got %t", tt.expected, got)
			}
		})
	}
}

func TestAABB_PadFlatBox(t *testing.T) {
	flat := NewAABB(NewVec3(0, 1, 0), NewVec3(2, 1, 2)).Pad(0.01)
	if flat.Max.Y-flat.Min.Y < 0.01-1e-12 {
		t.Errorf("Expected padded Y extent of 0.01, got %f", flat.Max.Y-flat.Min.Y)
	}
	if flat.Max.X != 2 || flat.Min.X != 0 {
		t.Errorf("Pad should not change wide axes, got %v", flat)
	}
}
