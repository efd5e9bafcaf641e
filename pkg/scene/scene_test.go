package scene

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
	"github.com/df07/go-tiled-raytracer/pkg/loaders"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

func TestBuiltinScenes(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Create(name, 16.0/9.0)
			if err != nil {
				t.Fatalf("Create(%q) failed: %v", name, err)
			}
			if s.Camera == nil || s.Background == nil {
				t.Fatal("Scene is missing a camera or background")
			}
			if err := s.CameraConfig.Validate(); err != nil {
				t.Errorf("Invalid camera config: %v", err)
			}
			if s.BVH == nil {
				t.Error("Expected the scene to be preprocessed")
			}
			if s.GetPrimitiveCount() == 0 {
				t.Error("Expected shapes in the scene")
			}

			// A ray through the image center must hit something in every built-in scene
			ray := s.Camera.GetRay(0.5, 0.5, core.NewSeededSampler(1))
			if _, isHit := s.GetWorld().Hit(ray, 0.001, math.Inf(1)); !isHit {
				t.Error("Expected the center ray to hit the scene")
			}
		})
	}
}

func TestCreate_Errors(t *testing.T) {
	if _, err := Create("teapot", 1); err == nil || !strings.Contains(err.Error(), "teapot") {
		t.Errorf("Expected unknown scene error, got %v", err)
	}
	if _, err := Create("default", 0); err == nil {
		t.Error("Expected error for zero aspect ratio")
	}
}

func TestGroundQuadFacesUp(t *testing.T) {
	quad := NewGroundQuad(core.NewVec3(0, 0, 0), 10, nil)
	if !quad.Normal.ApproxEquals(core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected ground normal (0,1,0), got %v", quad.Normal)
	}
}

func TestCornellLightFacesDown(t *testing.T) {
	s := NewCornellScene(1)
	hit, isHit := s.GetWorld().Hit(core.NewRay(core.NewVec3(278, 400, 278), core.NewVec3(0, 1, 0)), 0.001, math.Inf(1))
	if !isHit {
		t.Fatal("Expected to hit the ceiling light")
	}
	emitter, ok := hit.Material.(core.Emitter)
	if !ok {
		t.Fatalf("Expected an emissive material, got %T", hit.Material)
	}
	if got := emitter.Emit(core.Ray{}, *hit); got == (core.Vec3{}) {
		t.Error("Expected the light to emit downward")
	}
}

const transformedSceneYAML = `# Scene: Transformed Box
camera:
  center: [0, 0, 10]
  lookAt: [0, 0, 0]
  vfov: 30
background:
  top: [0, 0, 1]
render:
  samples: 8
materials:
  white: {type: lambertian, albedo: [0.7, 0.7, 0.7]}
shapes:
  - type: box
    min: [-1, -1, -1]
    max: [1, 1, 1]
    material: white
    transforms:
      - scale: [2, 1, 1]
      - rotateZ: 90
      - translate: [5, 0, 0]
`

func TestNewSceneFromDescription(t *testing.T) {
	desc, err := loaders.ParseScene(strings.NewReader(transformedSceneYAML))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	s, err := NewSceneFromDescription(desc, 2.0)
	if err != nil {
		t.Fatalf("NewSceneFromDescription failed: %v", err)
	}

	if s.CameraConfig.AspectRatio != 2.0 || s.CameraConfig.Up != core.NewVec3(0, 1, 0) {
		t.Errorf("Unexpected camera config %+v", s.CameraConfig)
	}
	if s.Render.SamplesPerPixel != 8 || s.Render.Width != 0 {
		t.Errorf("Unexpected render hints %+v", s.Render)
	}
	sky, ok := s.Background.(*integrator.GradientBackground)
	if !ok || sky.Top != core.NewVec3(0, 0, 1) || sky.Bottom != core.NewVec3(1, 1, 1) {
		t.Errorf("Unexpected background %+v", s.Background)
	}

	transform, ok := s.Shapes[0].(*geometry.Transform)
	if !ok {
		t.Fatalf("Expected a transform, got %T", s.Shapes[0])
	}

	// Scale x2 along X, rotate onto Y, then move to x=5: the box spans y in [-2, 2]
	box := transform.BoundingBox()
	if !box.Min.ApproxEquals(core.NewVec3(4, -2, -1), 1e-9) || !box.Max.ApproxEquals(core.NewVec3(6, 2, 1), 1e-9) {
		t.Errorf("Unexpected transformed bounds %v", box)
	}

	hit, isHit := s.GetWorld().Hit(core.NewRay(core.NewVec3(5, 10, 0), core.NewVec3(0, -1, 0)), 0.001, math.Inf(1))
	if !isHit || math.Abs(hit.T-8) > 1e-9 {
		t.Fatalf("Expected hit on the top face at t=8, got %v %v", hit, isHit)
	}
	if !hit.Normal.ApproxEquals(core.NewVec3(0, 1, 0), 1e-9) {
		t.Errorf("Expected normal (0,1,0), got %v", hit.Normal)
	}
}

func TestNewSceneFromDescription_InvalidCamera(t *testing.T) {
	desc, err := loaders.ParseScene(strings.NewReader(`camera: {center: [0, 0, 0], lookAt: [0, 5, 0], vfov: 60}`))
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	if _, err := NewSceneFromDescription(desc, 1); err == nil {
		t.Error("Expected error when up is parallel to the view direction")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeSceneFile(t, dir, "box.yaml", transformedSceneYAML)

	fromFile, err := Load("default", path, 1)
	if err != nil {
		t.Fatalf("Load from file failed: %v", err)
	}
	if len(fromFile.Shapes) != 1 {
		t.Errorf("Expected the file scene, got %d shapes", len(fromFile.Shapes))
	}

	builtin, err := Load("ground", "", 1)
	if err != nil {
		t.Fatalf("Load built-in failed: %v", err)
	}
	if len(builtin.Shapes) != 2 {
		t.Errorf("Expected the ground scene, got %d shapes", len(builtin.Shapes))
	}

	if _, err := Load("", filepath.Join(dir, "missing.yaml"), 1); err == nil {
		t.Error("Expected error for a missing scene file")
	}
}

func TestRenderGroundScene(t *testing.T) {
	s := NewGroundScene(2.0)
	cfg := renderer.Config{Width: 40, Height: 20, SamplesPerPixel: 2, MaxDepth: 4, Threads: 3, Partition: renderer.PartitionTiles}

	fb, stats, err := renderer.Render(context.Background(), s, cfg, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if stats.TotalPixels != 800 {
		t.Errorf("Expected 800 pixels, got %d", stats.TotalPixels)
	}
	if fb.Bounds().Dx() != 40 || fb.Bounds().Dy() != 20 {
		t.Errorf("Unexpected buffer bounds %v", fb.Bounds())
	}
}
