package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/geometry"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
	"github.com/df07/go-tiled-raytracer/pkg/loaders"
	"github.com/df07/go-tiled-raytracer/pkg/material"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// NewFileScene creates a scene from a YAML scene file
func NewFileScene(filepath string, aspectRatio float64) (*Scene, error) {
	desc, err := loaders.LoadScene(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene file: %w", err)
	}
	return NewSceneFromDescription(desc, aspectRatio)
}

// NewSceneFromDescription converts a parsed scene description into a renderable scene
func NewSceneFromDescription(desc *loaders.SceneFile, aspectRatio float64) (*Scene, error) {
	cameraConfig := convertCamera(desc.Camera, aspectRatio)
	if err := cameraConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid camera: %w", err)
	}

	s := &Scene{
		Camera:       renderer.NewCamera(cameraConfig),
		CameraConfig: cameraConfig,
		Background:   convertBackground(desc.Background),
		Render: RenderHints{
			Width:           desc.Render.Width,
			Height:          desc.Render.Height,
			SamplesPerPixel: desc.Render.Samples,
			MaxDepth:        desc.Render.Depth,
		},
	}

	// Convert all materials first
	materials := make(map[string]core.Material, len(desc.Materials))
	for name, matDesc := range desc.Materials {
		materials[name] = convertMaterial(matDesc)
	}

	for i, shapeDesc := range desc.Shapes {
		shape, err := convertShape(shapeDesc, materials[shapeDesc.Material])
		if err != nil {
			return nil, fmt.Errorf("failed to convert shape %d: %w", i, err)
		}
		s.Shapes = append(s.Shapes, shape)
	}

	s.Preprocess()
	return s, nil
}

// convertCamera fills camera defaults; the aspect ratio always follows the image
func convertCamera(desc loaders.CameraDesc, aspectRatio float64) renderer.CameraConfig {
	up := core.NewVec3(0, 1, 0)
	if desc.Up != nil {
		up = desc.Up.Vec3()
	}
	return renderer.CameraConfig{
		Center:        desc.Center.Vec3(),
		LookAt:        desc.LookAt.Vec3(),
		Up:            up,
		VFov:          desc.VFov,
		AspectRatio:   aspectRatio,
		Aperture:      desc.Aperture,
		FocusDistance: desc.FocusDistance,
	}
}

func convertBackground(desc loaders.BackgroundDesc) core.Background {
	if desc.Type == "solid" {
		return integrator.NewSolidBackground(desc.Color.Vec3())
	}

	sky := integrator.NewSkyBackground()
	if desc.Top != nil {
		sky.Top = desc.Top.Vec3()
	}
	if desc.Bottom != nil {
		sky.Bottom = desc.Bottom.Vec3()
	}
	return sky
}

// convertMaterial assumes the description has been validated
func convertMaterial(desc loaders.MaterialDesc) core.Material {
	switch desc.Type {
	case "metal":
		return material.NewMetal(desc.Albedo.Vec3(), desc.Fuzz)
	case "dielectric":
		return material.NewDielectric(desc.IOR)
	case "emissive":
		return material.NewEmissive(desc.Emission.Vec3())
	default:
		return material.NewLambertian(desc.Albedo.Vec3())
	}
}

func convertShape(desc loaders.ShapeDesc, mat core.Material) (core.Shape, error) {
	var shape core.Shape
	switch desc.Type {
	case "sphere":
		shape = geometry.NewSphere(desc.Center.Vec3(), desc.Radius, mat)
	case "quad":
		shape = geometry.NewQuad(desc.Corner.Vec3(), desc.U.Vec3(), desc.V.Vec3(), mat)
	case "box":
		shape = geometry.NewBox(desc.Min.Vec3(), desc.Max.Vec3(), mat)
	default:
		return nil, fmt.Errorf("unknown shape type %q", desc.Type)
	}

	if len(desc.Transforms) == 0 {
		return shape, nil
	}

	// Steps apply in file order, so each one multiplies on the left
	var transform *geometry.Transform
	for i, step := range desc.Transforms {
		m := transformMatrix(step)
		var err error
		if transform == nil {
			transform, err = geometry.NewTransform(shape, m)
		} else {
			transform, err = transform.Then(m)
		}
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
	}
	return transform, nil
}

func transformMatrix(step loaders.TransformDesc) mgl64.Mat4 {
	switch {
	case step.Translate != nil:
		return mgl64.Translate3D(step.Translate.X, step.Translate.Y, step.Translate.Z)
	case step.Scale != nil:
		return mgl64.Scale3D(step.Scale.X, step.Scale.Y, step.Scale.Z)
	case step.RotateX != nil:
		return mgl64.HomogRotate3DX(mgl64.DegToRad(*step.RotateX))
	case step.RotateY != nil:
		return mgl64.HomogRotate3DY(mgl64.DegToRad(*step.RotateY))
	case step.RotateZ != nil:
		return mgl64.HomogRotate3DZ(mgl64.DegToRad(*step.RotateZ))
	}
	return mgl64.Ident4()
}
