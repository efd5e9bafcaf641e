package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// Vector is a 3-component value written as a YAML sequence, e.g. [0, 1, 0]
type Vector core.Vec3

// UnmarshalYAML implements yaml.Unmarshaler
func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	var values []float64
	if err := node.Decode(&values); err != nil {
		return fmt.Errorf("line %d: vector must be a list of numbers: %w", node.Line, err)
	}
	if len(values) != 3 {
		return fmt.Errorf("line %d: vector needs 3 values, got %d", node.Line, len(values))
	}
	*v = Vector{X: values[0], Y: values[1], Z: values[2]}
	return nil
}

// Vec3 converts to the core vector type
func (v Vector) Vec3() core.Vec3 {
	return core.Vec3(v)
}

// SceneFile is the parsed form of a YAML scene description
type SceneFile struct {
	Camera     CameraDesc              `yaml:"camera"`
	Background BackgroundDesc          `yaml:"background"`
	Render     RenderDesc              `yaml:"render"`
	Materials  map[string]MaterialDesc `yaml:"materials"`
	Shapes     []ShapeDesc             `yaml:"shapes"`
}

// CameraDesc describes the camera. Aspect ratio comes from the output image.
type CameraDesc struct {
	Center        Vector  `yaml:"center"`
	LookAt        Vector  `yaml:"lookAt"`
	Up            *Vector `yaml:"up"` // Defaults to +Y
	VFov          float64 `yaml:"vfov"`
	Aperture      float64 `yaml:"aperture"`
	FocusDistance float64 `yaml:"focusDistance"`
}

// BackgroundDesc describes what escaping rays see
type BackgroundDesc struct {
	Type   string  `yaml:"type"` // "gradient" (default) or "solid"
	Top    *Vector `yaml:"top"`
	Bottom *Vector `yaml:"bottom"`
	Color  *Vector `yaml:"color"`
}

// RenderDesc holds optional render settings; zero means "use the caller's value"
type RenderDesc struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Samples int `yaml:"samples"`
	Depth   int `yaml:"depth"`
}

// MaterialDesc describes one named material
type MaterialDesc struct {
	Type     string  `yaml:"type"` // lambertian, metal, dielectric, emissive
	Albedo   *Vector `yaml:"albedo"`
	Fuzz     float64 `yaml:"fuzz"`
	IOR      float64 `yaml:"ior"`
	Emission *Vector `yaml:"emission"`
}

// ShapeDesc describes one shape and the transforms applied to it, in order
type ShapeDesc struct {
	Type       string          `yaml:"type"` // sphere, quad, box
	Material   string          `yaml:"material"`
	Center     *Vector         `yaml:"center"`
	Radius     float64         `yaml:"radius"`
	Corner     *Vector         `yaml:"corner"`
	U          *Vector         `yaml:"u"`
	V          *Vector         `yaml:"v"`
	Min        *Vector         `yaml:"min"`
	Max        *Vector         `yaml:"max"`
	Transforms []TransformDesc `yaml:"transforms"`
}

// TransformDesc is a single transform step; exactly one field must be set
type TransformDesc struct {
	Translate *Vector  `yaml:"translate"`
	Scale     *Vector  `yaml:"scale"`
	RotateX   *float64 `yaml:"rotateX"`
	RotateY   *float64 `yaml:"rotateY"`
	RotateZ   *float64 `yaml:"rotateZ"`
}

// ParseScene parses and validates a YAML scene from an io.Reader.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func ParseScene(reader io.Reader) (*SceneFile, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var scene SceneFile
	if err := decoder.Decode(&scene); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("scene file is empty")
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return &scene, nil
}

// LoadScene loads a YAML scene from a file
func LoadScene(filename string) (*SceneFile, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	scene, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return scene, nil
}

// Validate checks the description for missing fields and dangling references
func (s *SceneFile) Validate() error {
	if s.Camera.VFov <= 0 || s.Camera.VFov >= 180 {
		return fmt.Errorf("camera: vfov must be in (0, 180), got %g", s.Camera.VFov)
	}
	if s.Camera.Center == s.Camera.LookAt {
		return fmt.Errorf("camera: center and lookAt must differ")
	}

	switch s.Background.Type {
	case "", "gradient":
	case "solid":
		if s.Background.Color == nil {
			return fmt.Errorf("background: solid background needs a color")
		}
	default:
		return fmt.Errorf("background: unknown type %q", s.Background.Type)
	}

	if s.Render.Width < 0 || s.Render.Height < 0 || s.Render.Samples < 0 || s.Render.Depth < 0 {
		return fmt.Errorf("render: values must not be negative")
	}

	for name, mat := range s.Materials {
		if err := mat.validate(); err != nil {
			return fmt.Errorf("material %q: %w", name, err)
		}
	}

	for i, shape := range s.Shapes {
		if err := shape.validate(); err != nil {
			return fmt.Errorf("shape %d (%s): %w", i, shape.Type, err)
		}
		if _, ok := s.Materials[shape.Material]; !ok {
			return fmt.Errorf("shape %d (%s): unknown material %q", i, shape.Type, shape.Material)
		}
	}
	return nil
}

func (m MaterialDesc) validate() error {
	switch m.Type {
	case "lambertian":
		if m.Albedo == nil {
			return fmt.Errorf("lambertian needs an albedo")
		}
	case "metal":
		if m.Albedo == nil {
			return fmt.Errorf("metal needs an albedo")
		}
	case "dielectric":
		if m.IOR <= 0 {
			return fmt.Errorf("dielectric needs a positive ior, got %g", m.IOR)
		}
	case "emissive":
		if m.Emission == nil {
			return fmt.Errorf("emissive needs an emission")
		}
	default:
		return fmt.Errorf("unknown type %q", m.Type)
	}
	return nil
}

func (s ShapeDesc) validate() error {
	switch s.Type {
	case "sphere":
		if s.Center == nil || s.Radius == 0 {
			return fmt.Errorf("sphere needs a center and a non-zero radius")
		}
	case "quad":
		if s.Corner == nil || s.U == nil || s.V == nil {
			return fmt.Errorf("quad needs corner, u and v")
		}
	case "box":
		if s.Min == nil || s.Max == nil {
			return fmt.Errorf("box needs min and max")
		}
	default:
		return fmt.Errorf("unknown shape type %q", s.Type)
	}

	for i, t := range s.Transforms {
		if n := t.count(); n != 1 {
			return fmt.Errorf("transform %d must set exactly one operation, got %d", i, n)
		}
		if t.Scale != nil && (t.Scale.X == 0 || t.Scale.Y == 0 || t.Scale.Z == 0) {
			return fmt.Errorf("transform %d: scale factors must be non-zero", i)
		}
	}
	return nil
}

func (t TransformDesc) count() int {
	n := 0
	if t.Translate != nil {
		n++
	}
	if t.Scale != nil {
		n++
	}
	if t.RotateX != nil {
		n++
	}
	if t.RotateY != nil {
		n++
	}
	if t.RotateZ != nil {
		n++
	}
	return n
}

// validateFilePath rejects paths that cannot be scene files
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".yaml", ".yml":
		return nil
	}
	return fmt.Errorf("invalid file type: only .yaml and .yml scene files are allowed")
}
