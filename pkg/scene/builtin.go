package scene

import (
	"fmt"
	"slices"
)

// Builder creates a scene for images with the given aspect ratio
type Builder func(aspectRatio float64) *Scene

type builtinScene struct {
	displayName string
	description string
	build       Builder
}

var builtins = map[string]builtinScene{
	"default": {
		displayName: "Default Scene",
		description: "Metal, glass and diffuse spheres on a ground plane under a sky",
		build:       NewDefaultScene,
	},
	"ground": {
		displayName: "Ground",
		description: "A single diffuse sphere resting on a large ground sphere",
		build:       NewGroundScene,
	},
	"cornell": {
		displayName: "Cornell Box",
		description: "Cornell box with two rotated boxes and a ceiling light",
		build:       NewCornellScene,
	},
	"sphere-grid": {
		displayName: "Sphere Grid",
		description: "20x20 grid of rainbow-colored metallic spheres",
		build:       NewSphereGridScene,
	},
}

// Names returns the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Create builds the named built-in scene
func Create(name string, aspectRatio float64) (*Scene, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
	if aspectRatio <= 0 {
		return nil, fmt.Errorf("aspect ratio must be positive, got %g", aspectRatio)
	}
	return b.build(aspectRatio), nil
}

// Load creates a scene from a YAML file when path is set, otherwise the named built-in
func Load(name, path string, aspectRatio float64) (*Scene, error) {
	if path != "" {
		return NewFileScene(path, aspectRatio)
	}
	return Create(name, aspectRatio)
}
