package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/df07/go-tiled-raytracer/pkg/renderer"
	"github.com/df07/go-tiled-raytracer/pkg/scene"
)

func parseRenderFlags(t *testing.T, args ...string) (*pflag.FlagSet, *renderOptions) {
	t.Helper()
	opts := &renderOptions{}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindRenderFlags(flags, opts)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("Parse(%v) failed: %v", args, err)
	}
	return flags, opts
}

func TestResolveConfig(t *testing.T) {
	hints := scene.RenderHints{Width: 640, SamplesPerPixel: 500, MaxDepth: 40}

	tests := []struct {
		name     string
		args     []string
		hints    scene.RenderHints
		expected renderer.Config
	}{
		{
			name:     "defaults",
			expected: renderer.DefaultConfig(),
		},
		{
			name:  "hints fill unset flags",
			hints: hints,
			expected: renderer.Config{
				Width: 640, Height: 300, SamplesPerPixel: 500, MaxDepth: 40,
				Threads: 4, Partition: renderer.PartitionRows,
			},
		},
		{
			name:  "explicit flags beat hints",
			args:  []string{"--width", "320", "--samples", "8", "--partition", "tiles", "--seed", "7"},
			hints: hints,
			expected: renderer.Config{
				Width: 320, Height: 300, SamplesPerPixel: 8, MaxDepth: 40,
				Threads: 4, Seed: 7, Partition: renderer.PartitionTiles,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, opts := parseRenderFlags(t, tt.args...)
			cfg, err := resolveConfig(flags, opts, tt.hints)
			if err != nil {
				t.Fatalf("resolveConfig failed: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("resolveConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestResolveConfig_Invalid(t *testing.T) {
	flags, opts := parseRenderFlags(t, "--threads", "0")
	if _, err := resolveConfig(flags, opts, scene.RenderHints{}); !errors.Is(err, renderer.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRenderCommand_BuiltinScene(t *testing.T) {
	output := filepath.Join(t.TempDir(), "ground.ppm")
	log, err := runCommand(t,
		"--scene", "ground", "--width", "16", "--height", "8",
		"--samples", "2", "--depth", "3", "--threads", "3", "--partition", "tiles",
		"--output", output)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, log)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	header := "P6\n16 8\n255\n"
	if !strings.HasPrefix(string(data), header) || len(data) != len(header)+16*8*3 {
		t.Errorf("Unexpected PPM output of %d bytes", len(data))
	}
	if !strings.Contains(log, "Render saved as "+output) {
		t.Errorf("Expected save message in log, got:\n%s", log)
	}
}

const hintedSceneYAML = `camera:
  center: [0, 0, 3]
  lookAt: [0, 0, 0]
  vfov: 45
render:
  width: 12
  height: 6
  samples: 1
  depth: 2
materials:
  red: {type: lambertian, albedo: [0.8, 0.1, 0.1]}
shapes:
  - {type: sphere, center: [0, 0, 0], radius: 1, material: red}
`

func TestRenderCommand_SceneFileHints(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "tiny.yaml")
	if err := os.WriteFile(scenePath, []byte(hintedSceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "tiny.png")

	if log, err := runCommand(t, "--scene-file", scenePath, "--output", output); err != nil {
		t.Fatalf("render failed: %v\n%s", err, log)
	}

	file, err := os.Open(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Errorf("Expected the scene's 12x6 size, got %v", b)
	}
}

func TestRenderCommand_Errors(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.png")
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"zero width", []string{"--width", "0"}, "invalid render config"},
		{"unknown scene", []string{"--scene", "teapot"}, "unknown scene"},
		{"unknown partition", []string{"--partition", "diagonal"}, "unknown partition strategy"},
		{"watch without file", []string{"--watch"}, "--watch requires --scene-file"},
		{"missing scene file", []string{"--scene-file", "missing.yaml"}, "failed to load scene file"},
		{"positional argument", []string{"extra"}, "unknown command"},
		{"unwritable output", []string{"--scene", "ground", "--width", "4", "--height", "4", "--samples", "1",
			"--output", filepath.Join(output, "nested", "out.png")}, "could not open output file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--output", output, "--width", "4", "--height", "4", "--samples", "1"}, tt.args...)
			_, err := runCommand(t, args...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Error %q does not mention %q", err, tt.message)
			}
		})
	}
}

func TestScenesCommand(t *testing.T) {
	dir := t.TempDir()
	content := "# Scene: Tiny\n# Description: One red sphere\n" + hintedSceneYAML
	if err := os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "scenes", "--dir", dir)
	if err != nil {
		t.Fatalf("scenes failed: %v", err)
	}

	for _, want := range append(scene.Names(), "Built-in Scenes:", "tiny.yaml", "One red sphere") {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in scenes output:\n%s", want, out)
		}
	}
}

func TestBundledScenesLoad(t *testing.T) {
	files, err := scene.ListSceneFiles("scenes")
	if err != nil {
		t.Fatalf("ListSceneFiles failed: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected bundled scene files")
	}
	for _, info := range files {
		t.Run(info.Name, func(t *testing.T) {
			if _, err := scene.NewFileScene(info.FilePath, 16.0/9.0); err != nil {
				t.Errorf("NewFileScene(%q) failed: %v", info.FilePath, err)
			}
		})
	}
}
