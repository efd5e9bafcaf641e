package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-tiled-raytracer/pkg/scene"
)

const boxSceneYAML = `# Scene: Red Box
# Group: Tests
camera:
  center: [0, 0, 5]
  lookAt: [0, 0, 0]
  vfov: 40
render:
  samples: 3
materials:
  red: {type: lambertian, albedo: [0.8, 0.1, 0.1]}
shapes:
  - type: box
    min: [-1, -1, -1]
    max: [1, 1, 1]
    material: red
    transforms:
      - rotateY: 30
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "red-box.yaml"), []byte(boxSceneYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewServer(0, dir)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleScenes(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response scene.ScenesResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(response.Groups) != 2 {
		t.Fatalf("Expected built-in and Tests groups, got %+v", response.Groups)
	}
	if len(response.Groups[0].Scenes) != len(scene.Names()) {
		t.Errorf("Expected %d built-in scenes, got %d", len(scene.Names()), len(response.Groups[0].Scenes))
	}
	if got := response.Groups[1].Scenes[0].ID; got != "file:red-box" {
		t.Errorf("Expected file scene ID file:red-box, got %q", got)
	}
}

func TestHandleRender_PNG(t *testing.T) {
	s := newTestServer(t)
	for _, sceneID := range []string{"ground", "file:red-box"} {
		t.Run(sceneID, func(t *testing.T) {
			rec := get(t, s, "/api/render?scene="+sceneID+"&width=24&height=16&samples=2&depth=3&threads=3&partition=tiles")
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Expected image/png, got %q", ct)
			}
			if got := rec.Header().Get("X-Render-Samples"); got != "768" {
				t.Errorf("Expected 768 samples, got %q", got)
			}

			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("Response is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
				t.Errorf("Unexpected image bounds %v", b)
			}
		})
	}
}

func TestHandleRender_SceneHintsAndFormat(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/render?scene=file:red-box&width=8&height=8&format=ppm")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/x-portable-pixmap" {
		t.Errorf("Unexpected content type %q", ct)
	}
	// The scene file asks for 3 samples per pixel
	if got := rec.Header().Get("X-Render-Samples"); got != "192" {
		t.Errorf("Expected 192 samples, got %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("P6\n8 8\n255\n")) {
		t.Errorf("Expected a binary PPM body")
	}
}

func TestHandleRender_BadRequests(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name  string
		query string
	}{
		{"unknown scene", "scene=teapot"},
		{"unlisted file", "scene=file:../secrets"},
		{"width too large", "width=5000"},
		{"bad samples", "samples=lots"},
		{"bad seed", "seed=x"},
		{"bad partition", "partition=diagonal&width=8&height=8"},
		{"bad format", "format=gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/render?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRenderStream(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/render/stream?scene=ground&width=10&height=6&samples=1&depth=2&threads=2")
	body := rec.Body.String()

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected SSE content type, got %q", ct)
	}
	if !strings.Contains(body, "event: console\n") {
		t.Errorf("Expected console events in stream:\n%s", body)
	}

	idx := strings.Index(body, "event: complete\ndata: ")
	if idx < 0 {
		t.Fatalf("Expected complete event in stream:\n%s", body)
	}
	data := body[idx+len("event: complete\ndata: "):]
	data = data[:strings.Index(data, "\n")]

	var event CompleteEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		t.Fatalf("Invalid complete event: %v", err)
	}
	if event.Stats.TotalPixels != 60 || event.Stats.Partitions != 2 {
		t.Errorf("Unexpected stats %+v", event.Stats)
	}
	pngData, err := base64.StdEncoding.DecodeString(event.ImageData)
	if err != nil {
		t.Fatalf("Invalid base64 image: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(pngData)); err != nil {
		t.Errorf("Invalid PNG in complete event: %v", err)
	}
}

func TestHandleRenderStream_InvalidRequest(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/render/stream?scene=teapot")
	if !strings.Contains(rec.Body.String(), "event: error\n") {
		t.Errorf("Expected error event, got %q", rec.Body.String())
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name         string
		query        string
		hit          bool
		materialType string
		geometryType string
	}{
		{"ground scene sphere", "scene=ground&width=40&height=40&x=20&y=20", true, "lambertian", "sphere"},
		{"ground scene sky", "scene=ground&width=40&height=40&x=20&y=0", false, "", ""},
		{"transformed box", "scene=file:red-box&width=40&height=40&x=20&y=20", true, "lambertian", "transform"},
		{"cornell light", "scene=cornell&width=100&height=100&x=50&y=15", true, "emissive", "quad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/inspect?"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var response InspectResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if response.Hit != tt.hit {
				t.Fatalf("Hit = %v, want %v", response.Hit, tt.hit)
			}
			if response.MaterialType != tt.materialType || response.GeometryType != tt.geometryType {
				t.Errorf("Got %s/%s, want %s/%s", response.MaterialType, response.GeometryType, tt.materialType, tt.geometryType)
			}
		})
	}
}

func TestHandleInspect_BadCoordinates(t *testing.T) {
	s := newTestServer(t)
	for _, query := range []string{"x=1", "x=1&y=abc", "width=10&height=10&x=10&y=0"} {
		if rec := get(t, s, "/api/inspect?"+query); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}
