package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/df07/go-tiled-raytracer/pkg/renderer"
	"github.com/df07/go-tiled-raytracer/pkg/scene"
)

// Server handles web requests for the raytracer
type Server struct {
	port     int
	sceneDir string
	mux      *http.ServeMux
	renders  atomic.Int64 // Render counter for log prefixes
}

// NewServer creates a web server that also offers the YAML scenes in sceneDir
func NewServer(port int, sceneDir string) *Server {
	s := &Server{
		port:     port,
		sceneDir: sceneDir,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/render/stream", s.handleRenderStream)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	return s
}

// Handler returns the HTTP handler serving every endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene     string `json:"scene"`     // Built-in name or scene file ID ("file:<name>")
	Width     int    `json:"width"`     // Image width
	Height    int    `json:"height"`    // Image height
	Samples   int    `json:"samples"`   // Samples per pixel
	Depth     int    `json:"depth"`     // Maximum bounce depth
	Threads   int    `json:"threads"`   // Parallel partitions
	Seed      int64  `json:"seed"`      // Base random seed
	Partition string `json:"partition"` // "rows" or "tiles"
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	Partitions     int     `json:"partitions"`
	DurationMs     int64   `json:"durationMs"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   stats.TotalSamples,
		AverageSamples: stats.AverageSamples(),
		Partitions:     stats.Partitions,
		DurationMs:     stats.Duration.Milliseconds(),
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files, grouped for display
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	response, err := scene.ListAllScenes(s.sceneDir)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// parseRenderRequest parses the scene and size parameters and builds the scene.
// Scene render hints become the defaults for samples and depth.
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, *scene.Scene, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 1, 2000); err != nil {
		return nil, nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 300, 1, 2000); err != nil {
		return nil, nil, err
	}

	sceneObj, err := s.createScene(req.Scene, float64(req.Width)/float64(req.Height))
	if err != nil {
		return nil, nil, err
	}

	defaultSamples, defaultDepth := 50, 10
	if sceneObj.Render.SamplesPerPixel > 0 {
		defaultSamples = sceneObj.Render.SamplesPerPixel
	}
	if sceneObj.Render.MaxDepth > 0 {
		defaultDepth = sceneObj.Render.MaxDepth
	}

	if req.Samples, err = parseIntParam(query, "samples", defaultSamples, 1, 10000); err != nil {
		return nil, nil, err
	}
	if req.Depth, err = parseIntParam(query, "depth", defaultDepth, 1, 1000); err != nil {
		return nil, nil, err
	}
	if req.Threads, err = parseIntParam(query, "threads", runtime.NumCPU(), 1, 256); err != nil {
		return nil, nil, err
	}
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, nil, fmt.Errorf("invalid seed: %s", value)
		}
	}
	req.Partition = query.Get("partition")

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Samples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, sceneObj, nil
}

// config converts the request into a validated renderer config
func (req *RenderRequest) config() (renderer.Config, error) {
	partition, err := renderer.ParsePartitionStrategy(req.Partition)
	if err != nil {
		return renderer.Config{}, err
	}
	cfg := renderer.Config{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.Depth,
		Threads:         req.Threads,
		Seed:            req.Seed,
		Partition:       partition,
	}
	return cfg, cfg.Validate()
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds a built-in scene, or a scene file listed in the scene directory.
// File scenes are only reachable through their discovered ID.
func (s *Server) createScene(id string, aspectRatio float64) (*scene.Scene, error) {
	if !strings.HasPrefix(id, "file:") {
		return scene.Create(id, aspectRatio)
	}

	files, err := scene.ListSceneFiles(s.sceneDir)
	if err != nil {
		return nil, err
	}
	for _, info := range files {
		if info.ID == id {
			return scene.NewFileScene(info.FilePath, aspectRatio)
		}
	}
	return nil, fmt.Errorf("unknown scene %q", id)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
