package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/df07/go-tiled-raytracer/pkg/imageio"
	"github.com/df07/go-tiled-raytracer/pkg/renderer"
)

// contentTypes maps the formats served by /api/render to MIME types
var contentTypes = map[imageio.Format]string{
	imageio.FormatPNG:  "image/png",
	imageio.FormatBMP:  "image/bmp",
	imageio.FormatTIFF: "image/tiff",
	imageio.FormatPPM:  "image/x-portable-pixmap",
}

// CompleteEvent is the final SSE event of a streamed render
type CompleteEvent struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Stats     Stats  `json:"stats"`
}

// handleRender renders the requested scene and returns the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	format := imageio.FormatPNG
	if value := r.URL.Query().Get("format"); value != "" {
		format = imageio.Format(value)
	}
	contentType, ok := contentTypes[format]
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format: %s", format))
		return
	}

	req, cfg, err := s.prepareRender(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := s.nextRenderID()
	fb, stats, err := renderer.Render(r.Context(), req.scene, cfg, NewWebLogger(renderID, nil))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return // Client went away
		}
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Render error: %v", err))
		return
	}

	// Encode first so a failure can still produce an error status
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, fb, format); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Encode error: %v", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleRenderStream renders the requested scene and streams log lines via SSE,
// finishing with a complete event carrying the PNG
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	s.setSSEHeaders(w)

	req, cfg, err := s.prepareRender(r)
	if err != nil {
		s.sendSSEEvent(w, flusher, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	type renderResult struct {
		fb    *renderer.FrameBuffer
		stats renderer.RenderStats
		err   error
	}

	ctx := r.Context()
	consoleChan := make(chan ConsoleMessage, 100)
	done := make(chan renderResult, 1)
	logger := NewWebLogger(s.nextRenderID(), consoleChan)
	go func() {
		fb, stats, err := renderer.Render(ctx, req.scene, cfg, logger)
		done <- renderResult{fb, stats, err}
	}()

	// This goroutine is the only writer to w
	for {
		select {
		case msg := <-consoleChan:
			s.sendSSEJSON(w, flusher, "console", msg)

		case result := <-done:
			for drained := false; !drained; {
				select {
				case msg := <-consoleChan:
					s.sendSSEJSON(w, flusher, "console", msg)
				default:
					drained = true
				}
			}

			if result.err != nil {
				s.sendSSEEvent(w, flusher, "error", fmt.Sprintf("Render error: %v", result.err))
				return
			}
			imageData, err := imageToBase64PNG(result.fb)
			if err != nil {
				s.sendSSEEvent(w, flusher, "error", fmt.Sprintf("failed to encode image: %v", err))
				return
			}
			s.sendSSEJSON(w, flusher, "complete", CompleteEvent{
				ImageData: imageData,
				Width:     cfg.Width,
				Height:    cfg.Height,
				Stats:     newStats(result.stats),
			})
			return
		}
	}
}

// preparedRender is a parsed request with its scene
type preparedRender struct {
	*RenderRequest
	scene renderer.Scene
}

func (s *Server) prepareRender(r *http.Request) (preparedRender, renderer.Config, error) {
	req, sceneObj, err := s.parseRenderRequest(r)
	if err != nil {
		return preparedRender{}, renderer.Config{}, err
	}
	cfg, err := req.config()
	if err != nil {
		return preparedRender{}, renderer.Config{}, err
	}
	return preparedRender{RenderRequest: req, scene: sceneObj}, cfg, nil
}

func (s *Server) nextRenderID() string {
	return fmt.Sprintf("render-%d", s.renders.Add(1))
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, img, imageio.FormatPNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendSSEJSON sends data as a JSON-encoded SSE event
func (s *Server) sendSSEJSON(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	encoded, err := json.Marshal(data)
	if err != nil {
		s.sendSSEEvent(w, flusher, "error", err.Error())
		return
	}
	s.sendSSEEvent(w, flusher, event, string(encoded))
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
