package renderer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
)

// Scene interface to avoid circular imports
type Scene interface {
	GetWorld() core.Shape
	GetCamera() *Camera
	GetBackground() core.Background
}

// Raytracer renders a scene by splitting the image into static partitions
// and tracing each one on its own goroutine
type Raytracer struct {
	scene      Scene
	integrator integrator.Integrator
	config     Config
	logger     core.Logger
}

// NewRaytracer creates a raytracer using the path tracing integrator.
// A nil logger discards all output.
func NewRaytracer(scene Scene, config Config, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Raytracer{
		scene:      scene,
		integrator: integrator.NewPathTracingIntegrator(scene.GetBackground()),
		config:     config,
		logger:     logger,
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integratorInst integrator.Integrator) {
	rt.integrator = integratorInst
}

// Render traces the whole image and blocks until every partition is finished.
// If any partition fails, the first error is returned and no buffer is produced.
func (rt *Raytracer) Render(ctx context.Context) (*FrameBuffer, RenderStats, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	start := time.Now()
	cfg := rt.config
	fb := NewFrameBuffer(cfg.Width, cfg.Height)
	partitions := NewPartitions(cfg.Width, cfg.Height, cfg.Threads, cfg.Partition)
	tileRenderer := NewTileRenderer(rt.scene, rt.integrator, cfg)

	rt.logger.Printf("Rendering %dx%d, %d samples/pixel, depth %d, %d %s partitions...\n",
		cfg.Width, cfg.Height, cfg.SamplesPerPixel, cfg.MaxDepth, len(partitions), cfg.Partition)

	// Each worker writes its own slot and its own region of fb
	partStats := make([]RenderStats, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	for i, partition := range partitions {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("partition %d %v panicked: %v", partition.ID, partition.Bounds, r)
				}
			}()

			sampler := core.NewSeededSampler(cfg.Seed + int64(partition.ID))
			stats, err := tileRenderer.RenderPartition(gctx, partition, fb, sampler)
			if err != nil {
				return fmt.Errorf("partition %d: %w", partition.ID, err)
			}
			partStats[i] = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		rt.logger.Printf("Render failed: %v\n", err)
		return nil, RenderStats{}, err
	}

	stats := RenderStats{Partitions: len(partitions)}
	for _, s := range partStats {
		stats.add(s)
	}
	stats.Duration = time.Since(start)

	rt.logger.Printf("Render completed in %v (%d samples)\n", stats.Duration, stats.TotalSamples)
	return fb, stats, nil
}

// Render is a convenience wrapper around NewRaytracer(...).Render
func Render(ctx context.Context, scene Scene, config Config, logger core.Logger) (*FrameBuffer, RenderStats, error) {
	return NewRaytracer(scene, config, logger).Render(ctx)
}

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) Printf(format string, args ...interface{}) {}
