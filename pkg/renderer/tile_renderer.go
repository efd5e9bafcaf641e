package renderer

import (
	"context"

	"github.com/df07/go-tiled-raytracer/pkg/core"
	"github.com/df07/go-tiled-raytracer/pkg/integrator"
)

// TileRenderer renders individual partitions using an integrator.
// It holds no mutable state, so one instance serves every worker.
type TileRenderer struct {
	world      core.Shape
	camera     *Camera
	integrator integrator.Integrator
	config     Config
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator
func NewTileRenderer(scene Scene, integratorInst integrator.Integrator, config Config) *TileRenderer {
	return &TileRenderer{
		world:      scene.GetWorld(),
		camera:     scene.GetCamera(),
		integrator: integratorInst,
		config:     config,
	}
}

// RenderPartition renders every pixel within the partition bounds into fb.
// Only pixels inside the bounds are written. The context is checked between rows.
func (tr *TileRenderer) RenderPartition(ctx context.Context, partition Partition, fb *FrameBuffer, sampler core.Sampler) (RenderStats, error) {
	bounds := partition.Bounds
	stats := RenderStats{}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := QuantizeColor(tr.samplePixel(x, y, sampler))
			fb.SetRGB(x, y, r, g, b)
		}
		stats.TotalPixels += bounds.Dx()
		stats.TotalSamples += bounds.Dx() * tr.config.SamplesPerPixel
	}

	return stats, nil
}

// samplePixel averages SamplesPerPixel jittered samples for pixel (x, y)
func (tr *TileRenderer) samplePixel(x, y int, sampler core.Sampler) core.Vec3 {
	width := float64(tr.config.Width)
	height := float64(tr.config.Height)

	colorAccum := core.Vec3{}
	for sample := 0; sample < tr.config.SamplesPerPixel; sample++ {
		jitter := sampler.Get2D()
		s := (float64(x) + jitter.X) / width
		// Row 0 is the top of the image, where t = 1
		t := 1.0 - (float64(y)+jitter.Y)/height

		ray := tr.camera.GetRay(s, t, sampler)
		colorAccum = colorAccum.Add(tr.integrator.RayColor(ray, tr.world, tr.config.MaxDepth, sampler))
	}

	return colorAccum.Multiply(1.0 / float64(tr.config.SamplesPerPixel))
}
