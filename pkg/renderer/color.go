package renderer

import (
	"math"

	"github.com/df07/go-tiled-raytracer/pkg/core"
)

// QuantizeColor converts a linear color to 8-bit channels with gamma 2 correction
func QuantizeColor(c core.Vec3) (r, g, b uint8) {
	return quantizeChannel(c.X), quantizeChannel(c.Y), quantizeChannel(c.Z)
}

// quantizeChannel applies sqrt gamma, then rounds and clamps to [0,255]. NaN maps to 0.
func quantizeChannel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	scaled := math.Floor(math.Sqrt(v)*255.0 + 0.5)
	if scaled >= 255 {
		return 255
	}
	return uint8(scaled)
}
