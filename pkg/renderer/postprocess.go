package renderer

import (
	"math"
	"math/rand"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// GammaMode selects the curve applied after tone mapping.
type GammaMode int

const (
	// GammaSimple applies pow(c, 1/gamma).
	GammaSimple GammaMode = iota
	// GammaSRGB applies the PBRT-style piecewise sRGB transfer function,
	// ignoring the Gamma field.
	GammaSRGB
)

// Uncharted-2 filmic tonemap curve constants (spec.md §4.7).
const (
	tonemapA = 0.15
	tonemapB = 0.50
	tonemapC = 0.10
	tonemapD = 0.20
	tonemapE = 0.02
	tonemapF = 0.30
)

func uncharted2(x float64) float64 {
	return ((x*(tonemapA*x+tonemapC*tonemapB)+tonemapD*tonemapE)/(x*(tonemapA*x+tonemapB)+tonemapD*tonemapF)) - tonemapE/tonemapF
}

// ToneMap applies the Uncharted 2 filmic curve to a linear color, white-
// balanced against the curve's response at x=11.2 and pre-scaled by
// exposure.
func ToneMap(c core.Vec3, exposure float64) core.Vec3 {
	whiteScale := 1.0 / uncharted2(11.2)
	scaled := c.Multiply(exposure)
	return core.NewVec3(
		uncharted2(scaled.X)*whiteScale,
		uncharted2(scaled.Y)*whiteScale,
		uncharted2(scaled.Z)*whiteScale,
	)
}

func gammaComponent(x float64, mode GammaMode, gamma float64) float64 {
	if mode == GammaSRGB {
		if x <= 0.0031308 {
			return 12.92 * x
		}
		return 1.055*math.Pow(x, 1.0/2.4) - 0.055
	}
	if x < 0 {
		return 0
	}
	return math.Pow(x, 1.0/gamma)
}

// GammaCorrect applies gamma or sRGB encoding, adds 1/512 dithering (via
// rng, which callers should seed deterministically per pixel for
// reproducible output), and clamps to [0,1].
func GammaCorrect(c core.Vec3, mode GammaMode, gamma float64, rng *rand.Rand) core.Vec3 {
	const ditherScale = 1.0 / 512.0

	dither := func(x float64) float64 {
		x = gammaComponent(x, mode, gamma)
		x += (rng.Float64() - 0.5) * ditherScale
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		return x
	}

	return core.NewVec3(dither(c.X), dither(c.Y), dither(c.Z))
}
