package material

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// ColorSource provides a spatially-varying color, sampled at a hit's texture
// coordinates. Materials multiply it into their base albedo.
type ColorSource interface {
	Evaluate(uv core.Vec2) core.Vec3
}

// SolidColor is a ColorSource that ignores uv and always returns the same color.
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor wraps a constant color as a ColorSource.
func NewSolidColor(c core.Vec3) *SolidColor {
	return &SolidColor{Color: c}
}

// Evaluate implements ColorSource.
func (s *SolidColor) Evaluate(uv core.Vec2) core.Vec3 {
	return s.Color
}

// ImageTexture samples a loaded image with bilinear filtering. UV wrapping is
// repeat (frac(u), frac(v)); spec.md §4.4 leaves the exact wrapping policy to
// the implementer since no test depends on it.
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // row-major, Pixels[y*Width+x], origin at top-left
}

// NewImageTexture wraps decoded pixel data as a ColorSource.
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{Width: width, Height: height, Pixels: pixels}
}

func wrapUnit(x float64) float64 {
	f := x - float64(int64(x))
	if f < 0 {
		f++
	}
	return f
}

func (t *ImageTexture) at(x, y int) core.Vec3 {
	if x < 0 {
		x = 0
	} else if x >= t.Width {
		x = t.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	return t.Pixels[y*t.Width+x]
}

// Evaluate bilinearly samples the texture at (u,v), with v=0 at the bottom
// of the image (texture-space convention) and v=1 at the top.
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}
	u := wrapUnit(uv.X)
	v := wrapUnit(uv.Y)

	fx := u*float64(t.Width) - 0.5
	fy := (1.0-v)*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := x0 + 1
	y1 := y0 + 1

	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := t.at(x0, y0)
	c10 := t.at(x1, y0)
	c01 := t.at(x0, y1)
	c11 := t.at(x1, y1)

	top := c00.Lerp(c10, tx)
	bottom := c01.Lerp(c11, tx)
	return top.Lerp(bottom, ty)
}
