package scene

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// Camera generates primary rays from an image-plane basis precomputed once
// at construction, per spec.md §4.6.
type Camera struct {
	Position core.Vec3
	Exposure float64
	Gamma    float64

	upperLeft core.Vec3
	du, dv    core.Vec3
	width     int
	height    int
}

// NewCamera builds a camera looking from position toward lookAt, with the
// given up hint, vertical field of view (radians), and image dimensions.
func NewCamera(position, lookAt, up core.Vec3, vfov float64, width, height int, exposure, gamma float64) *Camera {
	return NewCameraAspect(position, lookAt, up, vfov, 0, width, height, exposure, gamma)
}

// NewCameraAspect is NewCamera with an explicit aspect ratio override; a
// non-positive aspectRatio derives the aspect from width/height instead,
// matching the document-less callers that only know pixel dimensions.
func NewCameraAspect(position, lookAt, up core.Vec3, vfov, aspectRatio float64, width, height int, exposure, gamma float64) *Camera {
	aspect := aspectRatio
	if aspect <= 0 {
		aspect = float64(width) / float64(height)
	}

	view := lookAt.Subtract(position).Normalize()
	right := view.Cross(up).Normalize()
	trueUp := right.Cross(view).Normalize()

	halfH := math.Tan(vfov / 2)
	halfW := halfH * aspect

	du := right.Multiply(2 * halfW / float64(width))
	dv := trueUp.Multiply(-2 * halfH / float64(height))

	upperLeft := position.Add(view).
		Add(trueUp.Multiply(halfH)).
		Subtract(right.Multiply(halfW)).
		Add(du.Multiply(0.5)).
		Add(dv.Multiply(0.5))

	if exposure <= 0 {
		exposure = 1.0
	}
	if gamma <= 0 {
		gamma = 2.2
	}

	return &Camera{
		Position:  position,
		Exposure:  exposure,
		Gamma:     gamma,
		upperLeft: upperLeft,
		du:        du,
		dv:        dv,
		width:     width,
		height:    height,
	}
}

// Ray builds a jittered primary ray through pixel (x,y), where (jx,jy) are
// sub-pixel offsets in [0,1) (0.5 for an unjittered ray through pixel
// center).
func (c *Camera) Ray(x, y int, jx, jy float64) core.Ray {
	pixelCenter := c.upperLeft.
		Add(c.du.Multiply(float64(x))).
		Add(c.dv.Multiply(float64(y)))

	p := pixelCenter.
		Add(c.du.Multiply(jx - 0.5)).
		Add(c.dv.Multiply(jy - 0.5))

	direction := p.Subtract(c.Position).Normalize()
	return core.NewRay(c.Position, direction)
}
