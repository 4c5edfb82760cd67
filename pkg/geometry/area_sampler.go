package geometry

import "github.com/jpeterson/pathtracer/pkg/core"

// AreaSampler is implemented by shapes that can be used as area lights:
// Sphere and Triangle support sampling a point and outward normal uniformly
// over their surface, with the pdf expressed w.r.t. area (spec.md §4.3's
// sample_area formulas).
type AreaSampler interface {
	SampleArea(u core.Vec2) (point, normal core.Vec3, pdfArea float64)
	Area() float64
}
