package lights

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/geometry"
)

// Kind discriminates the three light variants spec.md §3 names. A tagged
// struct keeps the light list a flat, homogeneous slice rather than an
// interface slice, matching pkg/material's tagged Kind approach.
type Kind int

const (
	Point Kind = iota
	Directional
	Area
)

// Light is a point, directional, or area light source. Only the fields
// relevant to its Kind are populated.
type Light struct {
	Kind Kind

	// Point and Directional
	Color     core.Vec3
	Position  core.Vec3 // Point
	Direction core.Vec3 // Directional; normalized, points from the light

	// Area
	Shape    geometry.AreaSampler
	Emission core.Vec3 // Ke

	// NSamples is the number of shadow-ray samples estimate_direct draws
	// from this light per shaded hit; area lights inherit a scene-wide
	// samples_per_area_light unless overridden.
	NSamples int
}

// NewPointLight creates a point light at position emitting color (as
// radiant intensity; sample_Li divides by d²).
func NewPointLight(position core.Vec3, color core.Vec3) *Light {
	return &Light{Kind: Point, Position: position, Color: color, NSamples: 1}
}

// NewDirectionalLight creates a directional light shining along direction
// (normalized here) with the given radiance.
func NewDirectionalLight(direction core.Vec3, color core.Vec3) *Light {
	return &Light{Kind: Directional, Direction: direction.Normalize(), Color: color, NSamples: 1}
}

// NewAreaLight creates an area light over shape, emitting emission (Ke) from
// every point on its surface. nSamples is typically the scene's
// samples_per_area_light.
func NewAreaLight(shape geometry.AreaSampler, emission core.Vec3, nSamples int) *Light {
	if nSamples < 1 {
		nSamples = 1
	}
	return &Light{Kind: Area, Shape: shape, Emission: emission, NSamples: nSamples}
}

// Sample is the result of sample_Li: incident radiance Li arriving from
// direction Wi at distance Distance, with the solid-angle pdf PDF (0 if the
// light cannot be seen from this configuration).
type Sample struct {
	Li       core.Vec3
	Wi       core.Vec3
	PDF      float64
	Distance float64
}

// SampleLi draws an incident-radiance sample from this light as seen from
// reference point ref, per spec.md §3's per-variant formulas.
func (l *Light) SampleLi(ref core.Vec3, u core.Vec2) Sample {
	switch l.Kind {
	case Point:
		toLight := l.Position.Subtract(ref)
		d2 := toLight.LengthSquared()
		if d2 <= 0 {
			return Sample{}
		}
		d := math.Sqrt(d2)
		wi := toLight.Multiply(1.0 / d)
		return Sample{Li: l.Color.Multiply(1.0 / d2), Wi: wi, PDF: 1, Distance: d}

	case Directional:
		return Sample{Li: l.Color, Wi: l.Direction.Negate(), PDF: 1, Distance: math.Inf(1)}

	default: // Area
		point, normal, pdfArea := l.Shape.SampleArea(u)
		if pdfArea <= 0 {
			return Sample{}
		}
		toLight := point.Subtract(ref)
		d2 := toLight.LengthSquared()
		if d2 <= 0 {
			return Sample{}
		}
		d := math.Sqrt(d2)
		wi := toLight.Multiply(1.0 / d)

		cosAtLight := normal.Dot(wi.Negate())
		if cosAtLight <= 0 {
			return Sample{}
		}

		pdfOmega := pdfArea * d2 / cosAtLight
		li := l.Emission.Multiply(cosAtLight / d2)
		return Sample{Li: li, Wi: wi, PDF: pdfOmega, Distance: d}
	}
}
