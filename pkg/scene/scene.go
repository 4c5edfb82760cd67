package scene

import (
	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/geometry"
	"github.com/jpeterson/pathtracer/pkg/lights"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// EnvironmentKind discriminates the two background variants spec.md §3
// allows: a flat color, or a direction-indexed cube-map skybox.
type EnvironmentKind int

const (
	EnvironmentSolid EnvironmentKind = iota
	EnvironmentSkybox
)

// CubeFace indexes the six faces of a skybox, selected by the dominant
// component of the sampling direction.
type CubeFace int

const (
	FacePositiveX CubeFace = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

// Environment is the scene background seen by rays that escape the BVH.
type Environment struct {
	Kind  EnvironmentKind
	Color core.Vec3                   // EnvironmentSolid
	Faces [6]material.ColorSource // EnvironmentSkybox, indexed by CubeFace
}

// NewSolidEnvironment creates a flat-color background.
func NewSolidEnvironment(color core.Vec3) Environment {
	return Environment{Kind: EnvironmentSolid, Color: color}
}

// NewSkyboxEnvironment creates a cube-map background from six face textures,
// indexed by CubeFace.
func NewSkyboxEnvironment(faces [6]material.ColorSource) Environment {
	var env Environment
	env.Kind = EnvironmentSkybox
	env.Faces = faces
	return env
}

// Sample evaluates the environment in the given (not necessarily normalized)
// ray direction.
func (e Environment) Sample(direction core.Vec3) core.Vec3 {
	if e.Kind == EnvironmentSolid {
		return e.Color
	}

	d := direction.Normalize()
	ax, ay, az := abs(d.X), abs(d.Y), abs(d.Z)

	var face CubeFace
	var u, v float64
	switch {
	case ax >= ay && ax >= az:
		if d.X > 0 {
			face = FacePositiveX
			u, v = -d.Z/ax, -d.Y/ax
		} else {
			face = FaceNegativeX
			u, v = d.Z/ax, -d.Y/ax
		}
	case ay >= ax && ay >= az:
		if d.Y > 0 {
			face = FacePositiveY
			u, v = d.X/ay, d.Z/ay
		} else {
			face = FaceNegativeY
			u, v = d.X/ay, -d.Z/ay
		}
	default:
		if d.Z > 0 {
			face = FacePositiveZ
			u, v = d.X/az, -d.Y/az
		} else {
			face = FaceNegativeZ
			u, v = -d.X/az, -d.Y/az
		}
	}

	tex := e.Faces[face]
	if tex == nil {
		return core.Vec3{}
	}
	uv := core.NewVec2((u+1)*0.5, (v+1)*0.5)
	return tex.Evaluate(uv)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Scene is the fully-built, immutable render target: a camera, the
// traversal-ready BVH (which now owns the shapes in reordered form), the
// light list, the environment, resolution, and sampling knobs.
type Scene struct {
	Camera      *Camera
	BVH         *geometry.BVH
	Lights      []*lights.Light
	Environment Environment

	// AmbientColor is added unconditionally to every shaded hit, independent
	// of light sampling or visibility.
	AmbientColor core.Vec3

	Width, Height int

	MaxDepth            int
	SamplesPerPixel     []int // a sequence: the scene renders once per entry
	SamplesPerAreaLight int

	// Jitter selects sub-pixel antialiasing: true draws a random offset per
	// sample, false always samples the pixel center. Set from the scene
	// document's antialiasing field; an unrecognized value falls back to
	// false with a load-time warning (spec.md §7).
	Jitter bool

	// ToneMap selects whether the Uncharted-2 tonemap runs during
	// post-processing (spec.md §4.7: "Tone map ... (optional)"). Set from the
	// scene document's toneMap key; defaults to true when omitted.
	ToneMap bool

	OutputFile string
}

// Intersect finds the closest hit, delegating to the BVH.
func (s *Scene) Intersect(ray core.Ray, tMin, tMax float64) (*geometry.HitRecord, bool) {
	return s.BVH.Hit(ray, tMin, tMax)
}

// Occluded reports whether any shape blocks the ray within (tMin, tMax],
// for shadow-ray visibility tests.
func (s *Scene) Occluded(ray core.Ray, tMin, tMax float64) bool {
	return s.BVH.HitAny(ray, tMin, tMax)
}
