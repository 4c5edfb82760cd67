package geometry

import (
	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// Shape is anything a ray can hit: the BVH leaves and the brute-force
// reference path both operate purely through this interface.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	HitAny(ray core.Ray, tMin, tMax float64) bool
	BoundingBox() core.AABB
}

// HitRecord describes a ray-shape intersection: where it happened, the
// shading frame there, and what material governs scattering.
type HitRecord struct {
	Point     core.Vec3
	Normal    core.Vec3 // shading normal (interpolated on smooth triangles), oriented against the incoming ray
	Tangent   core.Vec3
	Bitangent core.Vec3
	UV        core.Vec2
	T         float64
	FrontFace bool
	Material  *material.Material
}

// SetFaceNormal orients outwardNormal against the ray direction and records
// whether the ray struck the front (outward-facing) side.
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
	h.Tangent, h.Bitangent = core.OrthonormalBasis(h.Normal)
}

// SetSmoothFaceNormal orients outwardNormal (already barycentrically
// interpolated from per-vertex normals) against the ray, then derives the
// tangent frame by Gram-Schmidt orthonormalizing tangentHint against it:
// T ← normalize(T − (T·N)N), B ← N×T. This replaces SetFaceNormal's
// arbitrary OrthonormalBasis for shapes that actually have a meaningful
// tangent direction (a mesh edge) to orthonormalize against.
func (h *HitRecord) SetSmoothFaceNormal(ray core.Ray, outwardNormal, tangentHint core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}

	t := tangentHint.Subtract(h.Normal.Multiply(tangentHint.Dot(h.Normal)))
	if t.LengthSquared() < 1e-16 {
		h.Tangent, h.Bitangent = core.OrthonormalBasis(h.Normal)
		return
	}
	h.Tangent = t.Normalize()
	h.Bitangent = h.Normal.Cross(h.Tangent)
}

// BRDF derives the BRDF at this hit's shading frame and texture coordinates.
func (h *HitRecord) BRDF() material.BRDF {
	return h.Material.ComputeBRDF(h.UV, h.Tangent, h.Bitangent, h.Normal)
}
