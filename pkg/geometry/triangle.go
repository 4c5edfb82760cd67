package geometry

import (
	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// Triangle is a single triangle with optional per-vertex UVs and normals,
// per spec.md §4.1's Möller-Trumbore ray-triangle test and §4.3's
// barycentrically-interpolated shading data.
type Triangle struct {
	V0, V1, V2    core.Vec3
	UV0, UV1, UV2 core.Vec2
	hasUVs        bool
	N0, N1, N2    core.Vec3
	hasNormals    bool
	Material      *material.Material

	normal core.Vec3
	bbox   core.AABB
}

// NewTriangle creates a triangle, deriving its normal from vertex winding
// and using barycentric coordinates directly as UV. Shading uses this flat
// geometric normal, since no per-vertex normals are supplied.
func NewTriangle(v0, v1, v2 core.Vec3, mat *material.Material) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, Material: mat}
	t.computeNormal()
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)
	return t
}

// NewTriangleWithUVs creates a triangle with explicit per-vertex UVs,
// interpolated at hit time by barycentric weight.
func NewTriangleWithUVs(v0, v1, v2 core.Vec3, uv0, uv1, uv2 core.Vec2, mat *material.Material) *Triangle {
	t := NewTriangle(v0, v1, v2, mat)
	t.UV0, t.UV1, t.UV2 = uv0, uv1, uv2
	t.hasUVs = true
	return t
}

// NewTriangleWithNormals creates a triangle with explicit per-vertex
// normals, barycentrically interpolated at hit time for smooth shading
// instead of the flat geometric normal.
func NewTriangleWithNormals(v0, v1, v2, n0, n1, n2 core.Vec3, mat *material.Material) *Triangle {
	t := NewTriangle(v0, v1, v2, mat)
	t.N0, t.N1, t.N2 = n0, n1, n2
	t.hasNormals = true
	return t
}

// NewTriangleWithUVsAndNormals combines NewTriangleWithUVs and
// NewTriangleWithNormals for a mesh that supplies both.
func NewTriangleWithUVsAndNormals(v0, v1, v2 core.Vec3, uv0, uv1, uv2 core.Vec2, n0, n1, n2 core.Vec3, mat *material.Material) *Triangle {
	t := NewTriangleWithUVs(v0, v1, v2, uv0, uv1, uv2, mat)
	t.N0, t.N1, t.N2 = n0, n1, n2
	t.hasNormals = true
	return t
}

func (t *Triangle) computeNormal() {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	t.normal = edge1.Cross(edge2).Normalize()
}

func (t *Triangle) intersect(ray core.Ray, tMin, tMax float64) (tHit, u, v float64, ok bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u = f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	tHit = f * edge2.Dot(q)
	if tHit < tMin || tHit > tMax {
		return 0, 0, 0, false
	}
	return tHit, u, v, true
}

// Hit implements Shape.
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	tHit, u, v, ok := t.intersect(ray, tMin, tMax)
	if !ok {
		return nil, false
	}

	var uv core.Vec2
	if t.hasUVs {
		w := 1.0 - u - v
		uv = core.NewVec2(
			w*t.UV0.X+u*t.UV1.X+v*t.UV2.X,
			w*t.UV0.Y+u*t.UV1.Y+v*t.UV2.Y,
		)
	} else {
		uv = core.NewVec2(u, v)
	}

	hit := &HitRecord{T: tHit, Point: ray.At(tHit), Material: t.Material, UV: uv}

	if t.hasNormals {
		w := 1.0 - u - v
		shading := t.N0.Multiply(w).Add(t.N1.Multiply(u)).Add(t.N2.Multiply(v))
		if shading.LengthSquared() > 0 {
			shading = shading.Normalize()
		} else {
			shading = t.normal
		}
		hit.SetSmoothFaceNormal(ray, shading, t.V1.Subtract(t.V0))
	} else {
		hit.SetFaceNormal(ray, t.normal)
	}

	return hit, true
}

// HitAny implements Shape with an existence-only query for shadow rays.
func (t *Triangle) HitAny(ray core.Ray, tMin, tMax float64) bool {
	_, _, _, ok := t.intersect(ray, tMin, tMax)
	return ok
}

// BoundingBox implements Shape.
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the triangle's geometric normal.
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Area returns the triangle's surface area (half the cross product magnitude).
func (t *Triangle) Area() float64 {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)
	return 0.5 * edge1.Cross(edge2).Length()
}

// SampleArea draws a point uniformly over the triangle's area, per spec.md
// §4.3's barycentric sampling formula, with the pdf w.r.t. area (1/Area).
func (t *Triangle) SampleArea(u core.Vec2) (point, normal core.Vec3, pdfArea float64) {
	b0, b1 := core.SampleTriangleBarycentric(u)
	b2 := 1 - b0 - b1
	point = t.V0.Multiply(b0).Add(t.V1.Multiply(b1)).Add(t.V2.Multiply(b2))
	area := t.Area()
	if area <= 0 {
		return point, t.normal, 0
	}
	return point, t.normal, 1.0 / area
}
