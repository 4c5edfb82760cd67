package geometry

import (
	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// TriangleMesh is an indexed triangle mesh backed by its own BVH, so a
// single mesh instance is itself a Shape that the scene's top-level BVH can
// bound and traverse like any primitive.
type TriangleMesh struct {
	triangles []Shape
	bvh       *BVH
	bbox      core.AABB
}

// MeshOptions carries the optional per-vertex attributes a loader may supply.
type MeshOptions struct {
	VertexUVs     []core.Vec2 // one per vertex
	VertexNormals []core.Vec3 // one per vertex, interpolated for smooth shading
	Materials     []*material.Material // one per face, overriding the default
}

// NewTriangleMesh builds a mesh from a shared vertex array and a flat list
// of face indices (each run of 3 indices is one triangle).
func NewTriangleMesh(vertices []core.Vec3, faces []int, defaultMaterial *material.Material, opts *MeshOptions) *TriangleMesh {
	if len(faces)%3 != 0 {
		panic("geometry: face indices must be a multiple of 3")
	}
	numTriangles := len(faces) / 3

	triangles := make([]Shape, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			panic("geometry: face index out of bounds")
		}

		mat := defaultMaterial
		if opts != nil && opts.Materials != nil {
			mat = opts.Materials[i]
		}

		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		hasUVs := opts != nil && opts.VertexUVs != nil
		hasNormals := opts != nil && opts.VertexNormals != nil

		switch {
		case hasUVs && hasNormals:
			triangles[i] = NewTriangleWithUVsAndNormals(v0, v1, v2,
				opts.VertexUVs[i0], opts.VertexUVs[i1], opts.VertexUVs[i2],
				opts.VertexNormals[i0], opts.VertexNormals[i1], opts.VertexNormals[i2], mat)
		case hasNormals:
			triangles[i] = NewTriangleWithNormals(v0, v1, v2,
				opts.VertexNormals[i0], opts.VertexNormals[i1], opts.VertexNormals[i2], mat)
		case hasUVs:
			triangles[i] = NewTriangleWithUVs(v0, v1, v2, opts.VertexUVs[i0], opts.VertexUVs[i1], opts.VertexUVs[i2], mat)
		default:
			triangles[i] = NewTriangle(v0, v1, v2, mat)
		}
	}

	bvh := NewBVH(triangles)

	bbox := core.EmptyAABB()
	for _, t := range triangles {
		bbox = bbox.Union(t.BoundingBox())
	}

	return &TriangleMesh{triangles: triangles, bvh: bvh, bbox: bbox}
}

// Hit implements Shape by delegating to the mesh's internal BVH.
func (m *TriangleMesh) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	return m.bvh.Hit(ray, tMin, tMax)
}

// HitAny implements Shape by delegating to the mesh's internal BVH.
func (m *TriangleMesh) HitAny(ray core.Ray, tMin, tMax float64) bool {
	return m.bvh.HitAny(ray, tMin, tMax)
}

// BoundingBox implements Shape.
func (m *TriangleMesh) BoundingBox() core.AABB {
	return m.bbox
}

// TriangleCount returns the number of triangles in the mesh.
func (m *TriangleMesh) TriangleCount() int {
	return len(m.triangles)
}

// Triangles returns the mesh's individual triangles, e.g. for area-light
// sampling over an emissive mesh.
func (m *TriangleMesh) Triangles() []Shape {
	return m.triangles
}
