package geometry

import (
	"math"
	"testing"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// Concrete scenario 2 from spec.md §8: axis-aligned triangle
// (0,0,0),(1,0,0),(0,1,0), ray from (0.25,0.25,1) toward (0,0,-1).
func TestTriangleHitScenario(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1))

	hit, ok := tri.Hit(ray, 1e-8, math.Inf(1))
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(hit.T-1) > 1e-9 {
		t.Errorf("t = %v, want 1", hit.T)
	}
	if math.Abs(hit.UV.X-0.25) > 1e-6 || math.Abs(hit.UV.Y-0.25) > 1e-6 {
		t.Errorf("uv = %v, want ~(0.25, 0.25)", hit.UV)
	}
}

// Boundary behavior from spec.md §8: a zero-area triangle is rejected via
// the parallel-determinant guard, not a NaN or divide-by-zero.
func TestTriangleZeroAreaRejected(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(2, 0, 0),
		material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.NewVec3(0.5, 1, 1), core.NewVec3(0, 0, -1))

	if _, ok := tri.Hit(ray, 1e-8, math.Inf(1)); ok {
		t.Error("expected a degenerate triangle to reject every ray")
	}
	if tri.Area() > 1e-12 {
		t.Errorf("degenerate triangle area = %v, want ~0", tri.Area())
	}
}

func TestTriangleSampleAreaPDF(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), nil)

	_, normal, pdfArea := tri.SampleArea(core.Vec2{X: 0.4, Y: 0.2})
	if math.Abs(pdfArea-1.0/tri.Area()) > 1e-9 {
		t.Errorf("pdfArea = %v, want %v", pdfArea, 1.0/tri.Area())
	}
	if !normal.Equals(core.NewVec3(0, 0, 1)) {
		t.Errorf("normal = %v, want (0,0,1)", normal)
	}
}

// Per spec.md §4.3: a triangle with per-vertex normals interpolates them
// barycentrically at hit time instead of reporting the flat geometric normal.
func TestTriangleWithNormalsInterpolatesSmoothNormal(t *testing.T) {
	tri := NewTriangleWithNormals(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.NewVec3(1.0/3, 1.0/3, 1), core.NewVec3(0, 0, -1))

	hit, ok := tri.Hit(ray, 1e-8, math.Inf(1))
	if !ok {
		t.Fatal("expected a hit")
	}
	// Flat shading would report (0,0,1) exactly; smooth shading must differ
	// since the per-vertex normals are not all equal to the face normal.
	if hit.Normal.Equals(core.NewVec3(0, 0, 1)) {
		t.Error("Normal equals the flat geometric normal; per-vertex normals were not interpolated")
	}
	if math.Abs(hit.Normal.Length()-1) > 1e-6 {
		t.Errorf("interpolated normal not unit length: %v", hit.Normal.Length())
	}
	// The tangent frame must be orthonormal w.r.t. the interpolated normal.
	if math.Abs(hit.Tangent.Dot(hit.Normal)) > 1e-6 {
		t.Errorf("Tangent not orthogonal to Normal: dot = %v", hit.Tangent.Dot(hit.Normal))
	}
	if math.Abs(hit.Bitangent.Dot(hit.Normal)) > 1e-6 {
		t.Errorf("Bitangent not orthogonal to Normal: dot = %v", hit.Bitangent.Dot(hit.Normal))
	}
}

// A triangle built without per-vertex normals keeps the flat geometric
// normal and the arbitrary OrthonormalBasis tangent frame, unchanged.
func TestTriangleWithoutNormalsStaysFlatShaded(t *testing.T) {
	tri := NewTriangle(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1))

	hit, ok := tri.Hit(ray, 1e-8, math.Inf(1))
	if !ok {
		t.Fatal("expected a hit")
	}
	if !hit.Normal.Equals(core.NewVec3(0, 0, 1)) {
		t.Errorf("Normal = %v, want the flat face normal (0,0,1)", hit.Normal)
	}
}

func TestTriangleWithUVsInterpolates(t *testing.T) {
	tri := NewTriangleWithUVs(
		core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(0, 1),
		material.NewLambertian(core.NewVec3(1, 1, 1)))
	ray := core.NewRay(core.NewVec3(1.0/3, 1.0/3, 1), core.NewVec3(0, 0, -1))

	hit, ok := tri.Hit(ray, 1e-8, math.Inf(1))
	if !ok {
		t.Fatal("expected a hit")
	}
	// Centroid: UV should be the average of the three corner UVs.
	if math.Abs(hit.UV.X-1.0/3) > 1e-6 || math.Abs(hit.UV.Y-1.0/3) > 1e-6 {
		t.Errorf("interpolated uv = %v, want ~(1/3, 1/3)", hit.UV)
	}
}
