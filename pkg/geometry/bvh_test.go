package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

func randomSpheres(n int, seed int64) []Shape {
	rng := rand.New(rand.NewSource(seed))
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	shapes := make([]Shape, n)
	for i := range shapes {
		center := core.NewVec3(
			rng.Float64()*20-10,
			rng.Float64()*20-10,
			rng.Float64()*20-10,
		)
		radius := 1.0
		shapes[i] = NewSphere(center, radius, mat)
	}
	return shapes
}

func bruteForceHit(shapes []Shape, ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	var best *HitRecord
	closest := tMax
	for _, s := range shapes {
		if hit, ok := s.Hit(ray, tMin, closest); ok {
			best = hit
			closest = hit.T
		}
	}
	return best, best != nil
}

func bruteForceHitAny(shapes []Shape, ray core.Ray, tMin, tMax float64) bool {
	for _, s := range shapes {
		if s.HitAny(ray, tMin, tMax) {
			return true
		}
	}
	return false
}

// Invariant 2 from spec.md §8: BVH build is order-invariant on the root
// bound. The root's AABB equals the union of all input shapes' AABBs exactly.
func TestBVHRootBoundMatchesUnion(t *testing.T) {
	shapes := randomSpheres(200, 1)

	want := core.EmptyAABB()
	for _, s := range shapes {
		want = want.Union(s.BoundingBox())
	}

	for _, method := range []SplitMethod{SplitSAH, SplitMiddle, SplitEqualCounts} {
		bvh := NewBVHWithSplit(shapes, method)
		got := bvh.BoundingBox()
		if !got.Min.Equals(want.Min) || !got.Max.Equals(want.Max) {
			t.Errorf("method %v: root bound = %v, want %v", method, got, want)
		}
	}
}

// Invariant 3 from spec.md §8: BVH traversal is complete. For every ray that
// hits any shape in a brute-force scan, closest_hit agrees on t within 1e-4
// relative error.
//
// Concrete scenario 4 from spec.md §8: 1000 random unit spheres, 10000
// random rays, SAH method.
func TestBVHTraversalMatchesBruteForce(t *testing.T) {
	shapes := randomSpheres(1000, 2)
	bvh := NewBVHWithSplit(shapes, SplitSAH)

	if got := bvh.ShapeCount(); got != len(shapes) {
		t.Fatalf("ShapeCount = %d, want %d", got, len(shapes))
	}

	rng := rand.New(rand.NewSource(99))
	const numRays = 10000
	for i := 0; i < numRays; i++ {
		origin := core.NewVec3(rng.Float64()*30-15, rng.Float64()*30-15, rng.Float64()*30-15)
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Normalize()
		ray := core.NewRay(origin, dir)

		wantHit, wantOK := bruteForceHit(shapes, ray, 1e-8, math.Inf(1))
		gotHit, gotOK := bvh.Hit(ray, 1e-8, math.Inf(1))

		if wantOK != gotOK {
			t.Fatalf("ray %d: brute-force hit=%v, bvh hit=%v", i, wantOK, gotOK)
		}
		if !wantOK {
			continue
		}
		relErr := math.Abs(gotHit.T-wantHit.T) / math.Max(1, math.Abs(wantHit.T))
		if relErr > 1e-4 {
			t.Fatalf("ray %d: t=%v, want %v (rel err %v)", i, gotHit.T, wantHit.T, relErr)
		}
	}
}

// Invariant 4 from spec.md §8: any-hit implies closest-hit. If
// any_hit(ray, t_max) returns true, closest_hit(ray) returns some t <= t_max.
func TestBVHAnyHitImpliesClosestHit(t *testing.T) {
	shapes := randomSpheres(300, 3)
	bvh := NewBVHWithSplit(shapes, SplitSAH)

	rng := rand.New(rand.NewSource(123))
	for i := 0; i < 5000; i++ {
		origin := core.NewVec3(rng.Float64()*30-15, rng.Float64()*30-15, rng.Float64()*30-15)
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Normalize()
		ray := core.NewRay(origin, dir)
		tMax := 50.0

		if !bvh.HitAny(ray, 1e-8, tMax) {
			continue
		}
		hit, ok := bvh.Hit(ray, 1e-8, tMax)
		if !ok {
			t.Fatalf("ray %d: HitAny true but Hit found nothing", i)
		}
		if hit.T > tMax {
			t.Fatalf("ray %d: closest hit t=%v exceeds tMax=%v", i, hit.T, tMax)
		}
	}

	// Also check the contrapositive stays consistent with brute force.
	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(rng.Float64()*30-15, rng.Float64()*30-15, rng.Float64()*30-15)
		dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).Normalize()
		ray := core.NewRay(origin, dir)

		want := bruteForceHitAny(shapes, ray, 1e-8, 50.0)
		got := bvh.HitAny(ray, 1e-8, 50.0)
		if want != got {
			t.Fatalf("ray %d: brute-force any-hit=%v, bvh any-hit=%v", i, want, got)
		}
	}
}

// Boundary behavior from spec.md §8: a single-shape scene reduces to that
// shape's own intersection.
func TestBVHSingleShape(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(1, 1, 1))
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1, mat)
	bvh := NewBVH([]Shape{sphere})

	if got := bvh.ShapeCount(); got != 1 {
		t.Fatalf("ShapeCount = %d, want 1", got)
	}

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	want, _ := sphere.Hit(ray, 1e-8, math.Inf(1))
	got, ok := bvh.Hit(ray, 1e-8, math.Inf(1))
	if !ok || math.Abs(got.T-want.T) > 1e-9 {
		t.Errorf("single-shape BVH hit = %v, want %v", got, want)
	}
}

func TestBVHEmpty(t *testing.T) {
	bvh := NewBVH(nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	if _, ok := bvh.Hit(ray, 1e-8, math.Inf(1)); ok {
		t.Error("expected no hit against an empty BVH")
	}
	if bvh.HitAny(ray, 1e-8, math.Inf(1)) {
		t.Error("expected no any-hit against an empty BVH")
	}
}
