package integrator

import (
	"math"
	"testing"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/geometry"
	"github.com/jpeterson/pathtracer/pkg/lights"
	"github.com/jpeterson/pathtracer/pkg/material"
	"github.com/jpeterson/pathtracer/pkg/scene"
)

func singleSphereScene(mat *material.Material, maxDepth int) *scene.Scene {
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -5), 1, mat)
	bvh := geometry.NewBVH([]geometry.Shape{sphere})

	return &scene.Scene{
		BVH:          bvh,
		MaxDepth:     maxDepth,
		Environment:  scene.NewSolidEnvironment(core.Vec3{}),
		AmbientColor: core.Vec3{},
	}
}

// Boundary behavior from spec.md §8: max_depth==1 reduces Li to the
// direct-light-only estimate; no indirect (BRDF-sampled) bounce ever occurs.
func TestMaxDepthOneIsDirectLightOnly(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.8))
	sc := singleSphereScene(mat, 1)
	sc.Lights = []*lights.Light{lights.NewDirectionalLight(core.NewVec3(0, 0, 1), core.NewVec3(3, 3, 3))}

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewRandomSampler(7)

	got := Li(ray, sc, sampler)

	// Hit point is (0,0,-4), normal (0,0,1), wi = -direction = (0,0,-1).
	// cos(normal, wi) = -1 <= 0, so the light contributes nothing here;
	// the direct estimate (and hence the whole max_depth=1 image) is the
	// ambient term alone, which is zero in this scene.
	if !got.Equals(core.Vec3{}) {
		t.Errorf("Li = %v, want zero (light behind the surface, no indirect bounce to compensate)", got)
	}
}

// Concrete scenario 6 from spec.md §8: a single sphere lit only by a
// directional light, viewed so the light is in front of the surface normal,
// matches albedo*color*max(0,N.(-dir))/pi + Ke exactly at max_depth=1 (no
// indirect term to contaminate the direct estimate).
func TestDirectionalLightOnlySphereMatchesClosedForm(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.5, 0.5)
	mat := material.NewLambertian(albedo)
	sc := singleSphereScene(mat, 1)

	lightColor := core.NewVec3(4, 4, 4)
	direction := core.NewVec3(0, 0, -1) // shines toward -Z, lighting the near (camera-facing) pole
	sc.Lights = []*lights.Light{lights.NewDirectionalLight(direction, lightColor)}

	// Ray travels straight down -Z and hits the near pole of the sphere,
	// whose outward normal there is (0,0,1) (facing the camera).
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewRandomSampler(11)
	got := Li(ray, sc, sampler)

	normal := core.NewVec3(0, 0, 1)
	wi := direction.Negate() // (0,0,1)
	cosTerm := math.Max(0, normal.Dot(wi))
	want := albedo.Multiply(1 / math.Pi).MultiplyVec(lightColor).Multiply(cosTerm)

	if !got.Equals(want) {
		t.Errorf("Li = %v, want closed-form %v (cos=%v)", got, want, cosTerm)
	}
}

// Invariant from spec.md §4.5: emission is counted only on the camera ray's
// first bounce (bounce==0), never on subsequent indirect bounces.
func TestEmissionOnlyOnFirstBounce(t *testing.T) {
	emissive := material.NewLambertian(core.Vec3{})
	emissive.Emission = core.NewVec3(5, 5, 5)
	sc := singleSphereScene(emissive, 1)
	sc.Lights = nil

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewRandomSampler(3)
	got := Li(ray, sc, sampler)

	if !got.Equals(core.NewVec3(5, 5, 5)) {
		t.Errorf("Li = %v, want exactly the emission on a direct hit", got)
	}
}

// The ambient term is added unconditionally at every bounce, independent of
// light visibility or sampling (spec.md §4.5).
func TestAmbientAddedUnconditionally(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.2, 0.2, 0.2))
	sc := singleSphereScene(mat, 1)
	sc.AmbientColor = core.NewVec3(0.1, 0.1, 0.1)
	sc.Lights = nil

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	sampler := core.NewRandomSampler(5)
	got := Li(ray, sc, sampler)

	if !got.Equals(core.NewVec3(0.1, 0.1, 0.1)) {
		t.Errorf("Li = %v, want ambient alone with no lights and non-emissive material", got)
	}
}

func TestMissRayReturnsEnvironment(t *testing.T) {
	sc := singleSphereScene(material.NewLambertian(core.Vec3{}), 3)
	sc.Environment = scene.NewSolidEnvironment(core.NewVec3(0.3, 0.4, 0.5))

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)) // misses the sphere entirely
	sampler := core.NewRandomSampler(1)
	got := Li(ray, sc, sampler)

	if !got.Equals(core.NewVec3(0.3, 0.4, 0.5)) {
		t.Errorf("Li = %v, want environment color on a camera miss", got)
	}
}
