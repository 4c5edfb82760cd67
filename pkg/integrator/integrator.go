package integrator

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
	"github.com/jpeterson/pathtracer/pkg/scene"
)

// selfIntersectionEpsilon offsets ray origins along the hit normal to
// avoid re-hitting the surface a ray just left.
const selfIntersectionEpsilon = 1e-5

// Li estimates the radiance arriving along ray from sc, by iterative path
// tracing with explicit direct-light sampling at every bounce (spec.md
// §4.5). sampler supplies this call's random numbers; callers give each
// worker goroutine its own sampler.
func Li(ray core.Ray, sc *scene.Scene, sampler core.Sampler) core.Vec3 {
	current := ray
	L := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for bounce := 0; bounce < sc.MaxDepth; bounce++ {
		hit, ok := sc.Intersect(current, 1e-8, math.Inf(1))
		if !ok {
			L = L.Add(throughput.MultiplyVec(sc.Environment.Sample(current.Direction)))
			break
		}

		wo := current.Direction.Negate()
		position := hit.Point.Add(hit.Normal.Multiply(selfIntersectionEpsilon))

		if bounce == 0 && wo.Dot(hit.Normal) > 0 {
			L = L.Add(throughput.MultiplyVec(hit.Material.Emission))
		}

		L = L.Add(throughput.MultiplyVec(sc.AmbientColor))

		brdf := hit.BRDF()
		L = L.Add(throughput.MultiplyVec(estimateDirect(position, hit.Normal, wo, brdf, sc, sampler)))

		wi, f, pdf, isSpecular := brdf.SampleF(wo, sampler.Get2D(), sampler.Get1D())
		if pdf <= 0 || f.IsZero() {
			break
		}

		cosTerm := 1.0
		if !isSpecular {
			cosTerm = math.Abs(wi.Dot(hit.Normal))
		}
		throughput = throughput.MultiplyVec(f).Multiply(cosTerm / pdf)
		if throughput.IsZero() {
			break
		}

		current = core.NewRay(position, wi)
	}

	return L
}

// estimateDirect sums, over every light and every one of its n_samples, the
// Monte Carlo direct-lighting estimate (spec.md §4.5). Delta (specular)
// BRDFs contribute nothing here — their entire energy flows through the
// BRDF-sampled continuation instead.
func estimateDirect(position, normal, wo core.Vec3, brdf material.BRDF, sc *scene.Scene, sampler core.Sampler) core.Vec3 {
	if brdf.IsSpecular() {
		return core.Vec3{}
	}

	total := core.Vec3{}
	for _, light := range sc.Lights {
		n := light.NSamples
		if n < 1 {
			n = 1
		}

		sum := core.Vec3{}
		for i := 0; i < n; i++ {
			ls := light.SampleLi(position, sampler.Get2D())
			if ls.PDF <= 0 || ls.Li.IsZero() {
				continue
			}

			cosTerm := normal.Dot(ls.Wi)
			if cosTerm <= 0 {
				continue
			}

			shadowRay := core.NewRay(position, ls.Wi)
			maxT := ls.Distance - selfIntersectionEpsilon
			if sc.Occluded(shadowRay, 1e-8, maxT) {
				continue
			}

			f := brdf.F(wo, ls.Wi)
			if f.IsZero() {
				continue
			}

			sum = sum.Add(f.MultiplyVec(ls.Li).Multiply(cosTerm / ls.PDF))
		}
		total = total.Add(sum.Multiply(1.0 / float64(n)))
	}
	return total
}
