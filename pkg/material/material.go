package material

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// Kind discriminates the handful of scattering behaviors a Material can
// have. Dispatch is a switch at the hot BRDF-evaluation sites rather than
// virtual calls, matching spec.md §9's "tagged variants over polymorphism"
// guidance for a small, closed variant count.
type Kind int

const (
	// Lambertian is the required diffuse model: f(wo,wi) = albedo/pi.
	Lambertian Kind = iota
	// Mirror is a permitted extension: perfect specular reflection.
	Mirror
	// Dielectric is a permitted extension: Schlick-approximated refraction.
	Dielectric
)

// Material is the Lambertian + emissive shell of spec.md §4.4, generalized
// with two optional specular/refractive extensions (spec.md §4.4: "specular
// and refractive branches are permitted extensions but are not required for
// test conformance").
type Material struct {
	// Kind zero-values to Lambertian, so a bare Material{Albedo: ...} is
	// already a valid diffuse material.
	Kind Kind

	Albedo        core.Vec3
	AlbedoTexture ColorSource // optional; multiplied into Albedo when set

	Emission core.Vec3 // Ke

	IOR float64 // dielectric index of refraction, e.g. 1.5 for glass
}

// NewLambertian creates a diffuse material with the given albedo.
func NewLambertian(albedo core.Vec3) *Material {
	return &Material{Kind: Lambertian, Albedo: albedo}
}

// NewEmissive creates a material that emits Ke and does not reflect.
// Spec.md models this as the same Lambertian+emissive shell with zero
// albedo; a light-sampling routine checks IsEmissive rather than a distinct
// material type.
func NewEmissive(emission core.Vec3) *Material {
	return &Material{Kind: Lambertian, Emission: emission}
}

// NewMirror creates a perfectly specular reflective material tinted by albedo.
func NewMirror(albedo core.Vec3) *Material {
	return &Material{Kind: Mirror, Albedo: albedo}
}

// NewDielectric creates a refractive material with the given index of refraction.
func NewDielectric(ior float64) *Material {
	return &Material{Kind: Dielectric, Albedo: core.NewVec3(1, 1, 1), IOR: ior}
}

// IsEmissive reports whether this material contributes emission.
func (m *Material) IsEmissive() bool {
	return !m.Emission.IsZero()
}

// EvaluateAlbedo returns the albedo at a hit's texture coordinates, with the
// optional AlbedoTexture bilinearly (or however it implements Evaluate)
// sampled and multiplied in.
func (m *Material) EvaluateAlbedo(uv core.Vec2) core.Vec3 {
	if m.AlbedoTexture == nil {
		return m.Albedo
	}
	return m.Albedo.MultiplyVec(m.AlbedoTexture.Evaluate(uv))
}

// ComputeBRDF derives the per-hit BRDF: albedo sampled at uv plus the
// orthonormal tangent frame (T, B, N) the hit carries. Lives on the stack of
// a single ray query, like spec.md §3's IntersectionData.
func (m *Material) ComputeBRDF(uv core.Vec2, tangent, bitangent, normal core.Vec3) BRDF {
	return BRDF{
		kind:   m.Kind,
		albedo: m.EvaluateAlbedo(uv),
		ior:    m.IOR,
		t:      tangent,
		b:      bitangent,
		n:      normal,
	}
}

// BRDF is the scattering distribution derived from a Material at a specific
// hit point: its world-space tangent frame plus the sampled albedo.
type BRDF struct {
	kind   Kind
	albedo core.Vec3
	ior    float64
	t, b, n core.Vec3
}

// F evaluates f(wo, wi), returning 0 when wo or wi lies below the shading
// hemisphere; the caller multiplies by |N.wi|.
// Delta (specular/refractive) materials have no well-defined f and return 0 —
// they must be handled through SampleF's isSpecular flag instead.
func (brdf BRDF) F(wo, wi core.Vec3) core.Vec3 {
	if brdf.kind != Lambertian {
		return core.Vec3{}
	}
	if wo.Dot(brdf.n) <= 0 || wi.Dot(brdf.n) <= 0 {
		return core.Vec3{}
	}
	return brdf.albedo.Multiply(1.0 / math.Pi)
}

// PDF returns the solid-angle pdf of sampling wi given wo via SampleF. Delta
// materials report pdf 0 (they can never be hit by light sampling).
func (brdf BRDF) PDF(wo, wi core.Vec3) float64 {
	if brdf.kind != Lambertian {
		return 0
	}
	if wo.Dot(brdf.n) <= 0 || wi.Dot(brdf.n) <= 0 {
		return 0
	}
	return core.CosineHemispherePDF(wi.Dot(brdf.n))
}

// IsSpecular reports whether this BRDF is a delta distribution (Mirror or
// Dielectric), which light sampling must skip.
func (brdf BRDF) IsSpecular() bool {
	return brdf.kind != Lambertian
}

// SampleF draws an outgoing direction wi, its BRDF value f, and its pdf.
// For Lambertian, wi is cosine-weighted in the local frame and
// pdf = |N.wi|/pi. For Mirror/Dielectric, wi is the deterministic
// reflected/refracted direction, f carries the full contribution, and pdf is
// reported as 1 with isSpecular=true so the integrator skips the cosine/pdf
// division it would otherwise apply.
func (brdf BRDF) SampleF(wo core.Vec3, u core.Vec2, u1 float64) (wi core.Vec3, f core.Vec3, pdf float64, isSpecular bool) {
	switch brdf.kind {
	case Mirror:
		wi = reflect(wo.Negate(), brdf.n)
		return wi, brdf.albedo, 1.0, true
	case Dielectric:
		return brdf.sampleDielectric(wo, u1)
	default:
		localWi := core.RandomCosineDirection(brdf.n, u)
		cosTheta := localWi.Dot(brdf.n)
		p := core.CosineHemispherePDF(cosTheta)
		if p <= 0 {
			return core.Vec3{}, core.Vec3{}, 0, false
		}
		return localWi, brdf.F(wo, localWi), p, false
	}
}

// reflect mirrors incoming direction d (pointing toward the surface, i.e.
// -wo) about normal n, yielding the outgoing reflected direction.
func reflect(d, n core.Vec3) core.Vec3 {
	return d.Subtract(n.Multiply(2 * d.Dot(n)))
}

// sampleDielectric implements Schlick-approximated Fresnel reflection or
// refraction. cosTheta is clamped to [-1,1] — spec.md §9 flags the original
// C++'s `min(1,max(1,cos_i))` clamp as almost certainly a bug; this fixes it
// to the evidently-intended [-1,1] range.
func (brdf BRDF) sampleDielectric(wo core.Vec3, u1 float64) (wi, f core.Vec3, pdf float64, isSpecular bool) {
	n := brdf.n
	cosThetaI := wo.Dot(n)
	entering := cosThetaI > 0
	etaI, etaT := 1.0, brdf.ior
	if !entering {
		etaI, etaT = etaT, etaI
		n = n.Negate()
		cosThetaI = -cosThetaI
	}
	cosThetaI = math.Max(-1, math.Min(1, cosThetaI))

	eta := etaI / etaT
	sin2ThetaT := eta * eta * math.Max(0, 1-cosThetaI*cosThetaI)

	if sin2ThetaT >= 1 {
		// Total internal reflection.
		wi = reflect(wo.Negate(), n)
		return wi, brdf.albedo, 1.0, true
	}

	cosThetaT := math.Sqrt(1 - sin2ThetaT)
	r0 := (etaI - etaT) / (etaI + etaT)
	r0 *= r0
	fresnel := r0 + (1-r0)*math.Pow(1-cosThetaI, 5)

	if u1 < fresnel {
		wi = reflect(wo.Negate(), n)
		return wi, brdf.albedo, 1.0, true
	}

	incoming := wo.Negate()
	refracted := incoming.Multiply(eta).Add(n.Multiply(eta*cosThetaI - cosThetaT))
	return refracted.Normalize(), brdf.albedo, 1.0, true
}
