package lights

import (
	"math"
	"testing"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/geometry"
	"github.com/jpeterson/pathtracer/pkg/material"
)

func TestPointLightSampleLi(t *testing.T) {
	light := NewPointLight(core.NewVec3(0, 5, 0), core.NewVec3(10, 10, 10))
	ref := core.NewVec3(0, 0, 0)

	s := light.SampleLi(ref, core.Vec2{})
	if s.PDF != 1 {
		t.Errorf("PDF = %v, want 1", s.PDF)
	}
	if math.Abs(s.Distance-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", s.Distance)
	}
	wantLi := core.NewVec3(10, 10, 10).Multiply(1.0 / 25.0)
	if !s.Li.Equals(wantLi) {
		t.Errorf("Li = %v, want %v", s.Li, wantLi)
	}
	if !s.Wi.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("Wi = %v, want (0,1,0)", s.Wi)
	}
}

func TestDirectionalLightSampleLi(t *testing.T) {
	light := NewDirectionalLight(core.NewVec3(0, -1, 0), core.NewVec3(2, 2, 2))
	s := light.SampleLi(core.NewVec3(5, 5, 5), core.Vec2{})

	if s.PDF != 1 {
		t.Errorf("PDF = %v, want 1", s.PDF)
	}
	if !math.IsInf(s.Distance, 1) {
		t.Errorf("Distance = %v, want +Inf", s.Distance)
	}
	if !s.Li.Equals(core.NewVec3(2, 2, 2)) {
		t.Errorf("Li = %v, want light color unchanged", s.Li)
	}
	if !s.Wi.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("Wi = %v, want (0,1,0) (negated direction)", s.Wi)
	}
}

func TestAreaLightSampleLiEdgeOnIsZeroPDF(t *testing.T) {
	sphere := geometry.NewSphere(core.NewVec3(0, 0, 0), 1, material.NewLambertian(core.Vec3{}))
	light := NewAreaLight(sphere, core.NewVec3(5, 5, 5), 4)

	// Reference point at the sphere's own surface puts many samples edge-on
	// or behind; run enough draws that we see at least one PDF==0 rejection
	// without asserting every one is zero (some samples do face the ref).
	ref := core.NewVec3(0, 0, 1) // sits on the sphere surface itself
	sawZero := false
	for i := 0; i < 64; i++ {
		u := core.NewVec2(float64(i)/64, 0.5)
		s := light.SampleLi(ref, u)
		if s.PDF == 0 {
			sawZero = true
			break
		}
	}
	if !sawZero {
		t.Error("expected at least one edge-on/behind sample with pdf=0")
	}
}

func TestAreaLightSolidAnglePDFConversion(t *testing.T) {
	// A small sphere far away approximates a disk light; check the pdf
	// conversion formula directly: pdf_omega = pdf_area * d^2 / |n.(-wi)|.
	sphere := geometry.NewSphere(core.NewVec3(0, 0, -10), 1, material.NewLambertian(core.Vec3{}))
	light := NewAreaLight(sphere, core.NewVec3(1, 1, 1), 1)
	ref := core.NewVec3(0, 0, 0)

	s := light.SampleLi(ref, core.NewVec2(0.5, 0.25))
	if s.PDF <= 0 {
		t.Fatal("expected a positive pdf for a light in front of the reference point")
	}

	pdfArea := 1.0 / sphere.Area()
	d2 := s.Distance * s.Distance
	// Recompute cosAtLight from the sampled point's normal, which we don't
	// have directly; instead verify pdf is in the right ballpark: close to
	// pdf_area * d^2 for a roughly front-facing sample.
	approx := pdfArea * d2
	if s.PDF < approx*0.1 || s.PDF > approx*50 {
		t.Errorf("pdf_omega = %v, expected order of magnitude of pdf_area*d^2 = %v", s.PDF, approx)
	}
}

func TestNewAreaLightClampsMinSamples(t *testing.T) {
	sphere := geometry.NewSphere(core.NewVec3(0, 0, 0), 1, nil)
	light := NewAreaLight(sphere, core.Vec3{}, 0)
	if light.NSamples != 1 {
		t.Errorf("NSamples = %d, want 1 (clamped)", light.NSamples)
	}
}
