package geometry

import (
	"math"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/material"
)

// Sphere is a sphere shape, per spec.md §4.1's quadratic ray-sphere test.
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material *material.Material
}

// NewSphere creates a sphere.
func NewSphere(center core.Vec3, radius float64, mat *material.Material) *Sphere {
	return &Sphere{Center: center, Radius: radius, Material: mat}
}

func (s *Sphere) roots(ray core.Ray, tMin, tMax float64) (float64, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)

	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return 0, false
		}
	}
	return root, true
}

// Hit implements Shape.
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	root, ok := s.roots(ray, tMin, tMax)
	if !ok {
		return nil, false
	}

	point := ray.At(root)
	outwardNormal := point.Subtract(s.Center).Multiply(1.0 / s.Radius)

	theta := math.Acos(-outwardNormal.Y)
	phi := math.Atan2(-outwardNormal.Z, outwardNormal.X) + math.Pi
	uv := core.NewVec2(phi/(2.0*math.Pi), theta/math.Pi)

	hit := &HitRecord{T: root, Point: point, Material: s.Material, UV: uv}
	hit.SetFaceNormal(ray, outwardNormal)
	return hit, true
}

// HitAny implements Shape with an existence-only query for shadow rays.
func (s *Sphere) HitAny(ray core.Ray, tMin, tMax float64) bool {
	_, ok := s.roots(ray, tMin, tMax)
	return ok
}

// BoundingBox implements Shape.
func (s *Sphere) BoundingBox() core.AABB {
	r := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(r), s.Center.Add(r))
}

// SampleArea draws a point and normal uniformly over the sphere's surface,
// per spec.md §4.3's sphere light-sampling formula, returning the pdf with
// respect to area (1 / (4*pi*r^2)).
func (s *Sphere) SampleArea(u core.Vec2) (point, normal core.Vec3, pdfArea float64) {
	local := core.UniformSampleSphere(u)
	normal = local
	point = s.Center.Add(local.Multiply(s.Radius))
	area := 4.0 * math.Pi * s.Radius * s.Radius
	return point, normal, 1.0 / area
}

// Area returns the sphere's surface area.
func (s *Sphere) Area() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius
}
