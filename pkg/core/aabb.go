package core

import "math"

// AABB is an axis-aligned bounding box. The empty box is encoded as
// Min = +Inf, Max = -Inf so that unioning it with any point or box is
// idempotent.
type AABB struct {
	Min Vec3
	Max Vec3
}

// EmptyAABB returns the canonical empty bounding box.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{X: inf, Y: inf, Z: inf},
		Max: Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewAABB creates an AABB from explicit min/max corners.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints bounds every given point.
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.UnionPoint(p)
	}
	return box
}

// Union returns the smallest AABB containing both this box and other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: Vec3{math.Min(b.Min.X, other.Min.X), math.Min(b.Min.Y, other.Min.Y), math.Min(b.Min.Z, other.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, other.Max.X), math.Max(b.Max.Y, other.Max.Y), math.Max(b.Max.Z, other.Max.Z)},
	}
}

// UnionPoint returns the smallest AABB containing both this box and p.
func (b AABB) UnionPoint(p Vec3) AABB {
	return AABB{
		Min: Vec3{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)},
		Max: Vec3{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)},
	}
}

// Centroid returns the midpoint of the box.
func (b AABB) Centroid() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Diagonal returns the extent of the box along each axis.
func (b AABB) Diagonal() Vec3 {
	return b.Max.Subtract(b.Min)
}

// LongestDimension returns the axis (0=X, 1=Y, 2=Z) with the largest extent.
func (b AABB) LongestDimension() int {
	d := b.Diagonal()
	if d.X > d.Y && d.X > d.Z {
		return 0
	}
	if d.Y > d.Z {
		return 1
	}
	return 2
}

// SurfaceArea returns the surface area of the box. A degenerate (empty or
// flat) box returns 0.
func (b AABB) SurfaceArea() float64 {
	d := b.Diagonal()
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return 2.0 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// Axis returns the component of v along the given axis (0=X, 1=Y, 2=Z).
func Axis(v Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Offset returns p's position relative to the box, in [0,1]^3 for p inside
// the box (and outside that range if p lies outside it).
func (b AABB) Offset(p Vec3) Vec3 {
	o := p.Subtract(b.Min)
	if b.Max.X > b.Min.X {
		o.X /= b.Max.X - b.Min.X
	}
	if b.Max.Y > b.Min.Y {
		o.Y /= b.Max.Y - b.Min.Y
	}
	if b.Max.Z > b.Min.Z {
		o.Z /= b.Max.Z - b.Min.Z
	}
	return o
}

// Corner returns one of the eight corners of the box, selected by a 3-bit
// index (bit k selects Max on axis k when set, Min otherwise).
func (b AABB) Corner(index int) Vec3 {
	pick := func(axis int) float64 {
		if index&(1<<uint(axis)) != 0 {
			return Axis(b.Max, axis)
		}
		return Axis(b.Min, axis)
	}
	return Vec3{pick(0), pick(1), pick(2)}
}

// IsValid returns true if min <= max componentwise (false for the empty box).
func (b AABB) IsValid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// InvDir precomputes the reciprocal ray direction and per-axis sign used by
// the hot-path slab test below.
type InvDir struct {
	Inv   Vec3
	IsNeg [3]bool
}

// NewInvDir precomputes the reciprocal direction and sign bits for a ray.
func NewInvDir(direction Vec3) InvDir {
	inv := Vec3{1.0 / direction.X, 1.0 / direction.Y, 1.0 / direction.Z}
	return InvDir{
		Inv:   inv,
		IsNeg: [3]bool{inv.X < 0, inv.Y < 0, inv.Z < 0},
	}
}

// Hit runs the sign-precomputed slab test against the box, given the ray
// origin and a precomputed InvDir, returning true iff the slab entry distance
// is below tMax and the exit distance is positive. This is the hot path of BVH traversal: it branches only
// on data the caller already computed once per ray, never on axis
// permutation.
func (b AABB) Hit(origin Vec3, inv InvDir, tMax float64) bool {
	bounds := [2]Vec3{b.Min, b.Max}

	tMin := (Axis(bounds[boolToInt(inv.IsNeg[0])], 0) - origin.X) * inv.Inv.X
	tMax1 := (Axis(bounds[1-boolToInt(inv.IsNeg[0])], 0) - origin.X) * inv.Inv.X

	tyMin := (Axis(bounds[boolToInt(inv.IsNeg[1])], 1) - origin.Y) * inv.Inv.Y
	tyMax := (Axis(bounds[1-boolToInt(inv.IsNeg[1])], 1) - origin.Y) * inv.Inv.Y
	if tMin > tyMax || tyMin > tMax1 {
		return false
	}
	if tyMin > tMin {
		tMin = tyMin
	}
	if tyMax < tMax1 {
		tMax1 = tyMax
	}

	tzMin := (Axis(bounds[boolToInt(inv.IsNeg[2])], 2) - origin.Z) * inv.Inv.Z
	tzMax := (Axis(bounds[1-boolToInt(inv.IsNeg[2])], 2) - origin.Z) * inv.Inv.Z
	if tMin > tzMax || tzMin > tMax1 {
		return false
	}
	if tzMin > tMin {
		tMin = tzMin
	}
	if tzMax < tMax1 {
		tMax1 = tzMax
	}

	return tMin < tMax && tMax1 > 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
