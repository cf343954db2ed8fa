package core

import "math"

// Bounds is an axis-aligned bounding box
type Bounds struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds returns the identity element of Union
func EmptyBounds() Bounds {
	return Bounds{
		Min: Splat(math.MaxFloat64),
		Max: Splat(-math.MaxFloat64),
	}
}

// NewBounds creates bounds from two corners in any order
func NewBounds(a, b Vec3) Bounds {
	return Bounds{Min: a.Min(b), Max: a.Max(b)}
}

// NewBoundsFromPoints creates the smallest bounds containing all points
func NewBoundsFromPoints(points ...Vec3) Bounds {
	b := EmptyBounds()
	for _, p := range points {
		b = b.UnionPoint(p)
	}
	return b
}

// IsEmpty reports whether the bounds enclose no point
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns bounds enclosing both b and other
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// UnionPoint grows the bounds to include p
func (b Bounds) UnionPoint(p Vec3) Bounds {
	return Bounds{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Contains reports whether other lies entirely inside b
func (b Bounds) Contains(other Bounds) bool {
	if other.IsEmpty() {
		return true
	}
	return b.ContainsPoint(other.Min) && b.ContainsPoint(other.Max)
}

// ContainsPoint reports whether p lies inside or on the boundary of b
func (b Bounds) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Diagonal returns the extent of the bounds along each axis
func (b Bounds) Diagonal() Vec3 {
	return b.Max.Subtract(b.Min)
}

// Centroid returns the center point of the bounds
func (b Bounds) Centroid() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// SurfaceArea returns the surface area of the box, zero when empty
func (b Bounds) SurfaceArea() float64 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Diagonal()
	return 2.0 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// MaximumExtent returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b Bounds) MaximumExtent() int {
	d := b.Diagonal()
	if d.X > d.Y && d.X > d.Z {
		return 0
	}
	if d.Y > d.Z {
		return 1
	}
	return 2
}

// IntersectP performs the slab test against [0, ray.TMax] and returns the
// parametric entry and exit distances.
func (b Bounds) IntersectP(ray *Ray) (t0, t1 float64, ok bool) {
	t0, t1 = 0, ray.TMax
	for axis := 0; axis < 3; axis++ {
		invDir := 1.0 / ray.Direction.Get(axis)
		origin := ray.Origin.Get(axis)
		tNear := (b.Min.Get(axis) - origin) * invDir
		tFar := (b.Max.Get(axis) - origin) * invDir
		if tNear > tFar {
			tNear, tFar = tFar, tNear
		}
		// NaN from 0*Inf on a slab boundary leaves the interval unchanged
		if tNear > t0 {
			t0 = tNear
		}
		if tFar < t1 {
			t1 = tFar
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}
