package core

import "math"

// Ray is a half line with a mutable far limit. Intersection routines shrink
// TMax to the closest hit found so far.
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMax      float64
}

// NewRay creates a ray with an unbounded far limit
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, TMax: math.Inf(1)}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}
