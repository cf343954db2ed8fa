package lights

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// SphericalLight is a spherical area light sampled by the cone it subtends
type SphericalLight struct {
	Position core.Vec3
	Radius   float64
	Tint     core.Vec3
	Strength float64
}

// NewSphericalLight creates a spherical light
func NewSphericalLight(position core.Vec3, radius float64, color core.Vec3, strength float64) *SphericalLight {
	return &SphericalLight{
		Position: position,
		Radius:   radius,
		Tint:     color,
		Strength: strength,
	}
}

// Type returns the light type
func (sl *SphericalLight) Type() LightType {
	return LightTypeSpherical
}

// Color returns tint times strength
func (sl *SphericalLight) Color() core.Vec3 {
	return sl.Tint.Multiply(sl.Strength)
}

// Sample draws a direction inside the cone subtended by the sphere and
// returns the point where it meets the sphere. From inside the sphere a
// uniform point on the surface is returned instead.
func (sl *SphericalLight) Sample(si *core.SurfaceInteraction, sampler core.Sampler) LightSample {
	toCenter := sl.Position.Subtract(si.Position)
	distSq := toCenter.LengthSquared()
	r2 := sl.Radius * sl.Radius

	var point core.Vec3
	if distSq <= r2 {
		point = sl.Position.Add(core.SampleOnUnitSphere(sampler.Get2D()).Multiply(sl.Radius))
	} else {
		w := toCenter.Normalize()
		u, v := core.OrthonormalBasis(w)
		local := core.SampleToSphere(sl.Radius, distSq, sampler.Get2D())
		dir := u.Multiply(local.X).Add(v.Multiply(local.Y)).Add(w.Multiply(local.Z))
		point = si.Position.Add(dir.Multiply(sl.distanceAlong(si.Position, dir, distSq)))
	}

	d := point.Subtract(si.Position)
	return LightSample{Point: point, Direction: d, Distance: d.Length()}
}

// distanceAlong returns the distance from p along unit dir to the near side of
// the sphere, falling back to the tangent distance when dir grazes it.
func (sl *SphericalLight) distanceAlong(p, dir core.Vec3, distSq float64) float64 {
	oc := p.Subtract(sl.Position)
	b := oc.Dot(dir)
	disc := b*b - (distSq - sl.Radius*sl.Radius)
	if disc < 0 {
		disc = 0
	}
	return -b - math.Sqrt(disc)
}

// PDF is the reciprocal of the solid angle subtended by the sphere
func (sl *SphericalLight) PDF(si *core.SurfaceInteraction) float64 {
	distSq := sl.Position.Subtract(si.Position).LengthSquared()
	r2 := sl.Radius * sl.Radius
	if distSq <= r2 {
		return 1 / (4 * math.Pi)
	}
	cosThetaMax := math.Sqrt(1 - r2/distSq)
	solidAngle := 2 * math.Pi * (1 - cosThetaMax)
	if solidAngle <= 0 {
		// Numerically a point light: treat as infinitely concentrated
		return math.Inf(1)
	}
	return 1 / solidAngle
}

// SolidAngle returns the solid angle the light subtends from p, zero from inside
func (sl *SphericalLight) SolidAngle(p core.Vec3) float64 {
	distSq := sl.Position.Subtract(p).LengthSquared()
	r2 := sl.Radius * sl.Radius
	if distSq <= r2 {
		return 0
	}
	return 2 * math.Pi * (1 - math.Sqrt(1-r2/distSq))
}
