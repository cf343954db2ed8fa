package integrator

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

const (
	// DefaultMaxBounces limits path length when none is configured
	DefaultMaxBounces = 8

	// rayOffset moves new ray origins off the surface they leave
	rayOffset = 1e-4
)

var (
	skyHorizon = core.NewVec3(1, 1, 0.8)
	skyZenith  = core.NewVec3(0.5, 0.7, 1)
)

// PathTracingIntegrator implements iterative unidirectional path tracing with
// next-event estimation toward one randomly chosen light per bounce.
type PathTracingIntegrator struct {
	scene      *scene.Scene
	maxBounces int
}

// NewPathTracingIntegrator creates a path tracer over s
func NewPathTracingIntegrator(s *scene.Scene, maxBounces int) *PathTracingIntegrator {
	if maxBounces <= 0 {
		maxBounces = DefaultMaxBounces
	}
	return &PathTracingIntegrator{scene: s, maxBounces: maxBounces}
}

// MaxBounces returns the path length limit
func (pt *PathTracingIntegrator) MaxBounces() int {
	return pt.maxBounces
}

// TraceRay follows one path from ray. Emission and light samples are summed
// into color while albedos divided by the previous sampling pdf accumulate in
// contribution; the result is color times the clamped contribution.
func (pt *PathTracingIntegrator) TraceRay(ray core.Ray, sampler core.Sampler) core.Vec4 {
	s := pt.scene
	color := core.Vec3{}
	contribution := core.NewVec3(1, 1, 1)
	prevPdf := 1.0
	firstHit := math.MaxFloat64

	for depth := 0; depth < pt.maxBounces; depth++ {
		var si core.SurfaceInteraction
		if !s.Intersect(&ray, &si) {
			color = color.Add(pt.background(ray.Direction))
			break
		}
		if depth == 0 {
			firstHit = si.Distance
		}
		si.FaceForward()

		mat := s.Material(si.ObjectIndex)
		if mat == nil {
			return core.Vec4From(material.MissingTextureColor, firstHit)
		}

		color = color.Add(mat.EvaluateLight(&si, s.Textures))
		albedo := mat.Evaluate(&si, s.Textures)

		scatter, ok := mat.ScatterRay(&si, ray.Direction, sampler, s.Textures)
		if !ok {
			break
		}

		if scatter.HasPdf {
			color = color.Add(pt.sampleLight(&si, sampler))
			contribution = contribution.MultiplyVec(albedo).Multiply(1 / prevPdf)
			prevPdf = mat.Pdf(scatter.Direction, si.Normal)
			if prevPdf <= 0 {
				break
			}
		} else {
			contribution = contribution.MultiplyVec(albedo).Multiply(1 / prevPdf)
			prevPdf = 1
		}

		dir := scatter.Direction.Normalize()
		ray = core.NewRay(si.Position.Add(dir.Multiply(rayOffset)), dir)
	}

	return core.Vec4From(color.MultiplyVec(contribution.Clamp(0, 1)), firstHit)
}

// sampleLight returns the unoccluded radiance of one uniformly chosen light
// divided by its sampling pdf, or zero.
func (pt *PathTracingIntegrator) sampleLight(si *core.SurfaceInteraction, sampler core.Sampler) core.Vec3 {
	light, _, _ := pt.scene.LightSampler().SampleLight(sampler.Get1D())
	if light == nil {
		return core.Vec3{}
	}

	sample := light.Sample(si, sampler)
	if si.Normal.Dot(sample.Direction) < 0 || sample.Distance <= rayOffset {
		return core.Vec3{}
	}

	dir := sample.Direction.Multiply(1 / sample.Distance)
	shadow := core.NewRay(si.Position.Add(dir.Multiply(rayOffset)), dir)
	shadow.TMax = sample.Distance - 2*rayOffset
	if pt.scene.HasIntersections(&shadow) {
		return core.Vec3{}
	}

	pdf := light.PDF(si)
	if pdf <= 0 || math.IsInf(pdf, 1) {
		return core.Vec3{}
	}
	return light.Color().Multiply(1 / pdf)
}

// background is the radiance arriving along a ray that leaves the scene
func (pt *PathTracingIntegrator) background(dir core.Vec3) core.Vec3 {
	s := pt.scene
	if s.BlackBackground {
		return core.Vec3{}
	}
	if _, ok := s.Textures.Lookup(s.Environment); ok {
		si := core.SurfaceInteraction{UV: EnvironmentUV(dir)}
		return s.Textures.Color(s.Environment, &si)
	}
	return SkyColor(dir)
}

// SkyColor is the gradient used when no environment texture is set
func SkyColor(dir core.Vec3) core.Vec3 {
	t := 0.5 * (dir.Normalize().Y + 1)
	return skyHorizon.Lerp(skyZenith, t).Multiply(1.075)
}

// EnvironmentUV maps a direction to equirectangular texture coordinates
func EnvironmentUV(dir core.Vec3) core.Vec2 {
	d := dir.Normalize()
	theta := math.Acos(math.Max(-1, math.Min(1, -d.Y)))
	phi := math.Atan2(-d.Z, d.X) + math.Pi
	return core.NewVec2(phi/(2*math.Pi), theta/math.Pi)
}
