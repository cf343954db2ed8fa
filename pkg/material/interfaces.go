package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Material is the per-surface scattering contract used by the integrator.
// The set of implementers is closed: Diffuse, Metallic, Glass and Emissive.
type Material interface {
	// Evaluate returns the albedo (throughput multiplier) at the hit point
	Evaluate(si *core.SurfaceInteraction, textures Textures) core.Vec3

	// EvaluateLight returns radiance emitted at the hit point
	EvaluateLight(si *core.SurfaceInteraction, textures Textures) core.Vec3

	// ScatterRay proposes the next direction given the incoming one.
	// Returning false terminates the path.
	ScatterRay(si *core.SurfaceInteraction, direction core.Vec3, sampler core.Sampler, textures Textures) (ScatterResult, bool)

	// Pdf returns the density of direction under this material's sampling scheme
	Pdf(direction, normal core.Vec3) float64
}

// ScatterResult is the outcome of ScatterRay
type ScatterResult struct {
	Direction core.Vec3
	HasPdf    bool // direction was drawn from a density, next-event estimation applies
}

// Kind names a material variant
type Kind string

// Material kinds
const (
	KindDiffuse  Kind = "diffuse"
	KindMetallic Kind = "metallic"
	KindGlass    Kind = "glass"
	KindEmissive Kind = "emissive"
)

// KindOf returns the variant of m
func KindOf(m Material) Kind {
	switch m.(type) {
	case *Diffuse:
		return KindDiffuse
	case *Metallic:
		return KindMetallic
	case *Glass:
		return KindGlass
	case *Emissive:
		return KindEmissive
	}
	return ""
}

// noEmission is embedded by variants that do not emit light
type noEmission struct{}

func (noEmission) EvaluateLight(*core.SurfaceInteraction, Textures) core.Vec3 {
	return core.Vec3{}
}

// flipAbove returns dir mirrored into the hemisphere of normal when it points below
func flipAbove(dir, normal core.Vec3) core.Vec3 {
	if dir.Dot(normal) < 0 {
		return dir.Negate()
	}
	return dir
}
