package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Metallic is a fuzzy mirror: the reflected direction is offset by a random
// point in a sphere of radius Roughness. It never carries a pdf.
type Metallic struct {
	noEmission
	Albedo    TextureRef
	Roughness float64
}

// NewMetallic creates a metallic material
func NewMetallic(albedo TextureRef, roughness float64) *Metallic {
	return &Metallic{Albedo: albedo, Roughness: roughness}
}

// Evaluate returns the albedo texture color
func (m *Metallic) Evaluate(si *core.SurfaceInteraction, textures Textures) core.Vec3 {
	return textures.Color(m.Albedo, si)
}

// ScatterRay reflects and perturbs the direction
func (m *Metallic) ScatterRay(si *core.SurfaceInteraction, direction core.Vec3, sampler core.Sampler, _ Textures) (ScatterResult, bool) {
	reflected := direction.Normalize().Reflect(si.Normal)
	if m.Roughness > 0 {
		fuzz := core.SamplePointInUnitSphere(sampler.Get3D()).Multiply(m.Roughness)
		reflected = reflected.Add(fuzz).Normalize()
	}
	return ScatterResult{Direction: flipAbove(reflected, si.Normal)}, true
}

// Pdf is unused for a specular lobe; the cosine density is reported for completeness
func (m *Metallic) Pdf(direction, normal core.Vec3) float64 {
	return cosinePdf(direction, normal)
}
