package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Diffuse mixes a cosine-weighted lobe with a mirror lobe. Roughness is the
// probability of taking the diffuse lobe, so 1 is fully Lambertian.
type Diffuse struct {
	noEmission
	Albedo    TextureRef
	Roughness float64
}

// NewDiffuse creates a diffuse material
func NewDiffuse(albedo TextureRef, roughness float64) *Diffuse {
	return &Diffuse{Albedo: albedo, Roughness: roughness}
}

// Evaluate returns the albedo texture color
func (d *Diffuse) Evaluate(si *core.SurfaceInteraction, textures Textures) core.Vec3 {
	return textures.Color(d.Albedo, si)
}

// ScatterRay samples the diffuse lobe with probability Roughness, else mirrors
func (d *Diffuse) ScatterRay(si *core.SurfaceInteraction, direction core.Vec3, sampler core.Sampler, _ Textures) (ScatterResult, bool) {
	var result ScatterResult
	if sampler.Get1D() < d.Roughness {
		result.HasPdf = true
		result.Direction = core.SampleCosineHemisphere(si.Normal, sampler.Get2D())
	} else {
		result.Direction = direction.Normalize().Reflect(si.Normal)
	}
	result.Direction = flipAbove(result.Direction, si.Normal)
	return result, true
}

// Pdf is the cosine-weighted hemisphere density
func (d *Diffuse) Pdf(direction, normal core.Vec3) float64 {
	return cosinePdf(direction, normal)
}
