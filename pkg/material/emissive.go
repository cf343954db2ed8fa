package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Emissive emits Emission scaled by its texture and terminates paths
type Emissive struct {
	Emission core.Vec3
	Texture  TextureRef
}

// NewEmissive creates an emissive material
func NewEmissive(emission core.Vec3, texture TextureRef) *Emissive {
	return &Emissive{Emission: emission, Texture: texture}
}

// Evaluate returns white so that emission is not attenuated
func (e *Emissive) Evaluate(*core.SurfaceInteraction, Textures) core.Vec3 {
	return core.NewVec3(1, 1, 1)
}

// EvaluateLight returns emission times the texture color
func (e *Emissive) EvaluateLight(si *core.SurfaceInteraction, textures Textures) core.Vec3 {
	return e.Emission.MultiplyVec(textures.Color(e.Texture, si))
}

// ScatterRay always terminates the path
func (e *Emissive) ScatterRay(*core.SurfaceInteraction, core.Vec3, core.Sampler, Textures) (ScatterResult, bool) {
	return ScatterResult{}, false
}

// Pdf is zero; emitters never scatter
func (e *Emissive) Pdf(core.Vec3, core.Vec3) float64 {
	return 0
}
