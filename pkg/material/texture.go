package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Texture provides spatially varying values for materials and the environment
type Texture interface {
	Evaluate(si *core.SurfaceInteraction) core.Vec4
}

// TextureRef is an index into the scene texture registry
type TextureRef int

// NoTexture marks an unset texture reference
const NoTexture TextureRef = -1

// MissingTextureColor is returned wherever a texture reference cannot be resolved
var MissingTextureColor = core.NewVec3(1, 0, 1)

// Textures is the registry materials resolve their references against
type Textures []Texture

// Lookup returns the texture for ref, or false when ref is unset or dangling
func (ts Textures) Lookup(ref TextureRef) (Texture, bool) {
	if ref < 0 || int(ref) >= len(ts) || ts[ref] == nil {
		return nil, false
	}
	return ts[ref], true
}

// Evaluate samples ref at the hit point. Unresolvable references yield the
// missing texture color with full alpha.
func (ts Textures) Evaluate(ref TextureRef, si *core.SurfaceInteraction) core.Vec4 {
	tex, ok := ts.Lookup(ref)
	if !ok {
		return core.Vec4From(MissingTextureColor, 1)
	}
	return tex.Evaluate(si)
}

// Color samples ref and drops the fourth channel
func (ts Textures) Color(ref TextureRef, si *core.SurfaceInteraction) core.Vec3 {
	return ts.Evaluate(ref, si).XYZ()
}

// Value samples ref as a scalar (first channel)
func (ts Textures) Value(ref TextureRef, si *core.SurfaceInteraction) float64 {
	return ts.Evaluate(ref, si).X
}

// ConstantTexture returns the same color everywhere
type ConstantTexture struct {
	Color core.Vec3
}

// NewConstantTexture creates a uniform color texture
func NewConstantTexture(color core.Vec3) *ConstantTexture {
	return &ConstantTexture{Color: color}
}

// Evaluate returns the constant color
func (c *ConstantTexture) Evaluate(*core.SurfaceInteraction) core.Vec4 {
	return core.Vec4From(c.Color, 1)
}

// ConstantValueTexture broadcasts one scalar to every channel, used for roughness maps
type ConstantValueTexture struct {
	Value float64
}

// NewConstantValueTexture creates a uniform scalar texture
func NewConstantValueTexture(value float64) *ConstantValueTexture {
	return &ConstantValueTexture{Value: value}
}

// Evaluate returns the value in every channel
func (c *ConstantValueTexture) Evaluate(*core.SurfaceInteraction) core.Vec4 {
	return core.NewVec4(c.Value, c.Value, c.Value, c.Value)
}
