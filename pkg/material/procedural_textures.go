package material

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// CheckerboardTexture alternates two colors on a uv grid with Scale cells per unit
type CheckerboardTexture struct {
	Scale float64
	Even  core.Vec3
	Odd   core.Vec3
}

// NewCheckerboardTexture creates a black and white checkerboard
func NewCheckerboardTexture(scale float64) *CheckerboardTexture {
	return &CheckerboardTexture{
		Scale: scale,
		Even:  core.NewVec3(0, 0, 0),
		Odd:   core.NewVec3(1, 1, 1),
	}
}

// Evaluate picks the cell color at the hit uv
func (c *CheckerboardTexture) Evaluate(si *core.SurfaceInteraction) core.Vec4 {
	u := math.Floor(si.UV.X * c.Scale)
	v := math.Floor(si.UV.Y * c.Scale)
	if (int(u+v)%2+2)%2 == 0 {
		return core.Vec4From(c.Even, 1)
	}
	return core.Vec4From(c.Odd, 1)
}

// UVTexture visualizes texture coordinates as (u, v, 0)
type UVTexture struct{}

// NewUVTexture creates a uv debug texture
func NewUVTexture() *UVTexture {
	return &UVTexture{}
}

// Evaluate returns the hit uv as a color
func (UVTexture) Evaluate(si *core.SurfaceInteraction) core.Vec4 {
	return core.NewVec4(si.UV.X, si.UV.Y, 0, 1)
}
