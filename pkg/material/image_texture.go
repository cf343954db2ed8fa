package material

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ImageTexture samples a raster image with nearest filtering. UVs are clamped
// to [0, 1]; v = 0 is the bottom row.
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec4 // Row-major: Pixels[y*Width + x]
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec4) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Evaluate samples the texture at the hit uv
func (t *ImageTexture) Evaluate(si *core.SurfaceInteraction) core.Vec4 {
	return t.At(si.UV)
}

// At samples the texture at uv
func (t *ImageTexture) At(uv core.Vec2) core.Vec4 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec4From(MissingTextureColor, 1)
	}
	u := math.Max(0, math.Min(1, uv.X))
	v := 1 - math.Max(0, math.Min(1, uv.Y))

	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.Pixels[y*t.Width+x]
}
