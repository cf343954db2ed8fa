package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
)

// oklchToRGB converts OKLCH (lightness 0-1, chroma, hue in degrees) to linear RGB
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0
	a := c * math.Cos(hRad)
	bb := c * math.Sin(hRad)

	// OKLAB to LMS, cubed
	lc := math.Pow(l+0.3963377774*a+0.2158037573*bb, 3)
	mc := math.Pow(l-0.1055613458*a-0.0638541728*bb, 3)
	sc := math.Pow(l-0.0894841775*a-1.2914855480*bb, 3)

	rgb := core.NewVec3(
		+4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	)
	return rgb.Clamp(0, 1)
}

// NewSphereGridScene creates a gridSize x gridSize grid of metallic spheres
// with hue varying along X and chroma along Z.
func NewSphereGridScene(gridSize int) (*Scene, error) {
	if gridSize < 2 {
		return nil, fmt.Errorf("sphere grid: size %d is below 2", gridSize)
	}

	b := newBuilder("spheregrid")
	b.s.Camera = CameraConfig{
		Center:   core.NewVec3(4.5, 6, 18),
		LookAt:   core.NewVec3(4.5, 0.8, 4.5),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
		Aperture: 0.02,
	}

	b.light(lights.NewSphericalLight(core.NewVec3(20, 25, 20), 8, core.NewVec3(1, 0.96, 0.83), 12))

	ground := geometry.NewQuadMesh("ground", 60, 60)
	ground.Translate(core.NewVec3(4.5, 0, 4.5))
	b.object(ground, b.diffuse(core.NewVec3(0.5, 0.5, 0.5)))

	const targetArea = 9.0
	spacing := targetArea / float64(gridSize-1)
	radius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	const baseLightness, minChroma, maxChroma = 0.65, 0.05, 0.25
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2 + 4.5
			z := float64(j)*spacing - targetArea/2 + 4.5

			hue := float64(i) / float64(gridSize-1) * 360
			chroma := minChroma + float64(j)/float64(gridSize-1)*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			roughness := 0.05 + 0.1*float64((i+j)%3)/2

			mat := b.metallic(oklchToRGB(lightness, chroma, hue), roughness)
			mesh := geometry.NewSphereMesh(fmt.Sprintf("sphere-%d-%d", i, j), radius, 16, 8)
			mesh.Translate(core.NewVec3(x, radius, z))
			b.object(mesh, mat)
		}
	}

	return b.build()
}
