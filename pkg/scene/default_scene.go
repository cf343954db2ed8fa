package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewDefaultScene creates spheres of every material on a checkered ground,
// lit by a distant spherical sun and the sky.
func NewDefaultScene() (*Scene, error) {
	b := newBuilder("default")
	b.s.Camera = CameraConfig{
		Center:   core.NewVec3(0, 0.75, 2),
		LookAt:   core.NewVec3(0, 0.5, -1),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
		Aperture: 0.02,
	}

	// Ground: large checkered quad instead of an infinite plane
	checker := material.NewCheckerboardTexture(200)
	checker.Even = core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6)
	checker.Odd = core.NewVec3(0.9, 0.9, 0.9)
	ground := b.material(material.NewDiffuse(b.texture(checker), 1))
	b.object(geometry.NewQuadMesh("ground", 100, 100), ground)

	red := b.material(material.NewDiffuse(b.color(core.NewVec3(0.65, 0.25, 0.2)), 0.9))
	silver := b.metallic(core.NewVec3(0.8, 0.8, 0.8), 0)
	gold := b.metallic(core.NewVec3(0.8, 0.6, 0.2), 0.3)
	glass := b.material(material.NewGlass(1.5, material.NoTexture))
	frosted := b.material(material.NewGlass(1.5, b.texture(material.NewConstantValueTexture(0.3))))
	blue := b.diffuse(core.NewVec3(0.1, 0.2, 0.5))
	glow := b.emissive(core.NewVec3(4, 2.5, 1))

	b.sphere("center", core.NewVec3(0, 0.5, -1), 0.5, red)
	b.sphere("left", core.NewVec3(-1, 0.5, -1), 0.5, silver)
	b.sphere("right", core.NewVec3(1, 0.5, -1), 0.5, gold)
	b.sphere("glass", core.NewVec3(0.5, 0.25, -0.5), 0.25, glass)
	b.sphere("frosted", core.NewVec3(-0.5, 0.25, -0.5), 0.25, frosted)
	b.sphere("inner", core.NewVec3(-0.5, 0.25, -0.5), 0.15, blue)
	b.sphere("ember", core.NewVec3(0, 0.1, -0.3), 0.1, glow)

	b.light(lights.NewSphericalLight(core.NewVec3(30, 30.5, 15), 10, core.NewVec3(1, 0.93, 0.87), 15))

	return b.build()
}
