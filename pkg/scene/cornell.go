package scene

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewCornellScene creates the classic Cornell box with a metal and a glass
// sphere, lit from below the ceiling by a spherical light.
func NewCornellScene() (*Scene, error) {
	const boxSize = 555.0
	const half = boxSize / 2

	b := newBuilder("cornell")
	b.s.BlackBackground = true
	b.s.Camera = CameraConfig{
		Center: core.NewVec3(half, half, -800),
		LookAt: core.NewVec3(half, half, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   40,
	}

	white := b.diffuse(core.NewVec3(0.73, 0.73, 0.73))
	red := b.diffuse(core.NewVec3(0.65, 0.05, 0.05))
	green := b.diffuse(core.NewVec3(0.12, 0.45, 0.15))

	// Walls are +Y facing quads rotated to face into the box
	walls := []struct {
		name   string
		axis   core.Vec3
		angle  float64
		center core.Vec3
		mat    int
	}{
		{"floor", core.NewVec3(1, 0, 0), 0, core.NewVec3(half, 0, half), white},
		{"ceiling", core.NewVec3(1, 0, 0), math.Pi, core.NewVec3(half, boxSize, half), white},
		{"back", core.NewVec3(1, 0, 0), -math.Pi / 2, core.NewVec3(half, half, boxSize), white},
		{"left", core.NewVec3(0, 0, 1), -math.Pi / 2, core.NewVec3(0, half, half), red},
		{"right", core.NewVec3(0, 0, 1), math.Pi / 2, core.NewVec3(boxSize, half, half), green},
	}
	for _, w := range walls {
		mesh := geometry.NewQuadMesh(w.name, boxSize, boxSize)
		if w.angle != 0 {
			mesh.Rotate(w.axis, w.angle)
		}
		mesh.Translate(w.center)
		b.object(mesh, w.mat)
	}

	b.sphere("metal", core.NewVec3(185, 82.5, 169), 82.5, b.metallic(core.NewVec3(0.8, 0.8, 0.9), 0))
	b.sphere("glass", core.NewVec3(370, 90, 351), 90, b.material(material.NewGlass(1.5, material.NoTexture)))

	lightPos := core.NewVec3(half, boxSize-60, half)
	b.light(lights.NewSphericalLight(lightPos, 40, core.NewVec3(1, 1, 1), 15))
	// Visible emitter, kept inside the light sphere so shadow rays stop short of it
	b.sphere("lamp", lightPos, 39, b.emissive(core.NewVec3(15, 15, 15)))

	return b.build()
}
