package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// builder assembles a scene and keeps the first error, so preset code can
// chain registrations and check once.
type builder struct {
	s   *Scene
	err error
}

func newBuilder(name string) *builder {
	return &builder{s: New(name)}
}

func (b *builder) texture(tex material.Texture) material.TextureRef {
	if b.err != nil {
		return material.NoTexture
	}
	ref, err := b.s.AddTexture(tex)
	b.err = err
	return ref
}

func (b *builder) color(c core.Vec3) material.TextureRef {
	return b.texture(material.NewConstantTexture(c))
}

func (b *builder) material(mat material.Material) int {
	if b.err != nil {
		return -1
	}
	idx, err := b.s.AddMaterial(mat)
	b.err = err
	return idx
}

func (b *builder) diffuse(c core.Vec3) int {
	return b.material(material.NewDiffuse(b.color(c), 1))
}

func (b *builder) metallic(c core.Vec3, roughness float64) int {
	return b.material(material.NewMetallic(b.color(c), roughness))
}

func (b *builder) emissive(c core.Vec3) int {
	return b.material(material.NewEmissive(c, b.color(core.NewVec3(1, 1, 1))))
}

// object registers mesh and places it with material mat
func (b *builder) object(mesh *geometry.Mesh, mat int) int {
	if b.err != nil {
		return -1
	}
	meshIdx, err := b.s.AddMesh(mesh)
	if err != nil {
		b.err = err
		return -1
	}
	idx, err := b.s.AddObject(mesh.Name, meshIdx, mat)
	b.err = err
	return idx
}

func (b *builder) sphere(name string, center core.Vec3, radius float64, mat int) int {
	mesh := geometry.NewSphereMesh(name, radius, 32, 16)
	mesh.Translate(center)
	return b.object(mesh, mat)
}

func (b *builder) light(light lights.Light) {
	if b.err != nil {
		return
	}
	_, b.err = b.s.AddLight(light)
}

func (b *builder) build() (*Scene, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.s.Build()
	return b.s, nil
}
