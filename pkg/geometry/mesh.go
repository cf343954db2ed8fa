package geometry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// ErrInvalidIndices is returned when a triangle index list is malformed
var ErrInvalidIndices = errors.New("geometry: invalid triangle indices")

// Vertex is a mesh vertex. Tangent and Bitangent are derived from uvs.
type Vertex struct {
	Position  core.Vec3
	Normal    core.Vec3
	UV        core.Vec2
	Tangent   core.Vec3
	Bitangent core.Vec3
}

// Transform places a mesh in the world: position + rotation * (scale * local)
type Transform struct {
	Position core.Vec3
	Rotation mgl64.Quat
	Scale    core.Vec3
}

// IdentityTransform leaves vertices where they are
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    core.NewVec3(1, 1, 1),
	}
}

// Apply transforms a local point
func (t Transform) Apply(p core.Vec3) core.Vec3 {
	return t.Position.Add(t.rotate(p.MultiplyVec(t.Scale)))
}

// ApplyNormal transforms a local normal by the inverse transpose: inverse
// scale, then rotation
func (t Transform) ApplyNormal(n core.Vec3) core.Vec3 {
	return t.rotate(n.DivideVec(t.Scale)).Normalize()
}

func (t Transform) rotate(v core.Vec3) core.Vec3 {
	r := t.Rotation.Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return core.NewVec3(r[0], r[1], r[2])
}

// Mesh is an indexed triangle list with its own triangle BVH. Local
// vertices are kept so the mesh can be re-posed without loss.
type Mesh struct {
	Name string

	vertices []Vertex
	indices  []uint32

	transform Transform
	world     []Vertex
	triBounds []core.Bounds
	bounds    core.Bounds
	accel     *core.BVH

	normalMap      material.Texture
	normalStrength float64
}

// NewMesh creates a mesh from local vertices and a triangle index list
func NewMesh(name string, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidIndices, len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("%w: index %d out of range for %d vertices", ErrInvalidIndices, idx, len(vertices))
		}
	}

	m := &Mesh{
		Name:      name,
		vertices:  vertices,
		indices:   indices,
		transform: IdentityTransform(),
	}
	m.ApplyTransformation()
	return m, nil
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.indices) / 3
}

// Bounds returns the world-space bounds of the mesh
func (m *Mesh) Bounds() core.Bounds {
	return m.bounds
}

// WorldVertices returns the transformed vertices. Callers must not modify them.
func (m *Mesh) WorldVertices() []Vertex {
	return m.world
}

// Indices returns the triangle index list. Callers must not modify it.
func (m *Mesh) Indices() []uint32 {
	return m.indices
}

// Accel returns the triangle BVH
func (m *Mesh) Accel() *core.BVH {
	return m.accel
}

// Transform returns the current placement
func (m *Mesh) Transform() Transform {
	return m.transform
}

// SetTransform replaces the placement and recomputes world data
func (m *Mesh) SetTransform(t Transform) {
	m.transform = t
	m.ApplyTransformation()
}

// Translate moves the mesh by delta
func (m *Mesh) Translate(delta core.Vec3) {
	m.transform.Position = m.transform.Position.Add(delta)
	m.ApplyTransformation()
}

// Rotate applies an additional rotation of angle radians about axis
func (m *Mesh) Rotate(axis core.Vec3, angle float64) {
	a := axis.Normalize()
	q := mgl64.QuatRotate(angle, mgl64.Vec3{a.X, a.Y, a.Z})
	m.transform.Rotation = q.Mul(m.transform.Rotation).Normalize()
	m.ApplyTransformation()
}

// SetNormalMap attaches a tangent-space normal map. A nil texture removes it.
func (m *Mesh) SetNormalMap(tex material.Texture, strength float64) {
	m.normalMap = tex
	m.normalStrength = strength
}

// ApplyTransformation recomputes world vertices, tangent frames, triangle
// bounds, the triangle BVH and the world bounds.
func (m *Mesh) ApplyTransformation() {
	if len(m.world) != len(m.vertices) {
		m.world = make([]Vertex, len(m.vertices))
	}

	m.bounds = core.EmptyBounds()
	for i, v := range m.vertices {
		w := Vertex{
			Position: m.transform.Apply(v.Position),
			Normal:   m.transform.ApplyNormal(v.Normal),
			UV:       v.UV,
		}
		m.world[i] = w
		m.bounds = m.bounds.UnionPoint(w.Position)
	}

	m.triBounds = make([]core.Bounds, 0, m.TriangleCount())
	for i := 0; i < len(m.indices); i += 3 {
		v0, v1, v2 := &m.world[m.indices[i]], &m.world[m.indices[i+1]], &m.world[m.indices[i+2]]
		m.triBounds = append(m.triBounds, core.NewBoundsFromPoints(v0.Position, v1.Position, v2.Position))

		tangent, bitangent := triangleTangents(v0, v1, v2)
		for _, v := range []*Vertex{v0, v1, v2} {
			v.Tangent = v.Tangent.Add(tangent)
			v.Bitangent = v.Bitangent.Add(bitangent)
		}
	}
	for i := range m.world {
		m.world[i].Tangent = m.world[i].Tangent.Normalize()
		m.world[i].Bitangent = m.world[i].Bitangent.Normalize()
	}

	m.accel = core.BuildBVH(m.triBounds)
}

// triangleTangents solves the uv-to-position mapping of one triangle
func triangleTangents(v0, v1, v2 *Vertex) (core.Vec3, core.Vec3) {
	e1 := v1.Position.Subtract(v0.Position)
	e2 := v2.Position.Subtract(v0.Position)
	duv1 := v1.UV.Subtract(v0.UV)
	duv2 := v2.UV.Subtract(v0.UV)

	det := duv1.X*duv2.Y - duv1.Y*duv2.X
	if det > -1e-12 && det < 1e-12 {
		n := e1.Cross(e2).Normalize()
		if n.IsZero() {
			return core.Vec3{}, core.Vec3{}
		}
		return core.OrthonormalBasis(n)
	}

	inv := 1.0 / det
	tangent := e1.Multiply(duv2.Y).Subtract(e2.Multiply(duv1.Y)).Multiply(inv)
	bitangent := e2.Multiply(duv1.X).Subtract(e1.Multiply(duv2.X)).Multiply(inv)
	return tangent.Normalize(), bitangent.Normalize()
}

// Intersect finds the nearest triangle hit, tightening ray.TMax
func (m *Mesh) Intersect(ray *core.Ray, si *core.SurfaceInteraction) bool {
	return m.accel.Intersect(ray, m, si)
}

// IntersectP reports whether any front-facing triangle is hit within ray.TMax
func (m *Mesh) IntersectP(ray *core.Ray) bool {
	return m.accel.HasIntersections(ray, m)
}

// IntersectPrimitive tests triangle i; it lets the mesh BVH call back into the mesh
func (m *Mesh) IntersectPrimitive(i int, ray *core.Ray, si *core.SurfaceInteraction) bool {
	return m.intersectTriangle(i, ray, si)
}

// IntersectPrimitiveP is the any-hit counterpart of IntersectPrimitive
func (m *Mesh) IntersectPrimitiveP(i int, ray *core.Ray) bool {
	return m.intersectTriangleP(i, ray)
}
