package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Hits closer than this along the ray are ignored
const triangleEpsilon = 1e-7

// watertight holds the ray-space edge functions of one triangle test
type watertight struct {
	e0, e1, e2 float64
	det        float64
	t          float64
}

// intersectWatertight runs the watertight ray-triangle test: translate to the
// ray origin, permute so the dominant direction axis becomes z, shear, and
// evaluate edge functions. The division by det is deferred until a hit is
// certain.
func intersectWatertight(ray *core.Ray, p0, p1, p2 core.Vec3) (watertight, bool) {
	var w watertight

	p0t := p0.Subtract(ray.Origin)
	p1t := p1.Subtract(ray.Origin)
	p2t := p2.Subtract(ray.Origin)

	kz := ray.Direction.Abs().MaxDimension()
	kx := kz + 1
	if kx == 3 {
		kx = 0
	}
	ky := kx + 1
	if ky == 3 {
		ky = 0
	}
	d := ray.Direction.Permute(kx, ky, kz)
	p0t = p0t.Permute(kx, ky, kz)
	p1t = p1t.Permute(kx, ky, kz)
	p2t = p2t.Permute(kx, ky, kz)

	sz := 1.0 / d.Z
	sx := -d.X * sz
	sy := -d.Y * sz
	p0t.X += sx * p0t.Z
	p0t.Y += sy * p0t.Z
	p1t.X += sx * p1t.Z
	p1t.Y += sy * p1t.Z
	p2t.X += sx * p2t.Z
	p2t.Y += sy * p2t.Z

	w.e0 = p1t.X*p2t.Y - p1t.Y*p2t.X
	w.e1 = p2t.X*p0t.Y - p2t.Y*p0t.X
	w.e2 = p0t.X*p1t.Y - p0t.Y*p1t.X

	if (w.e0 < 0 || w.e1 < 0 || w.e2 < 0) && (w.e0 > 0 || w.e1 > 0 || w.e2 > 0) {
		return w, false
	}
	w.det = w.e0 + w.e1 + w.e2
	if w.det == 0 {
		return w, false
	}

	p0t.Z *= sz
	p1t.Z *= sz
	p2t.Z *= sz
	tScaled := w.e0*p0t.Z + w.e1*p1t.Z + w.e2*p2t.Z

	// Compare in det-scaled space so no division happens on a miss
	// Accepts t in [epsilon, TMax)
	if w.det < 0 && (tScaled > triangleEpsilon*w.det || tScaled <= ray.TMax*w.det) {
		return w, false
	}
	if w.det > 0 && (tScaled < triangleEpsilon*w.det || tScaled >= ray.TMax*w.det) {
		return w, false
	}

	w.t = tScaled / w.det
	if math.IsNaN(w.t) {
		return w, false
	}
	return w, true
}

func (m *Mesh) triangle(i int) (*Vertex, *Vertex, *Vertex) {
	i *= 3
	return &m.world[m.indices[i]], &m.world[m.indices[i+1]], &m.world[m.indices[i+2]]
}

// intersectTriangle fills si with the interpolated surface data of triangle i
func (m *Mesh) intersectTriangle(i int, ray *core.Ray, si *core.SurfaceInteraction) bool {
	v0, v1, v2 := m.triangle(i)
	w, ok := intersectWatertight(ray, v0.Position, v1.Position, v2.Position)
	if !ok {
		return false
	}

	invDet := 1.0 / w.det
	b0, b1, b2 := w.e0*invDet, w.e1*invDet, w.e2*invDet

	si.Position = v0.Position.Multiply(b0).Add(v1.Position.Multiply(b1)).Add(v2.Position.Multiply(b2))
	si.Normal = v0.Normal.Multiply(b0).Add(v1.Normal.Multiply(b1)).Add(v2.Normal.Multiply(b2)).Normalize()
	si.UV = v0.UV.Multiply(b0).Add(v1.UV.Multiply(b1)).Add(v2.UV.Multiply(b2))
	si.Wo = ray.Direction.Negate().Normalize()
	si.Distance = w.t
	si.FrontFace = ray.Direction.Dot(si.Normal) < 0
	ray.TMax = w.t

	if m.normalMap != nil {
		tangent := v0.Tangent.Multiply(b0).Add(v1.Tangent.Multiply(b1)).Add(v2.Tangent.Multiply(b2))
		bitangent := v0.Bitangent.Multiply(b0).Add(v1.Bitangent.Multiply(b1)).Add(v2.Bitangent.Multiply(b2))
		tex := m.normalMap.Evaluate(si)
		n := core.NewVec3(tex.X*2-1, tex.Y*2-1, tex.Z*2-1).Normalize()
		perturb := tangent.Multiply(n.X).Add(bitangent.Multiply(n.Y)).Multiply(m.normalStrength)
		si.Normal = si.Normal.Add(perturb).Normalize()
	}
	return true
}

// intersectTriangleP is the shadow-ray test; triangles whose first vertex
// normal faces along the ray are skipped.
func (m *Mesh) intersectTriangleP(i int, ray *core.Ray) bool {
	v0, v1, v2 := m.triangle(i)
	if v0.Normal.Dot(ray.Direction) > 0 {
		return false
	}
	_, ok := intersectWatertight(ray, v0.Position, v1.Position, v2.Position)
	return ok
}
