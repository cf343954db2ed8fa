package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// NewSphereMesh tessellates a UV sphere centered at the origin. Normals point
// outward; u runs around the equator and v from the south to the north pole.
func NewSphereMesh(name string, radius float64, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	vertices := make([]Vertex, 0, (segments+1)*(rings+1))
	for r := 0; r <= rings; r++ {
		v := float64(r) / float64(rings)
		theta := math.Pi * (1 - v) // pi at the south pole
		for s := 0; s <= segments; s++ {
			u := float64(s) / float64(segments)
			phi := 2 * math.Pi * u
			n := core.NewVec3(math.Sin(theta)*math.Cos(phi), math.Cos(theta), -math.Sin(theta)*math.Sin(phi))
			vertices = append(vertices, Vertex{
				Position: n.Multiply(radius),
				Normal:   n,
				UV:       core.NewVec2(u, v),
			})
		}
	}

	indices := make([]uint32, 0, segments*rings*6)
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			// Counter-clockwise seen from outside
			if r != 0 {
				indices = append(indices, a, a+1, b)
			}
			if r != rings-1 {
				indices = append(indices, a+1, b+1, b)
			}
		}
	}

	m, _ := NewMesh(name, vertices, indices)
	return m
}

// NewQuadMesh creates a width x depth rectangle in the XZ plane facing +Y
func NewQuadMesh(name string, width, depth float64) *Mesh {
	hw, hd := width/2, depth/2
	up := core.NewVec3(0, 1, 0)
	vertices := []Vertex{
		{Position: core.NewVec3(-hw, 0, hd), Normal: up, UV: core.NewVec2(0, 0)},
		{Position: core.NewVec3(hw, 0, hd), Normal: up, UV: core.NewVec2(1, 0)},
		{Position: core.NewVec3(hw, 0, -hd), Normal: up, UV: core.NewVec2(1, 1)},
		{Position: core.NewVec3(-hw, 0, -hd), Normal: up, UV: core.NewVec2(0, 1)},
	}
	m, _ := NewMesh(name, vertices, []uint32{0, 1, 2, 0, 2, 3})
	return m
}

// NewBoxMesh creates an axis-aligned box with the given full extents and
// flat per-face normals.
func NewBoxMesh(name string, size core.Vec3) *Mesh {
	h := size.Multiply(0.5)
	faces := []struct {
		normal, u, v core.Vec3
	}{
		{core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1), core.NewVec3(0, 1, 0)},
		{core.NewVec3(-1, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 1, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1)},
		{core.NewVec3(0, -1, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1)},
		{core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 0, -1), core.NewVec3(-1, 0, 0), core.NewVec3(0, 1, 0)},
	}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		center := f.normal.MultiplyVec(h)
		du := f.u.MultiplyVec(h)
		dv := f.v.MultiplyVec(h)
		corners := [4]struct {
			su, sv float64
		}{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, c := range corners {
			vertices = append(vertices, Vertex{
				Position: center.Add(du.Multiply(c.su)).Add(dv.Multiply(c.sv)),
				Normal:   f.normal,
				UV:       core.NewVec2((c.su+1)/2, (c.sv+1)/2),
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	m, _ := NewMesh(name, vertices, indices)
	return m
}
