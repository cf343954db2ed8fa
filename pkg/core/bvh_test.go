package core

import (
	"math"
	"math/rand"
	"testing"
)

// mockBoxes treats every bounds as a solid box primitive
type mockBoxes struct {
	boxes []Bounds
	tests int
}

func (m *mockBoxes) IntersectPrimitive(i int, ray *Ray, si *SurfaceInteraction) bool {
	m.tests++
	t0, _, ok := m.boxes[i].IntersectP(ray)
	if !ok || t0 <= 0 {
		return false
	}
	ray.TMax = t0
	si.Distance = t0
	si.ObjectIndex = i
	return true
}

func (m *mockBoxes) IntersectPrimitiveP(i int, ray *Ray) bool {
	m.tests++
	t0, _, ok := m.boxes[i].IntersectP(ray)
	return ok && t0 > 0
}

// bruteForce returns the nearest hit over all boxes, or -1
func (m *mockBoxes) bruteForce(ray Ray) (int, float64) {
	best, bestT := -1, math.Inf(1)
	for i, b := range m.boxes {
		r := ray
		t0, _, ok := b.IntersectP(&r)
		if ok && t0 > 0 && t0 < bestT {
			best, bestT = i, t0
		}
	}
	return best, bestT
}

func randomBoxes(seed int64, n int) *mockBoxes {
	random := rand.New(rand.NewSource(seed))
	boxes := make([]Bounds, n)
	for i := range boxes {
		boxes[i] = randomBounds(random, 20)
	}
	return &mockBoxes{boxes: boxes}
}

// pathTo returns the node offsets from the root to the given leaf
func pathTo(bvh *BVH, leaf int32) []int32 {
	var path []int32
	idx := int32(0)
	for {
		path = append(path, idx)
		node := bvh.Nodes()[idx]
		if node.IsLeaf() {
			return path
		}
		if leaf < node.Offset {
			idx++
		} else {
			idx = node.Offset
		}
	}
}

func TestBVH_EmptyInput(t *testing.T) {
	bvh := BuildBVH(nil)
	if !bvh.Empty() {
		t.Fatal("Expected empty BVH for no bounds")
	}

	prims := &mockBoxes{}
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1))
	var si SurfaceInteraction
	if bvh.Intersect(&ray, prims, &si) || bvh.HasIntersections(&ray, prims) {
		t.Error("Empty BVH must never report a hit")
	}
}

func TestBVH_SingleBoundsIsRootLeaf(t *testing.T) {
	bvh := BuildBVH([]Bounds{NewBounds(NewVec3(0, 0, 0), NewVec3(1, 1, 1))})

	stats := bvh.Stats()
	if stats.TotalNodes != 1 || stats.LeafNodes != 1 {
		t.Fatalf("Expected a single leaf, got %+v", stats)
	}
	if bvh.LeafOf(0) != 0 {
		t.Errorf("Expected primitive 0 in leaf 0, got %d", bvh.LeafOf(0))
	}
}

func TestBVH_DegenerateCentroidsForceLeaf(t *testing.T) {
	bounds := make([]Bounds, 10)
	for i := range bounds {
		// Nested boxes sharing one centroid
		s := float64(i + 1)
		bounds[i] = NewBounds(NewVec3(-s, -s, -s), NewVec3(s, s, s))
	}

	bvh := BuildBVH(bounds)
	stats := bvh.Stats()
	if stats.TotalNodes != 1 {
		t.Errorf("Expected forced leaf, got %d nodes", stats.TotalNodes)
	}
	if stats.MaxLeafSize != 10 {
		t.Errorf("Expected 10 primitives in the leaf, got %d", stats.MaxLeafSize)
	}
}

func TestBVH_FlattenLayout(t *testing.T) {
	prims := randomBoxes(7, 200)
	bvh := BuildBVH(prims.boxes)
	nodes := bvh.Nodes()

	stats := bvh.Stats()
	if stats.TotalNodes != len(nodes) {
		t.Fatalf("Stats walked %d nodes, array has %d", stats.TotalNodes, len(nodes))
	}
	if stats.LeafNodes != stats.InteriorNodes+1 {
		t.Errorf("Binary tree expected: %d leaves, %d interior", stats.LeafNodes, stats.InteriorNodes)
	}

	seen := make(map[int]bool)
	for i := range nodes {
		node := nodes[i]
		if node.IsLeaf() {
			for j := node.Offset; j < node.Offset+node.NPrimitives; j++ {
				p := bvh.primIndex[j]
				if seen[p] {
					t.Errorf("Primitive %d referenced twice", p)
				}
				seen[p] = true
				if bvh.LeafOf(p) != i {
					t.Errorf("Primitive %d maps to leaf %d, found in %d", p, bvh.LeafOf(p), i)
				}
				if !node.Bounds.Contains(prims.boxes[p]) {
					t.Errorf("Leaf %d does not contain primitive %d", i, p)
				}
			}
			continue
		}
		first, second := nodes[i+1], nodes[node.Offset]
		if !node.Bounds.Contains(first.Bounds) || !node.Bounds.Contains(second.Bounds) {
			t.Errorf("Interior node %d does not contain its children", i)
		}
		if int(node.Offset) <= i+1 {
			t.Errorf("Second child offset %d must follow first child %d", node.Offset, i+1)
		}
	}
	if len(seen) != len(prims.boxes) {
		t.Errorf("Expected %d primitives in leaves, found %d", len(prims.boxes), len(seen))
	}
}

func TestBVH_IntersectMatchesBruteForce(t *testing.T) {
	prims := randomBoxes(42, 300)
	bvh := BuildBVH(prims.boxes)
	random := rand.New(rand.NewSource(43))

	for i := 0; i < 1000; i++ {
		origin := NewVec3(random.Float64()*40-10, random.Float64()*40-10, random.Float64()*40-10)
		dir := SampleOnUnitSphere(NewVec2(random.Float64(), random.Float64()))
		ray := NewRay(origin, dir)

		wantIdx, wantT := prims.bruteForce(ray)

		var si SurfaceInteraction
		r := ray
		hit := bvh.Intersect(&r, prims, &si)
		if hit != (wantIdx >= 0) {
			t.Fatalf("Ray %d: Intersect=%v, brute force hit=%v", i, hit, wantIdx >= 0)
		}
		if hit && math.Abs(si.Distance-wantT) > 1e-9 {
			t.Errorf("Ray %d: nearest t=%f, brute force t=%f", i, si.Distance, wantT)
		}

		r = ray
		if got := bvh.HasIntersections(&r, prims); got != (wantIdx >= 0) {
			t.Errorf("Ray %d: HasIntersections=%v, brute force hit=%v", i, got, wantIdx >= 0)
		}
	}
}

func TestBVH_IsolatedObjectIsFound(t *testing.T) {
	boxes := []Bounds{
		NewBounds(NewVec3(-100, -100, -100), NewVec3(-90, -90, -90)),
		NewBounds(NewVec3(90, 90, 90), NewVec3(100, 100, 100)),
		NewBounds(NewVec3(-100, 90, -100), NewVec3(-90, 100, -90)),
		NewBounds(NewVec3(0, 0, 0), NewVec3(1, 1, 1)),
	}
	prims := &mockBoxes{boxes: boxes}
	bvh := BuildBVH(boxes)

	ray := NewRay(NewVec3(0.5, 0.5, -10), NewVec3(0, 0, 1))
	var si SurfaceInteraction
	if !bvh.Intersect(&ray, prims, &si) {
		t.Fatal("Expected the isolated box to be hit")
	}
	if si.ObjectIndex != 3 {
		t.Errorf("Expected object 3, got %d", si.ObjectIndex)
	}
	if math.Abs(ray.TMax-10) > 1e-9 {
		t.Errorf("Expected TMax tightened to 10, got %f", ray.TMax)
	}
}

func TestBVH_MissWhenPointingAway(t *testing.T) {
	prims := randomBoxes(3, 50)
	bvh := BuildBVH(prims.boxes)

	// All boxes live in [0, 21]^3
	ray := NewRay(NewVec3(-5, -5, -5), NewVec3(-1, -0.5, -0.25))
	var si SurfaceInteraction
	if bvh.Intersect(&ray, prims, &si) {
		t.Error("Intersect reported a hit for a ray pointing away from the scene")
	}
	ray = NewRay(NewVec3(-5, -5, -5), NewVec3(-1, -0.5, -0.25))
	if bvh.HasIntersections(&ray, prims) {
		t.Error("HasIntersections reported a hit for a ray pointing away from the scene")
	}
}

func TestBVH_HasIntersectionsStopsEarly(t *testing.T) {
	boxes := make([]Bounds, 16)
	for i := range boxes {
		z := float64(i) * 3
		boxes[i] = NewBounds(NewVec3(-1, -1, z), NewVec3(1, 1, z+1))
	}
	bvh := BuildBVH(boxes)

	// Travelling toward -z the first child in array order holds the farthest boxes
	anyHit := &mockBoxes{boxes: boxes}
	ray := NewRay(NewVec3(0, 0, 60), NewVec3(0, 0, -1))
	if !bvh.HasIntersections(&ray, anyHit) {
		t.Fatal("Expected a hit")
	}

	nearest := &mockBoxes{boxes: boxes}
	ray = NewRay(NewVec3(0, 0, 60), NewVec3(0, 0, -1))
	var si SurfaceInteraction
	bvh.Intersect(&ray, nearest, &si)

	if si.ObjectIndex != len(boxes)-1 {
		t.Errorf("Expected nearest box %d, got %d", len(boxes)-1, si.ObjectIndex)
	}
	if anyHit.tests >= nearest.tests {
		t.Errorf("Any-hit query tested %d primitives, nearest-hit %d", anyHit.tests, nearest.tests)
	}
}

func TestBVH_RecalculateObjectOnlyGrows(t *testing.T) {
	prims := randomBoxes(11, 64)
	bvh := BuildBVH(prims.boxes)

	before := make([]Bounds, len(bvh.Nodes()))
	for i, n := range bvh.Nodes() {
		before[i] = n.Bounds
	}

	const moved = 17
	newBounds := NewBounds(NewVec3(50, 50, 50), NewVec3(51, 52, 53))
	prims.boxes[moved] = newBounds
	bvh.RecalculateObject(moved, newBounds)

	path := pathTo(bvh, int32(bvh.LeafOf(moved)))
	if path[0] != 0 || path[len(path)-1] != int32(bvh.LeafOf(moved)) {
		t.Fatalf("Unexpected path %v", path)
	}
	for _, idx := range path {
		if !bvh.Nodes()[idx].Bounds.Contains(newBounds) {
			t.Errorf("Ancestor %d does not contain the moved bounds", idx)
		}
	}
	for i, n := range bvh.Nodes() {
		if !n.Bounds.Contains(before[i]) {
			t.Errorf("Node %d shrank after an incremental update", i)
		}
	}

	ray := NewRay(NewVec3(50.5, 51, 0), NewVec3(0, 0, 1))
	var si SurfaceInteraction
	if !bvh.Intersect(&ray, prims, &si) || si.ObjectIndex != moved {
		t.Errorf("Expected moved object %d to be hit, got hit object %d", moved, si.ObjectIndex)
	}
}
