package core

// Primitives is the set of things a BVH is built over. The BVH only knows
// their bounds; intersection is delegated back through this interface.
type Primitives interface {
	// IntersectPrimitive tests primitive i, tightening ray.TMax and filling si on a closer hit
	IntersectPrimitive(i int, ray *Ray, si *SurfaceInteraction) bool
	// IntersectPrimitiveP reports whether primitive i is hit within ray.TMax
	IntersectPrimitiveP(i int, ray *Ray) bool
}

// FlatNode is one entry of the linearized BVH. Interior nodes store the
// offset of their second child; the first child is the next entry.
type FlatNode struct {
	Bounds      Bounds
	Offset      int32 // primitive offset for leaves, second child offset for interior nodes
	NPrimitives int32 // 0 for interior nodes
	Axis        uint8
}

// IsLeaf reports whether the node holds primitives
func (n *FlatNode) IsLeaf() bool {
	return n.NPrimitives > 0
}

// buildNode lives in the build arena and refers to children by arena index
type buildNode struct {
	bounds     Bounds
	children   [2]int32
	axis       uint8
	offset     int32
	nPrims     int32
	isInterior bool
}

type primitiveInfo struct {
	index    int
	bounds   Bounds
	centroid Vec3
}

// BVH is a bounding volume hierarchy over a list of bounds, stored as a
// depth-first array.
type BVH struct {
	nodes     []FlatNode
	primIndex []int // reordered primitive indices referenced by leaves
	objToLeaf []int32
}

// BuildBVH builds a hierarchy over the given bounds. Primitive i of the
// Primitives passed to Intersect must correspond to bounds[i].
func BuildBVH(bounds []Bounds) *BVH {
	bvh := &BVH{objToLeaf: make([]int32, len(bounds))}
	if len(bounds) == 0 {
		return bvh
	}

	prims := make([]primitiveInfo, len(bounds))
	for i, b := range bounds {
		prims[i] = primitiveInfo{index: i, bounds: b, centroid: b.Centroid()}
	}

	b := &bvhBuilder{
		prims:   prims,
		scratch: make([]primitiveInfo, len(prims)),
		arena:   make([]buildNode, 0, 2*len(prims)-1),
		ordered: make([]int, 0, len(prims)),
	}
	root := b.build(0, len(prims))

	bvh.primIndex = b.ordered
	bvh.nodes = make([]FlatNode, 0, len(b.arena))
	bvh.flatten(b.arena, root)
	return bvh
}

type bvhBuilder struct {
	prims   []primitiveInfo
	scratch []primitiveInfo
	arena   []buildNode
	ordered []int
}

func (b *bvhBuilder) newNode() int32 {
	b.arena = append(b.arena, buildNode{})
	return int32(len(b.arena) - 1)
}

func (b *bvhBuilder) leaf(id int32, start, end int, bounds Bounds) int32 {
	offset := len(b.ordered)
	for i := start; i < end; i++ {
		b.ordered = append(b.ordered, b.prims[i].index)
	}
	b.arena[id] = buildNode{bounds: bounds, offset: int32(offset), nPrims: int32(end - start)}
	return id
}

// build partitions prims[start:end] and returns the arena index of the subtree root
func (b *bvhBuilder) build(start, end int) int32 {
	id := b.newNode()

	bounds := EmptyBounds()
	for i := start; i < end; i++ {
		bounds = bounds.Union(b.prims[i].bounds)
	}

	n := end - start
	if n == 1 {
		return b.leaf(id, start, end, bounds)
	}

	centroidBounds := EmptyBounds()
	for i := start; i < end; i++ {
		centroidBounds = centroidBounds.UnionPoint(b.prims[i].centroid)
	}
	axis := centroidBounds.MaximumExtent()
	lo, hi := centroidBounds.Min.Get(axis), centroidBounds.Max.Get(axis)
	if lo == hi {
		return b.leaf(id, start, end, bounds)
	}

	mid := b.partition(start, end, axis, (lo+hi)/2)
	if mid == start || mid == end {
		return b.leaf(id, start, end, bounds)
	}

	left := b.build(start, mid)
	right := b.build(mid, end)
	b.arena[id] = buildNode{
		bounds:     bounds,
		children:   [2]int32{left, right},
		axis:       uint8(axis),
		isInterior: true,
	}
	return id
}

// partition stably moves primitives with centroid[axis] < pivot to the front
// and returns the first index of the second group.
func (b *bvhBuilder) partition(start, end, axis int, pivot float64) int {
	k := start
	j := 0
	for i := start; i < end; i++ {
		if b.prims[i].centroid.Get(axis) < pivot {
			b.prims[k] = b.prims[i]
			k++
		} else {
			b.scratch[j] = b.prims[i]
			j++
		}
	}
	copy(b.prims[k:end], b.scratch[:j])
	return k
}

// flatten writes the subtree rooted at arena[id] in pre-order and returns its offset
func (bvh *BVH) flatten(arena []buildNode, id int32) int32 {
	node := &arena[id]
	offset := int32(len(bvh.nodes))
	bvh.nodes = append(bvh.nodes, FlatNode{Bounds: node.bounds})

	if !node.isInterior {
		bvh.nodes[offset].Offset = node.offset
		bvh.nodes[offset].NPrimitives = node.nPrims
		for i := node.offset; i < node.offset+node.nPrims; i++ {
			bvh.objToLeaf[bvh.primIndex[i]] = offset
		}
		return offset
	}

	bvh.nodes[offset].Axis = node.axis
	bvh.flatten(arena, node.children[0])
	bvh.nodes[offset].Offset = bvh.flatten(arena, node.children[1])
	return offset
}

// Empty reports whether the hierarchy has no nodes
func (bvh *BVH) Empty() bool {
	return len(bvh.nodes) == 0
}

// Nodes returns the flattened node array. Callers must not modify it.
func (bvh *BVH) Nodes() []FlatNode {
	return bvh.nodes
}

// Bounds returns the bounds of the root node, or empty bounds
func (bvh *BVH) Bounds() Bounds {
	if bvh.Empty() {
		return EmptyBounds()
	}
	return bvh.nodes[0].Bounds
}

// LeafOf returns the node offset of the leaf holding primitive i
func (bvh *BVH) LeafOf(i int) int {
	return int(bvh.objToLeaf[i])
}

// Len returns the number of primitives the BVH was built over
func (bvh *BVH) Len() int {
	return len(bvh.objToLeaf)
}

// Intersect finds the closest primitive hit along the ray. Both children of
// every interior node are visited; ray.TMax shrinking keeps the nearest hit.
func (bvh *BVH) Intersect(ray *Ray, prims Primitives, si *SurfaceInteraction) bool {
	if bvh.Empty() {
		return false
	}
	return bvh.intersectNode(0, ray, prims, si)
}

func (bvh *BVH) intersectNode(idx int32, ray *Ray, prims Primitives, si *SurfaceInteraction) bool {
	node := &bvh.nodes[idx]
	if _, _, ok := node.Bounds.IntersectP(ray); !ok {
		return false
	}

	if node.IsLeaf() {
		hit := false
		for i := node.Offset; i < node.Offset+node.NPrimitives; i++ {
			if prims.IntersectPrimitive(bvh.primIndex[i], ray, si) {
				hit = true
			}
		}
		return hit
	}

	hitFirst := bvh.intersectNode(idx+1, ray, prims, si)
	hitSecond := bvh.intersectNode(node.Offset, ray, prims, si)
	return hitFirst || hitSecond
}

// HasIntersections reports whether any primitive is hit within ray.TMax.
// It returns on the first hit found.
func (bvh *BVH) HasIntersections(ray *Ray, prims Primitives) bool {
	if bvh.Empty() {
		return false
	}
	return bvh.intersectNodeP(0, ray, prims)
}

func (bvh *BVH) intersectNodeP(idx int32, ray *Ray, prims Primitives) bool {
	node := &bvh.nodes[idx]
	if _, _, ok := node.Bounds.IntersectP(ray); !ok {
		return false
	}

	if node.IsLeaf() {
		for i := node.Offset; i < node.Offset+node.NPrimitives; i++ {
			if prims.IntersectPrimitiveP(bvh.primIndex[i], ray) {
				return true
			}
		}
		return false
	}

	return bvh.intersectNodeP(idx+1, ray, prims) || bvh.intersectNodeP(node.Offset, ray, prims)
}

// RecalculateObject widens every node on the path from the root to the leaf
// holding primitive i so that it contains newBounds. Bounds never shrink;
// rebuild to make them tight again.
func (bvh *BVH) RecalculateObject(i int, newBounds Bounds) {
	if bvh.Empty() || i < 0 || i >= len(bvh.objToLeaf) {
		return
	}

	target := bvh.objToLeaf[i]
	idx := int32(0)
	for {
		node := &bvh.nodes[idx]
		node.Bounds = node.Bounds.Union(newBounds)
		if node.IsLeaf() {
			return
		}
		if target < node.Offset {
			idx++
		} else {
			idx = node.Offset
		}
	}
}

// BVHStats summarizes the shape of a hierarchy
type BVHStats struct {
	TotalNodes    int
	LeafNodes     int
	InteriorNodes int
	MaxDepth      int
	MaxLeafSize   int
	Primitives    int
}

// Stats walks the hierarchy and returns its shape statistics
func (bvh *BVH) Stats() BVHStats {
	stats := BVHStats{TotalNodes: len(bvh.nodes), Primitives: len(bvh.primIndex)}
	if bvh.Empty() {
		return stats
	}
	bvh.collectStats(0, 1, &stats)
	return stats
}

func (bvh *BVH) collectStats(idx int32, depth int, stats *BVHStats) {
	stats.MaxDepth = max(stats.MaxDepth, depth)
	node := &bvh.nodes[idx]
	if node.IsLeaf() {
		stats.LeafNodes++
		stats.MaxLeafSize = max(stats.MaxLeafSize, int(node.NPrimitives))
		return
	}
	stats.InteriorNodes++
	bvh.collectStats(idx+1, depth+1, stats)
	bvh.collectStats(node.Offset, depth+1, stats)
}
