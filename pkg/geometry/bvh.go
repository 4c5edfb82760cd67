package geometry

import (
	"sort"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// SplitMethod selects the partitioning strategy used when building a BVH.
type SplitMethod int

const (
	// SplitSAH bins centroids into buckets and evaluates a surface-area-
	// heuristic cost for each candidate split (the default for non-trivial
	// leaves).
	SplitSAH SplitMethod = iota
	// SplitMiddle splits at the midpoint of the centroid bounding box,
	// falling back to EqualCounts when that split is degenerate.
	SplitMiddle
	// SplitEqualCounts partitions shapes into equal-size halves by median
	// centroid.
	SplitEqualCounts
)

const (
	maxLeafShapes = 4
	numSAHBuckets = 12
	maxStackDepth = 64
)

// buildNode is an intermediate tree node produced during recursive BVH
// construction, before the depth-first flattening pass packs it into the
// traversal-time LinearNode array.
type buildNode struct {
	bounds     core.AABB
	splitAxis  int
	left       *buildNode
	right      *buildNode
	shapeStart int // index into the reordered shape slice (leaf only)
	shapeCount int
}

func (n *buildNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// LinearNode is the flattened, traversal-time BVH record: 32 bytes inflated
// to Go's natural alignment, holding either an internal node's second-child
// offset or a leaf's shape range.
type LinearNode struct {
	Bounds          core.AABB
	SecondChildOffset int // internal node only: index of the second child
	ShapeStart      int   // leaf only: start index into BVH.shapes
	ShapeCount      int   // leaf only: 0 for internal nodes
	SplitAxis       int   // internal node only: 0, 1, or 2
}

func (n *LinearNode) isLeaf() bool {
	return n.ShapeCount > 0
}

// BVH is a bounding volume hierarchy over a fixed set of shapes, built once
// and traversed many times. The flattened array layout (§4.2.2) keeps
// traversal allocation-free and cache-friendly.
type BVH struct {
	nodes  []LinearNode
	shapes []Shape // reordered during build so each leaf's range is contiguous

	Center core.Vec3 // world bounding sphere center, for infinite lights
	Radius float64   // world bounding sphere radius
}

type shapeInfo struct {
	shape    Shape
	bounds   core.AABB
	centroid core.Vec3
}

// NewBVH builds a BVH over shapes using the surface-area heuristic. The
// input slice is not mutated; BVH keeps its own reordered copy.
func NewBVH(shapes []Shape) *BVH {
	return NewBVHWithSplit(shapes, SplitSAH)
}

// NewBVHWithSplit builds a BVH using an explicit split method.
func NewBVHWithSplit(shapes []Shape, method SplitMethod) *BVH {
	if len(shapes) == 0 {
		return &BVH{Radius: 100.0}
	}

	infos := make([]shapeInfo, len(shapes))
	for i, s := range shapes {
		b := s.BoundingBox()
		infos[i] = shapeInfo{shape: s, bounds: b, centroid: b.Centroid()}
	}

	ordered := make([]Shape, 0, len(shapes))
	root := buildRecursive(infos, method, &ordered)

	nodes := make([]LinearNode, 0, countNodes(root))
	flatten(root, &nodes)

	worldCenter := root.bounds.Centroid()
	worldRadius := root.bounds.Max.Subtract(worldCenter).Length()

	return &BVH{
		nodes:  nodes,
		shapes: ordered,
		Center: worldCenter,
		Radius: worldRadius,
	}
}

func countNodes(n *buildNode) int {
	if n == nil {
		return 0
	}
	if n.isLeaf() {
		return 1
	}
	return 1 + countNodes(n.left) + countNodes(n.right)
}

// buildRecursive partitions infos[*] in place (reordering the slice) and
// appends leaf shapes to ordered in their final traversal order, per
// spec.md §4.2.1.
func buildRecursive(infos []shapeInfo, method SplitMethod, ordered *[]Shape) *buildNode {
	bounds := core.EmptyAABB()
	for _, info := range infos {
		bounds = bounds.Union(info.bounds)
	}

	if len(infos) == 1 {
		return makeLeaf(infos, bounds, ordered)
	}

	centroidBounds := core.EmptyAABB()
	for _, info := range infos {
		centroidBounds = centroidBounds.UnionPoint(info.centroid)
	}
	dim := centroidBounds.LongestDimension()

	if core.Axis(centroidBounds.Max, dim) == core.Axis(centroidBounds.Min, dim) {
		// All centroids coincide on this axis; no split can separate them.
		return makeLeaf(infos, bounds, ordered)
	}

	var mid int
	leaf := false

	switch method {
	case SplitMiddle:
		mid, leaf = splitMiddle(infos, dim, centroidBounds)
		if leaf {
			mid = splitEqualCounts(infos, dim)
		}
	case SplitEqualCounts:
		mid = splitEqualCounts(infos, dim)
	default: // SplitSAH
		var useLeaf bool
		mid, useLeaf = splitSAH(infos, dim, bounds, centroidBounds)
		if useLeaf {
			return makeLeaf(infos, bounds, ordered)
		}
	}

	if mid <= 0 || mid >= len(infos) {
		return makeLeaf(infos, bounds, ordered)
	}

	left := buildRecursive(infos[:mid], method, ordered)
	right := buildRecursive(infos[mid:], method, ordered)
	return &buildNode{bounds: bounds, splitAxis: dim, left: left, right: right}
}

func makeLeaf(infos []shapeInfo, bounds core.AABB, ordered *[]Shape) *buildNode {
	start := len(*ordered)
	for _, info := range infos {
		*ordered = append(*ordered, info.shape)
	}
	return &buildNode{bounds: bounds, shapeStart: start, shapeCount: len(infos)}
}

// splitMiddle partitions by the centroid-bounds midpoint (§4.2.1 Middle).
// Returns degenerate=true if every shape landed on one side.
func splitMiddle(infos []shapeInfo, dim int, centroidBounds core.AABB) (mid int, degenerate bool) {
	pivot := (core.Axis(centroidBounds.Min, dim) + core.Axis(centroidBounds.Max, dim)) / 2
	i, j := 0, len(infos)-1
	for i <= j {
		for i <= j && core.Axis(infos[i].centroid, dim) < pivot {
			i++
		}
		for i <= j && core.Axis(infos[j].centroid, dim) >= pivot {
			j--
		}
		if i < j {
			infos[i], infos[j] = infos[j], infos[i]
			i++
			j--
		}
	}
	if i == 0 || i == len(infos) {
		return 0, true
	}
	return i, false
}

// splitEqualCounts partitions infos into equal halves by median centroid
// (§4.2.1 EqualCounts).
func splitEqualCounts(infos []shapeInfo, dim int) int {
	sort.Slice(infos, func(i, j int) bool {
		return core.Axis(infos[i].centroid, dim) < core.Axis(infos[j].centroid, dim)
	})
	return len(infos) / 2
}

type sahBucket struct {
	count  int
	bounds core.AABB
}

// splitSAH bins centroids into numSAHBuckets buckets and evaluates the
// surface-area-heuristic cost of each of the numSAHBuckets-1 candidate
// splits, per spec.md §4.2.1. Falls back to EqualCounts for small leaves.
// useLeaf is always false: every node reaching this function is partitioned.
func splitSAH(infos []shapeInfo, dim int, bounds, centroidBounds core.AABB) (mid int, useLeaf bool) {
	if len(infos) <= maxLeafShapes {
		return splitEqualCounts(infos, dim), false
	}

	buckets := make([]sahBucket, numSAHBuckets)
	for i := range buckets {
		buckets[i].bounds = core.EmptyAABB()
	}

	bucketOf := func(centroid core.Vec3) int {
		offset := centroidBounds.Offset(centroid)
		b := int(core.Axis(offset, dim) * float64(numSAHBuckets))
		if b == numSAHBuckets {
			b = numSAHBuckets - 1
		}
		if b < 0 {
			b = 0
		}
		return b
	}

	bucketIndex := make([]int, len(infos))
	for i, info := range infos {
		b := bucketOf(info.centroid)
		bucketIndex[i] = b
		buckets[b].count++
		buckets[b].bounds = buckets[b].bounds.Union(info.bounds)
	}

	totalArea := bounds.SurfaceArea()
	if totalArea <= 0 {
		return splitEqualCounts(infos, dim), false
	}

	bestCost := -1.0
	bestSplit := -1
	for i := 0; i < numSAHBuckets-1; i++ {
		var n0, n1 int
		b0 := core.EmptyAABB()
		b1 := core.EmptyAABB()
		for j := 0; j <= i; j++ {
			n0 += buckets[j].count
			b0 = b0.Union(buckets[j].bounds)
		}
		for j := i + 1; j < numSAHBuckets; j++ {
			n1 += buckets[j].count
			b1 = b1.Union(buckets[j].bounds)
		}
		if n0 == 0 || n1 == 0 {
			continue
		}
		cost := 0.5 + (float64(n0)*b0.SurfaceArea()+float64(n1)*b1.SurfaceArea())/totalArea
		if bestSplit == -1 || cost < bestCost {
			bestCost = cost
			bestSplit = i
		}
	}

	if bestSplit == -1 {
		return splitEqualCounts(infos, dim), false
	}

	// num_shapes > maxLeafShapes here, so per spec.md §4.2.1 the node always
	// partitions rather than falling back to a leaf.

	// Partition in place by bucket index <= bestSplit.
	i, j := 0, len(infos)-1
	for i <= j {
		for i <= j && bucketIndex[i] <= bestSplit {
			i++
		}
		for i <= j && bucketIndex[j] > bestSplit {
			j--
		}
		if i < j {
			infos[i], infos[j] = infos[j], infos[i]
			bucketIndex[i], bucketIndex[j] = bucketIndex[j], bucketIndex[i]
			i++
			j--
		}
	}
	if i == 0 || i == len(infos) {
		return splitEqualCounts(infos, dim), false
	}
	return i, false
}

// flatten renders the build tree into pre-order LinearNodes: the first
// child always immediately follows its parent, and the second child's
// final index is patched in after it is flattened (§4.2.2).
func flatten(n *buildNode, nodes *[]LinearNode) int {
	index := len(*nodes)
	*nodes = append(*nodes, LinearNode{Bounds: n.bounds})

	if n.isLeaf() {
		(*nodes)[index].ShapeStart = n.shapeStart
		(*nodes)[index].ShapeCount = n.shapeCount
		return index
	}

	flatten(n.left, nodes)
	secondChild := flatten(n.right, nodes)

	(*nodes)[index].SplitAxis = n.splitAxis
	(*nodes)[index].SecondChildOffset = secondChild
	return index
}

// Hit finds the closest intersection among all shapes, per the stack-based
// traversal skeleton of spec.md §4.2.3.
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if len(bvh.nodes) == 0 {
		return nil, false
	}

	inv := core.NewInvDir(ray.Direction)
	var stack [maxStackDepth]int
	sp := 0
	i := 0

	var best *HitRecord
	closest := tMax

	for {
		node := &bvh.nodes[i]
		if node.Bounds.Hit(ray.Origin, inv, closest) {
			if node.isLeaf() {
				for s := node.ShapeStart; s < node.ShapeStart+node.ShapeCount; s++ {
					if hit, ok := bvh.shapes[s].Hit(ray, tMin, closest); ok {
						best = hit
						closest = hit.T
					}
				}
				if sp == 0 {
					break
				}
				sp--
				i = stack[sp]
			} else {
				first, second := i+1, node.SecondChildOffset
				if inv.IsNeg[node.SplitAxis] {
					first, second = second, first
				}
				stack[sp] = second
				sp++
				i = first
			}
		} else {
			if sp == 0 {
				break
			}
			sp--
			i = stack[sp]
		}
	}

	return best, best != nil
}

// HitAny reports whether any shape lies within (tMin, tMax], short-
// circuiting on the first confirmed intersection (§4.2.3 any-hit).
func (bvh *BVH) HitAny(ray core.Ray, tMin, tMax float64) bool {
	if len(bvh.nodes) == 0 {
		return false
	}

	inv := core.NewInvDir(ray.Direction)
	var stack [maxStackDepth]int
	sp := 0
	i := 0

	for {
		node := &bvh.nodes[i]
		if node.Bounds.Hit(ray.Origin, inv, tMax) {
			if node.isLeaf() {
				for s := node.ShapeStart; s < node.ShapeStart+node.ShapeCount; s++ {
					if bvh.shapes[s].HitAny(ray, tMin, tMax) {
						return true
					}
				}
				if sp == 0 {
					break
				}
				sp--
				i = stack[sp]
			} else {
				first, second := i+1, node.SecondChildOffset
				if inv.IsNeg[node.SplitAxis] {
					first, second = second, first
				}
				stack[sp] = second
				sp++
				i = first
			}
		} else {
			if sp == 0 {
				break
			}
			sp--
			i = stack[sp]
		}
	}

	return false
}

// BoundingBox implements Shape: the root node's box, or an empty box for an
// empty BVH.
func (bvh *BVH) BoundingBox() core.AABB {
	if len(bvh.nodes) == 0 {
		return core.EmptyAABB()
	}
	return bvh.nodes[0].Bounds
}

// ShapeCount returns the total number of shapes held in the BVH's leaves.
func (bvh *BVH) ShapeCount() int {
	return len(bvh.shapes)
}
