package core

import (
	"math"
)

const bvhStackSize = 64

// BVHNode is one node of a flattened bounding volume hierarchy.
// A node with Index > 0 is internal: its first child is the next node in the
// array and its second child is at Index. A node with Index <= 0 is a leaf
// referring to item -Index.
type BVHNode struct {
	Volume BoundingVolume
	Index  int
}

// IsLeaf reports whether the node refers to an item
func (n BVHNode) IsLeaf() bool {
	return n.Index <= 0
}

// Item returns the item index of a leaf node
func (n BVHNode) Item() int {
	return -n.Index
}

// BVH is a bounding volume hierarchy stored as a flat array of nodes
type BVH struct {
	nodes []BVHNode
}

// IntersectFunc tests item index against a ray, given the closest distance
// found so far. It returns the distance of a new closer hit and true, or false
// if the item is missed.
type IntersectFunc func(index int, maxDistance float64) (float64, bool)

// NewBVHFromNodes wraps pre-built nodes, laid out with implicit left children
func NewBVHFromNodes(nodes []BVHNode) *BVH {
	return &BVH{nodes: nodes}
}

// NewBVH builds a hierarchy over items given by their centroids and a function
// returning each item's bounding volume. Items are partitioned by a median
// split of their centroids, rotating through the projection axes, and node
// volumes are then computed bottom-up.
func NewBVH(centroids []Vec3, volume func(index int) BoundingVolume) *BVH {
	bvh := &BVH{}
	if len(centroids) == 0 {
		return bvh
	}

	indices := make([]int, len(centroids))
	for i := range indices {
		indices[i] = i
	}

	bvh.nodes = make([]BVHNode, 0, 2*len(centroids)-1)
	bvh.buildTree(centroids, indices, 0)
	bvh.computeVolumes(0, volume)
	return bvh
}

// buildTree appends the subtree for indices and returns its node index
func (b *BVH) buildTree(centroids []Vec3, indices []int, axis int) int {
	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, BVHNode{Volume: NewBoundingVolume()})

	if len(indices) == 1 {
		b.nodes[nodeIndex].Index = -indices[0]
		return nodeIndex
	}

	splitAxis := ProjectionAxes[axis]
	split := len(indices) / 2
	selectNth(indices, split, func(i int) float64 { return centroids[i].Dot(splitAxis) })

	nextAxis := (axis + 1) % BoundingVolumeAxes
	b.buildTree(centroids, indices[:split], nextAxis)
	right := b.buildTree(centroids, indices[split:], nextAxis)
	b.nodes[nodeIndex].Index = right
	return nodeIndex
}

// selectNth reorders indices so that the item at n has the n-th smallest key,
// with no larger key before it and no smaller key after it
func selectNth(indices []int, n int, key func(int) float64) {
	lo, hi := 0, len(indices)-1
	for lo < hi {
		pivot := key(indices[lo+(hi-lo)/2])
		i, j := lo, hi
		for i <= j {
			for key(indices[i]) < pivot {
				i++
			}
			for key(indices[j]) > pivot {
				j--
			}
			if i <= j {
				indices[i], indices[j] = indices[j], indices[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}

// computeVolumes fills in node volumes so that every parent contains its children
func (b *BVH) computeVolumes(nodeIndex int, volume func(index int) BoundingVolume) BoundingVolume {
	node := &b.nodes[nodeIndex]
	if node.IsLeaf() {
		node.Volume = volume(node.Item())
		return node.Volume
	}

	left := b.computeVolumes(nodeIndex+1, volume)
	right := b.computeVolumes(node.Index, volume)

	combined := NewBoundingVolume()
	combined.IncludeVolume(left)
	combined.IncludeVolume(right)
	b.nodes[nodeIndex].Volume = combined
	return combined
}

// Nodes returns the flat node array
func (b *BVH) Nodes() []BVHNode {
	return b.nodes
}

// Volume returns the bounding volume of the whole hierarchy
func (b *BVH) Volume() BoundingVolume {
	if len(b.nodes) == 0 {
		return NewBoundingVolume()
	}
	return b.nodes[0].Volume
}

type bvhStackEntry struct {
	node int
	near float64
}

// Intersect walks the hierarchy along the ray, calling fn for every leaf whose
// volume is reached before the closest hit so far. Children are visited near
// to far. In closest mode the walk continues until no nearer hit is possible;
// otherwise it stops at the first hit fn reports. It returns whether fn
// reported any hit.
func (b *BVH) Intersect(data RayData, maxDistance float64, closest bool, fn IntersectFunc) bool {
	if len(b.nodes) == 0 {
		return false
	}

	near, _, ok := b.nodes[0].Volume.IntersectRay(data)
	if !ok || near > maxDistance {
		return false
	}

	var stack [bvhStackSize]bvhStackEntry
	stack[0] = bvhStackEntry{node: 0, near: near}
	top := 1

	distance := maxDistance
	found := false

	for top > 0 {
		top--
		entry := stack[top]
		if entry.near > distance {
			continue
		}

		node := b.nodes[entry.node]
		if node.IsLeaf() {
			if d, hit := fn(node.Item(), distance); hit {
				distance = d
				found = true
				if !closest {
					return true
				}
			}
			continue
		}

		children := [2]int{entry.node + 1, node.Index}
		var nears, fars [2]float64
		for i, child := range children {
			n, f, hit := b.nodes[child].Volume.IntersectRay(data)
			if !hit {
				n, f = math.MaxFloat64, -math.MaxFloat64
			}
			nears[i], fars[i] = n, f
		}

		// push the farther child first so the nearer one is popped next
		for i := 0; i < 2; i++ {
			j := i
			if nears[0] < nears[1] {
				j = 1 - i
			}
			if fars[j] < 0 || nears[j] > distance {
				continue
			}
			if top == bvhStackSize {
				panic("core: bvh traversal stack overflow")
			}
			stack[top] = bvhStackEntry{node: children[j], near: nears[j]}
			top++
		}
	}

	return found
}

// Depth returns the number of levels in the hierarchy
func (b *BVH) Depth() int {
	if len(b.nodes) == 0 {
		return 0
	}
	return b.depth(0)
}

func (b *BVH) depth(nodeIndex int) int {
	node := b.nodes[nodeIndex]
	if node.IsLeaf() {
		return 1
	}
	return 1 + max(b.depth(nodeIndex+1), b.depth(node.Index))
}
