package core

import (
	"math"
	"math/rand"
	"testing"
)

// boxVolume builds a bounding volume for an axis-aligned box
func boxVolume(lo, hi Vec3) BoundingVolume {
	v := NewBoundingVolume()
	v.IncludePoint(lo)
	v.IncludePoint(hi)
	return v
}

func randomBoxes(random *rand.Rand, n int) []BoundingVolume {
	boxes := make([]BoundingVolume, n)
	for i := range boxes {
		center := NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		half := NewVec3(random.Float64()*0.5+0.05, random.Float64()*0.5+0.05, random.Float64()*0.5+0.05)
		boxes[i] = boxVolume(center.Subtract(half), center.Add(half))
	}
	return boxes
}

func buildBoxBVH(boxes []BoundingVolume) *BVH {
	centroids := make([]Vec3, len(boxes))
	for i, box := range boxes {
		centroids[i] = box.Centroid()
	}
	return NewBVH(centroids, func(index int) BoundingVolume { return boxes[index] })
}

// boxHit treats the box itself as the item's exact geometry
func boxHit(box BoundingVolume, data RayData, maxDistance float64) (float64, bool) {
	near, far, ok := box.IntersectRay(data)
	if !ok {
		return 0, false
	}
	d := near
	if d < 0 {
		d = far
	}
	if d < 0 || d >= maxDistance {
		return 0, false
	}
	return d, true
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(1))
	boxes := randomBoxes(random, 500)
	bvh := buildBoxBVH(boxes)

	for r := 0; r < 2000; r++ {
		origin := NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		direction := SampleOnUnitSphere(NewVec2(random.Float64(), random.Float64()))
		data := NewRayData(NewRay(origin, direction))

		bruteIndex, bruteDistance := -1, math.MaxFloat64
		for i, box := range boxes {
			if d, ok := boxHit(box, data, bruteDistance); ok {
				bruteIndex, bruteDistance = i, d
			}
		}

		bvhIndex, bvhDistance := -1, math.MaxFloat64
		bvh.Intersect(data, math.MaxFloat64, true, func(index int, maxDistance float64) (float64, bool) {
			d, ok := boxHit(boxes[index], data, maxDistance)
			if ok {
				bvhIndex, bvhDistance = index, d
			}
			return d, ok
		})

		if bruteIndex != bvhIndex {
			t.Fatalf("Ray %d: expected hit index %d, got %d", r, bruteIndex, bvhIndex)
		}
		if bruteIndex >= 0 && math.Abs(bruteDistance-bvhDistance) > 1e-9 {
			t.Fatalf("Ray %d: expected distance %f, got %f", r, bruteDistance, bvhDistance)
		}
	}
}

func TestBVH_AnyHitStopsAtFirstHit(t *testing.T) {
	boxes := make([]BoundingVolume, 10)
	for i := range boxes {
		x := float64(i) * 2
		boxes[i] = boxVolume(NewVec3(x, -1, -1), NewVec3(x+1, 1, 1))
	}
	bvh := buildBoxBVH(boxes)
	data := NewRayData(NewRay(NewVec3(-5, 0, 0), NewVec3(1, 0, 0)))

	calls := 0
	hit := bvh.Intersect(data, math.MaxFloat64, false, func(index int, maxDistance float64) (float64, bool) {
		calls++
		return boxHit(boxes[index], data, maxDistance)
	})

	if !hit {
		t.Fatal("Expected any-hit query to report a hit")
	}
	if calls != 1 {
		t.Errorf("Expected exactly 1 leaf test in any-hit mode, got %d", calls)
	}
}

func TestBVH_RespectsMaxDistance(t *testing.T) {
	boxes := []BoundingVolume{boxVolume(NewVec3(10, -1, -1), NewVec3(11, 1, 1))}
	bvh := buildBoxBVH(boxes)
	data := NewRayData(NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)))

	hit := bvh.Intersect(data, 5, true, func(index int, maxDistance float64) (float64, bool) {
		return boxHit(boxes[index], data, maxDistance)
	})
	if hit {
		t.Error("Expected no hit beyond max distance")
	}
}

func TestBVH_EmptyAndSingleItem(t *testing.T) {
	bvh := NewBVH(nil, nil)
	data := NewRayData(NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)))
	if bvh.Intersect(data, math.MaxFloat64, true, nil) {
		t.Error("Expected no hit for empty BVH")
	}
	if bvh.Depth() != 0 {
		t.Errorf("Expected depth 0 for empty BVH, got %d", bvh.Depth())
	}

	box := boxVolume(NewVec3(1, -1, -1), NewVec3(2, 1, 1))
	bvh = buildBoxBVH([]BoundingVolume{box})
	if len(bvh.Nodes()) != 1 {
		t.Fatalf("Expected 1 node for single item, got %d", len(bvh.Nodes()))
	}
	if !bvh.Nodes()[0].IsLeaf() || bvh.Nodes()[0].Item() != 0 {
		t.Errorf("Expected single leaf referring to item 0, got index %d", bvh.Nodes()[0].Index)
	}

	var hitIndex = -1
	bvh.Intersect(data, math.MaxFloat64, true, func(index int, maxDistance float64) (float64, bool) {
		hitIndex = index
		return boxHit(box, data, maxDistance)
	})
	if hitIndex != 0 {
		t.Errorf("Expected hit on item 0, got %d", hitIndex)
	}
}

func TestBVH_ParentsContainChildren(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	bvh := buildBoxBVH(randomBoxes(random, 257))
	nodes := bvh.Nodes()

	if len(nodes) != 2*257-1 {
		t.Errorf("Expected %d nodes, got %d", 2*257-1, len(nodes))
	}

	leaves := 0
	for i, node := range nodes {
		if node.IsLeaf() {
			leaves++
			continue
		}
		if !node.Volume.Contains(nodes[i+1].Volume) {
			t.Errorf("Node %d does not contain its left child", i)
		}
		if !node.Volume.Contains(nodes[node.Index].Volume) {
			t.Errorf("Node %d does not contain its right child %d", i, node.Index)
		}
	}
	if leaves != 257 {
		t.Errorf("Expected 257 leaves, got %d", leaves)
	}
}

func TestBVH_DepthIsBalanced(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	bvh := buildBoxBVH(randomBoxes(random, 4096))

	// a median split over 4096 items gives exactly 13 levels
	if bvh.Depth() != 13 {
		t.Errorf("Expected depth 13, got %d", bvh.Depth())
	}
}

func TestSelectNth(t *testing.T) {
	random := rand.New(rand.NewSource(9))
	for _, size := range []int{1, 2, 3, 10, 257} {
		keys := make([]float64, size)
		for i := range keys {
			// few distinct values so ties are common
			keys[i] = float64(random.Intn(5))
		}
		for _, n := range []int{0, size / 2, size - 1} {
			indices := random.Perm(size)
			selectNth(indices, n, func(i int) float64 { return keys[i] })

			nth := keys[indices[n]]
			for i, index := range indices {
				if i < n && keys[index] > nth || i > n && keys[index] < nth {
					t.Fatalf("size %d n %d: key %v at %d is on the wrong side of %v", size, n, keys[index], i, nth)
				}
			}
		}
	}
}

func TestBVH_FromNodes(t *testing.T) {
	left := boxVolume(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	right := boxVolume(NewVec3(3, 0, 0), NewVec3(4, 1, 1))
	root := NewBoundingVolume()
	root.IncludeVolume(left)
	root.IncludeVolume(right)

	nodes := []BVHNode{
		{Volume: root, Index: 2},
		{Volume: left, Index: 0},
		{Volume: right, Index: -1},
	}
	bvh := NewBVHFromNodes(nodes)
	boxes := []BoundingVolume{left, right}

	data := NewRayData(NewRay(NewVec3(10, 0.5, 0.5), NewVec3(-1, 0, 0)))
	hitIndex := -1
	bvh.Intersect(data, math.MaxFloat64, true, func(index int, maxDistance float64) (float64, bool) {
		d, ok := boxHit(boxes[index], data, maxDistance)
		if ok {
			hitIndex = index
		}
		return d, ok
	})
	if hitIndex != 1 {
		t.Errorf("Expected nearest item 1, got %d", hitIndex)
	}
}
