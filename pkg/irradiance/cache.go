// Package irradiance implements an octree cache of indirect irradiance
// samples with first-order gradient interpolation.
package irradiance

import (
	"math"
	"sync"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Gradient is the derivative of an RGB radiance with respect to a 3D offset,
// one vector per channel
type Gradient struct {
	R, G, B core.Vec3
}

// NewGradient returns the gradient radiance ⊗ direction
func NewGradient(radiance, direction core.Vec3) Gradient {
	return Gradient{
		R: direction.Multiply(radiance.X),
		G: direction.Multiply(radiance.Y),
		B: direction.Multiply(radiance.Z),
	}
}

// Apply returns the radiance change along offset
func (g Gradient) Apply(offset core.Vec3) core.Vec3 {
	return core.NewVec3(g.R.Dot(offset), g.G.Dot(offset), g.B.Dot(offset))
}

// Add returns the sum of two gradients
func (g Gradient) Add(other Gradient) Gradient {
	return Gradient{R: g.R.Add(other.R), G: g.G.Add(other.G), B: g.B.Add(other.B)}
}

// Multiply scales the gradient
func (g Gradient) Multiply(scalar float64) Gradient {
	return Gradient{R: g.R.Multiply(scalar), G: g.G.Multiply(scalar), B: g.B.Multiply(scalar)}
}

// Entry is one cached irradiance estimate
type Entry struct {
	Point     core.Vec3
	Normal    core.Vec3
	Radius    float64 // Harmonic mean distance to the surrounding geometry, clamped
	Radiance  core.Vec3
	RotGrad   Gradient // Change of radiance with rotation of the normal
	TransGrad Gradient // Change of radiance with translation of the point
}

type octreeNode struct {
	entries  []Entry
	children [8]*octreeNode
}

// Cache is an octree of irradiance entries. Entries are stored in the node
// whose cell size is within a factor of two of the entry's radius scaled by
// the threshold, so a range walk only visits cells near the query point.
//
// The locked methods may be called concurrently. The Unlocked variants
// require the caller to guarantee no concurrent Add.
type Cache struct {
	threshold float64

	mu     sync.RWMutex
	root   *octreeNode
	origin core.Vec3
	size   float64 // Half-width of the root cell
	count  int
}

// New creates an empty cache. Larger thresholds accept entries from further away.
func New(threshold float64) *Cache {
	return &Cache{threshold: threshold}
}

// Threshold returns the acceptance threshold
func (c *Cache) Threshold() float64 {
	return c.threshold
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Weight returns how relevant an entry is at a point with the given normal.
// It is infinite only when the point and normal coincide with the entry's.
func Weight(entry *Entry, point, normal core.Vec3) float64 {
	distance := point.Subtract(entry.Point).Length()
	return 1 / (distance/entry.Radius + math.Sqrt(1-min(1, normal.Dot(entry.Normal))))
}

// valid rejects entries behind the query point (on curved surfaces) and
// entries whose weight is below the threshold
func valid(entry *Entry, point, normal core.Vec3, weight, threshold float64) bool {
	d := point.Subtract(entry.Point).Dot(normal.Add(entry.Normal).Divide(2))
	return d >= -0.01 && weight > 1/threshold
}

// Test reports whether any entry is valid at the point
func (c *Cache) Test(point, normal core.Vec3) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.TestUnlocked(point, normal)
}

// TestUnlocked is Test without locking
func (c *Cache) TestUnlocked(point, normal core.Vec3) bool {
	found := false
	c.visit(c.root, c.origin, c.size, point, func(entry *Entry) bool {
		if valid(entry, point, normal, Weight(entry, point, normal), c.threshold) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Interpolate returns the weighted, gradient-corrected average of the valid
// entries at the point. When none are valid the threshold is doubled and the
// search retried, up to three rounds, after which zero is returned.
func (c *Cache) Interpolate(point, normal core.Vec3) core.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.InterpolateUnlocked(point, normal)
}

// InterpolateUnlocked is Interpolate without locking
func (c *Cache) InterpolateUnlocked(point, normal core.Vec3) core.Vec3 {
	threshold := c.threshold

	for round := 0; round < 3; round++ {
		var irradiance core.Vec3
		totalWeight := 0.0

		c.visit(c.root, c.origin, c.size, point, func(entry *Entry) bool {
			w := Weight(entry, point, normal)
			if !valid(entry, point, normal, w, threshold) {
				return true
			}
			if math.IsInf(w, 1) {
				irradiance = entry.Radiance
				totalWeight = 1
				return false
			}

			rad := entry.Radiance.
				Add(entry.RotGrad.Apply(normal.Cross(entry.Normal))).
				Add(entry.TransGrad.Apply(point.Subtract(entry.Point)))
			irradiance = irradiance.Add(rad.Multiply(w))
			totalWeight += w
			return true
		})

		if totalWeight > 0 {
			return irradiance.Divide(totalWeight).ClampNonNegative()
		}
		threshold *= 2
	}

	return core.Vec3{}
}

// Add inserts an entry
func (c *Cache) Add(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AddUnlocked(entry)
}

// AddUnlocked is Add without locking
func (c *Cache) AddUnlocked(entry Entry) {
	target := entry.Radius * c.threshold

	if c.root == nil {
		c.root = &octreeNode{}
		c.size = target
		c.origin = entry.Point
	}

	// Grow the root toward the entry until it fits and is coarse enough
	for !c.fits(entry.Point) || c.size < target {
		dir := core.NewVec3(signToward(entry.Point.X, c.origin.X), signToward(entry.Point.Y, c.origin.Y), signToward(entry.Point.Z, c.origin.Z))

		// The old root becomes the child on the opposite side of the new origin
		newRoot := &octreeNode{}
		newRoot.children[childIndex(dir.Negate())] = c.root
		c.root = newRoot
		c.origin = c.origin.Add(dir.Multiply(c.size))
		c.size *= 2
	}

	origin := c.origin
	size := c.size
	node := c.root
	for size > target*2 {
		dir := core.NewVec3(signToward(entry.Point.X, origin.X), signToward(entry.Point.Y, origin.Y), signToward(entry.Point.Z, origin.Z))
		idx := childIndex(dir)

		if node.children[idx] == nil {
			node.children[idx] = &octreeNode{}
		}
		size /= 2
		origin = origin.Add(dir.Multiply(size))
		node = node.children[idx]
	}

	node.entries = append(node.entries, entry)
	c.count++
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = nil
	c.size = 0
	c.count = 0
}

func (c *Cache) fits(point core.Vec3) bool {
	return math.Abs(point.X-c.origin.X) <= c.size &&
		math.Abs(point.Y-c.origin.Y) <= c.size &&
		math.Abs(point.Z-c.origin.Z) <= c.size
}

func signToward(value, origin float64) float64 {
	if value > origin {
		return 1
	}
	return -1
}

// childIndex maps the sign of each axis to a child slot: bit 0 is +x, bit 1 +y, bit 2 +z
func childIndex(dir core.Vec3) int {
	idx := 0
	if dir.X > 0 {
		idx |= 1
	}
	if dir.Y > 0 {
		idx |= 2
	}
	if dir.Z > 0 {
		idx |= 4
	}
	return idx
}

func childCell(origin core.Vec3, size float64, idx int) (core.Vec3, float64) {
	dir := core.NewVec3(-1, -1, -1)
	if idx&1 != 0 {
		dir.X = 1
	}
	if idx&2 != 0 {
		dir.Y = 1
	}
	if idx&4 != 0 {
		dir.Z = 1
	}
	half := size / 2
	return origin.Add(dir.Multiply(half)), half
}

// distanceSquaredToCell returns the squared distance from point to the cube
// centered on origin with half-width size, 0 inside it
func distanceSquaredToCell(point, origin core.Vec3, size float64) float64 {
	total := 0.0
	for axis := 0; axis < 3; axis++ {
		p := point.Component(axis)
		o := origin.Component(axis)
		if p < o-size {
			d := o - size - p
			total += d * d
		} else if p > o+size {
			d := p - (o + size)
			total += d * d
		}
	}
	return total
}

// visit calls fn for the entries of node and of every descendant cell within
// one cell size of point. It stops and returns false as soon as fn does.
func (c *Cache) visit(node *octreeNode, origin core.Vec3, size float64, point core.Vec3, fn func(entry *Entry) bool) bool {
	if node == nil {
		return true
	}

	for i := range node.entries {
		if !fn(&node.entries[i]) {
			return false
		}
	}

	for idx, child := range node.children {
		if child == nil {
			continue
		}
		childOrigin, childSize := childCell(origin, size, idx)
		if distanceSquaredToCell(point, childOrigin, childSize) < childSize*childSize {
			if !c.visit(child, childOrigin, childSize, point, fn) {
				return false
			}
		}
	}
	return true
}
