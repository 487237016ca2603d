package gpu

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/df07/go-wavefront-raytracer/pkg/proxy"
)

const traceStackSize = 64

// hit is the closest intersection along a ray
type hit struct {
	distance  float32
	primitive int
	normal    f32.Vec3 // Geometric normal
}

// intersectPrimitive returns the distance to p along the ray if it is in [0, maxDistance)
func intersectPrimitive(p *proxy.Primitive, origin, direction f32.Vec3, maxDistance float32) (float32, f32.Vec3, bool) {
	switch p.Type {
	case proxy.ShapeQuad:
		denominator := -dot(direction, p.Normal)
		if denominator == 0 {
			return 0, f32.Vec3{}, false
		}
		distance := dot(sub(origin, p.Position), p.Normal) / denominator
		if !(distance >= 0 && distance < maxDistance) {
			return 0, f32.Vec3{}, false
		}
		offset := sub(add(origin, scale(direction, distance)), p.Position)
		// Parallelogram coordinates of the hit along Side1 and Side2
		c := cross(p.Side1, p.Side2)
		w := scale(c, 1/dot(c, c))
		u := dot(w, cross(offset, p.Side2))
		v := dot(w, cross(p.Side1, offset))
		if !(u >= 0 && u <= 1 && v >= 0 && v <= 1) {
			return 0, f32.Vec3{}, false
		}
		return distance, p.Normal, true

	case proxy.ShapeSphere:
		oc := sub(origin, p.Position)
		a := dot(direction, direction)
		b := 2 * dot(oc, direction)
		c := dot(oc, oc) - p.Radius*p.Radius
		disc := b*b - 4*a*c
		if disc < 0 || a == 0 {
			return 0, f32.Vec3{}, false
		}
		root := math32.Sqrt(disc)
		for _, distance := range [2]float32{(-b - root) / (2 * a), (-b + root) / (2 * a)} {
			if distance >= 0 && distance < maxDistance {
				normal := scale(sub(add(origin, scale(direction, distance)), p.Position), 1/p.Radius)
				return distance, normal, true
			}
		}
	}
	return 0, f32.Vec3{}, false
}

// slab returns the ray's entry distance into the node's box
func slab(node *proxy.BVHNode, origin, inverse f32.Vec3, maxDistance float32) (float32, bool) {
	near, far := float32(0), maxDistance
	for axis := 0; axis < 3; axis++ {
		t0 := (node.Min[axis] - origin[axis]) * inverse[axis]
		t1 := (node.Max[axis] - origin[axis]) * inverse[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		// 0·∞ from a ray lying in a slab plane is NaN and leaves the range unchanged
		if t0 > near {
			near = t0
		}
		if t1 < far {
			far = t1
		}
		if near > far {
			return 0, false
		}
	}
	return near, true
}

// trace walks the scene hierarchy for the closest hit before maxDistance.
// With closest false it returns the first hit found.
func trace(view *proxy.SceneView, origin, direction f32.Vec3, maxDistance float32, closest bool) (hit, bool) {
	h := view.Header()
	if h.NumBVHNodes == 0 {
		return hit{}, false
	}

	inverse := f32.Vec3{1 / direction[0], 1 / direction[1], 1 / direction[2]}
	result := hit{distance: maxDistance, primitive: -1}

	var stack [traceStackSize]int32
	stack[0] = 0
	top := 1
	for top > 0 {
		top--
		index := stack[top]
		node := view.BVHNode(int(index))
		if _, ok := slab(&node, origin, inverse, result.distance); !ok {
			continue
		}

		if node.IsLeaf() {
			primitive := int(-node.Index)
			p := view.Primitive(primitive)
			if distance, normal, ok := intersectPrimitive(&p, origin, direction, result.distance); ok {
				result = hit{distance: distance, primitive: primitive, normal: normal}
				if !closest {
					return result, true
				}
			}
			continue
		}

		if top+2 > traceStackSize {
			panic("gpu: traversal stack overflow")
		}
		stack[top] = node.Index
		stack[top+1] = index + 1
		top += 2
	}
	return result, result.primitive >= 0
}
