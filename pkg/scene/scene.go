package scene

import (
	"math"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera      *Camera
	Primitives  []*Primitive
	PointLights []PointLight
	AreaLights  []int     // Indices of primitives with non-zero radiance
	SkyRadiance core.Vec3 // Radiance of rays escaping the scene

	bvh *core.BVH // Acceleration structure over the primitives
}

// New creates a scene and builds its bounding volume hierarchy
func New(camera *Camera, primitives []*Primitive, pointLights []PointLight, skyRadiance core.Vec3) *Scene {
	s := &Scene{
		Camera:      camera,
		Primitives:  primitives,
		PointLights: pointLights,
		SkyRadiance: skyRadiance,
	}

	centroids := make([]core.Vec3, len(primitives))
	for i, primitive := range primitives {
		centroids[i] = primitive.Volume.Centroid()
		if primitive.Surface.IsEmissive() {
			s.AreaLights = append(s.AreaLights, i)
		}
	}
	s.bvh = core.NewBVH(centroids, func(index int) core.BoundingVolume {
		return primitives[index].Volume
	})

	return s
}

// BVH returns the hierarchy over the scene's primitives
func (s *Scene) BVH() *core.BVH {
	return s.bvh
}

// Intersect finds where the beam hits the scene within maxDistance. In
// closest mode the nearest hit is returned; otherwise any hit. The result is
// invalid if nothing was hit.
func (s *Scene) Intersect(beam core.Beam, maxDistance float64, closest bool) Intersection {
	isect := Intersection{scene: s}
	ray := beam.Ray

	s.bvh.Intersect(core.NewRayData(ray), maxDistance, closest, func(index int, maxDist float64) (float64, bool) {
		shapeIsect, ok := s.Primitives[index].Shape.Intersect(ray, maxDist, closest)
		if !ok {
			return 0, false
		}
		isect = newIntersection(s, index, beam, shapeIsect)
		return shapeIsect.Distance, true
	})

	return isect
}

// IntersectLinear is Intersect without the hierarchy: every primitive whose
// bounding volume the ray reaches before the current hit is tested in turn
func (s *Scene) IntersectLinear(beam core.Beam, maxDistance float64, closest bool) Intersection {
	isect := Intersection{scene: s}
	ray := beam.Ray
	data := core.NewRayData(ray)
	distance := maxDistance

	for i, primitive := range s.Primitives {
		near, far, ok := primitive.Volume.IntersectRay(data)
		if !ok || far < 0 || near > distance {
			continue
		}

		shapeIsect, hit := primitive.Shape.Intersect(ray, distance, closest)
		if !hit {
			continue
		}
		isect = newIntersection(s, i, beam, shapeIsect)
		distance = shapeIsect.Distance
		if !closest {
			break
		}
	}

	return isect
}

// Occluded reports whether anything other than the primitive at skip lies on
// the ray closer than distance. Pass skip < 0 to count every primitive.
func (s *Scene) Occluded(ray core.Ray, distance float64, skip int) bool {
	isect := s.Intersect(core.NewBeam(ray, core.Bivec3{}, core.Bivec3{}), distance, false)
	return isect.Valid() && isect.PrimitiveIndex() != skip
}

// Bounds returns the volume containing every primitive
func (s *Scene) Bounds() core.BoundingVolume {
	return s.bvh.Volume()
}

// Radius returns half the diagonal of the scene bounds, or 0 for an empty scene
func (s *Scene) Radius() float64 {
	bounds := s.Bounds()
	if bounds.IsEmpty() {
		return 0
	}
	var sum float64
	for axis := 0; axis < core.BoundingVolumeAxes; axis++ {
		extent := bounds.Maxes[axis] - bounds.Mins[axis]
		sum += extent * extent
	}
	return math.Sqrt(sum) / 2
}
