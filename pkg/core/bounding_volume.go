package core

import "math"

// BoundingVolumeAxes is the number of slab projection axes
const BoundingVolumeAxes = 3

// ProjectionAxes are the directions along which bounding volumes are measured
var ProjectionAxes = [BoundingVolumeAxes]Vec3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// BoundingVolume bounds a region of space by a minimum and maximum along each
// projection axis. The zero value is NOT empty; use NewBoundingVolume.
type BoundingVolume struct {
	Mins  [BoundingVolumeAxes]float64
	Maxes [BoundingVolumeAxes]float64
}

// NewBoundingVolume creates an empty bounding volume which contains nothing
func NewBoundingVolume() BoundingVolume {
	var v BoundingVolume
	for i := range v.Mins {
		v.Mins[i] = math.MaxFloat64
		v.Maxes[i] = -math.MaxFloat64
	}
	return v
}

// NewBoundingVolumeFromExtents creates a volume from per-axis minima and maxima
func NewBoundingVolumeFromExtents(mins, maxes [BoundingVolumeAxes]float64) BoundingVolume {
	return BoundingVolume{Mins: mins, Maxes: maxes}
}

// IsEmpty reports whether the volume has never been expanded
func (v BoundingVolume) IsEmpty() bool {
	for i := range v.Mins {
		if v.Mins[i] > v.Maxes[i] {
			return true
		}
	}
	return false
}

// IncludePoint grows the volume to contain the point
func (v *BoundingVolume) IncludePoint(point Vec3) {
	for i, axis := range ProjectionAxes {
		d := point.Dot(axis)
		v.Mins[i] = min(v.Mins[i], d)
		v.Maxes[i] = max(v.Maxes[i], d)
	}
}

// IncludeVolume grows the volume to contain another volume
func (v *BoundingVolume) IncludeVolume(other BoundingVolume) {
	for i := range v.Mins {
		v.Mins[i] = min(v.Mins[i], other.Mins[i])
		v.Maxes[i] = max(v.Maxes[i], other.Maxes[i])
	}
}

// Contains reports whether another volume lies entirely inside this one
func (v BoundingVolume) Contains(other BoundingVolume) bool {
	for i := range v.Mins {
		if other.Mins[i] < v.Mins[i] || other.Maxes[i] > v.Maxes[i] {
			return false
		}
	}
	return true
}

// Centroid returns the center of the volume in world space
func (v BoundingVolume) Centroid() Vec3 {
	return Vec3{
		X: (v.Mins[0] + v.Maxes[0]) / 2,
		Y: (v.Mins[1] + v.Maxes[1]) / 2,
		Z: (v.Mins[2] + v.Maxes[2]) / 2,
	}
}

// RayData caches the projections of a ray onto the bounding volume axes so a
// ray can be tested against many volumes cheaply
type RayData struct {
	Ray     Ray
	offsets [BoundingVolumeAxes]float64
	dots    [BoundingVolumeAxes]float64
}

// NewRayData precomputes the axis projections of a ray
func NewRayData(ray Ray) RayData {
	data := RayData{Ray: ray}
	for i, axis := range ProjectionAxes {
		data.offsets[i] = ray.Origin.Dot(axis)
		data.dots[i] = ray.Direction.Dot(axis)
	}
	return data
}

// IntersectRay returns the distances at which the ray enters and leaves the
// volume. ok is false when the ray misses or the volume lies entirely behind it.
func (v BoundingVolume) IntersectRay(data RayData) (near, far float64, ok bool) {
	near = -math.MaxFloat64
	far = math.MaxFloat64

	for i := range v.Mins {
		offset := data.offsets[i]
		dot := data.dots[i]

		// a ray parallel to the slab only needs a containment test
		if dot == 0 {
			if offset < v.Mins[i] || offset > v.Maxes[i] {
				return 0, 0, false
			}
			continue
		}

		lo := (v.Mins[i] - offset) / dot
		hi := (v.Maxes[i] - offset) / dot
		if dot < 0 {
			lo, hi = hi, lo
		}

		near = max(near, lo)
		far = min(far, hi)

		if near > far || far < 0 {
			return 0, 0, false
		}
	}

	return near, far, true
}
